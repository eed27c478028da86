// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package grubcfg

import "strings"

// archName maps `uname -m` onto the names genkernel uses in file names.
func archName(machine string) string {
	switch {
	case len(machine) == 4 && machine[0] == 'i' && strings.HasSuffix(machine, "86"):
		return "x86"
	case machine == "mips" || machine == "mips64":
		return "mips"
	case machine == "mipsel" || machine == "mips64el":
		return "mipsel"
	case strings.HasPrefix(machine, "arm"):
		return "arm"
	}
	return machine
}
