// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package testlog

import (
	"bufio"
	"strings"
)

// a function that returns true if 'in' should be kept
type LineFilterer func(in string) bool

// only Msgf() output
func FilterMsg() LineFilterer { return FilterPfx("MSG:") }

// only Logf() output
func FilterLog() LineFilterer { return FilterPfx("LOG:") }

func FilterPfx(pfx string) LineFilterer {
	return func(in string) bool { return strings.HasPrefix(in, pfx) }
}

// lines containing s
func FilterContains(s string) LineFilterer {
	return func(in string) bool { return strings.Contains(in, s) }
}

// Filter returns the buffered lines accepted by lf. The buffer is not
// consumed.
func (tlog *TstLog) Filter(lf LineFilterer) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(tlog.String()))
	for scanner.Scan() {
		if lf(scanner.Text()) {
			lines = append(lines, scanner.Text())
		}
	}
	return lines
}
