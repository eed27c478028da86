// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package flags holds the bits attached to each log entry.
package flags

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Flag int

const (
	NA Flag = 0

	//fit for whoever runs the tool, not just developers
	EndUser Flag = 1 << (iota - 1)
	//the process is about to exit
	Fatal
	//skip the file sink
	NotFile
)

var allBits = []Flag{EndUser, Fatal, NotFile}

func (f Flag) MarshalJSON() ([]byte, error) { return json.Marshal(f.String()) }

func (f Flag) String() string {
	switch f {
	case NA:
		return ""
	case EndUser:
		return "user"
	case Fatal:
		return "fatal"
	case NotFile:
		return "not file"
	}
	var names []string
	rest := f
	for _, bit := range allBits {
		if f&bit != 0 {
			names = append(names, bit.String())
			rest &^= bit
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", int(rest)))
	}
	return strings.Join(names, "|")
}
