// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package testlog

import (
	"os/exec"
	"strings"
	"sync"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// Key identifies a command line in a CmdMap.
type Key string

// CmdKey builds the Key for an argv.
func CmdKey(args ...string) Key { return Key(strings.Join(args, "|") + "|") }

// Result is what a hijacked command returns.
type Result struct {
	Res     string
	Success bool
}

// HijackerData is one CmdMap entry.
type HijackerData struct {
	Result   Result
	RunCount int  //number of times the command was invoked
	NoRun    bool //if true, return Result without running anything
}

// CmdMap maps command lines to canned results.
type CmdMap map[Key]HijackerData

// UseMappedCmdHijacker replaces log.Cmd. Commands with a NoRun entry return
// the stored Result; anything else is an unexpected command, which fails the
// test and returns failure without executing. Freeze restores log.Cmd.
func (tlog *TstLog) UseMappedCmdHijacker(m CmdMap) {
	var mu sync.Mutex
	log.Cmd = func(cmd *exec.Cmd) (string, bool) {
		mu.Lock()
		defer mu.Unlock()
		key := CmdKey(cmd.Args...)
		log.Logf("Running %v...", cmd.Args)
		data, ok := m[key]
		if !ok || !data.NoRun {
			tlog.t.Errorf("unexpected command %q", cmd.Args)
			return "", false
		}
		data.RunCount++
		m[key] = data
		return data.Result.Res, data.Result.Success
	}
}

// Canned returns a NoRun entry.
func Canned(out string, success bool) HijackerData {
	return HijackerData{NoRun: true, Result: Result{Res: out, Success: success}}
}
