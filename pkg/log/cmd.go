// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"bytes"
	"os/exec"
	"strings"
)

// CommandFunc runs cmd and returns its stdout. success is false if the
// command could not be started or exited non-zero.
type CommandFunc func(cmd *exec.Cmd) (res string, success bool)

// Cmd runs external commands (zfs, zpool, systemctl, ...). Everything that
// shells out goes through it so tests can substitute results; see
// testlog.UseMappedCmdHijacker.
var Cmd CommandFunc = DefaultCmd

// DefaultCmd runs cmd, capturing stdout. Stderr is only logged, and only on
// failure, so that tools printing warnings there don't corrupt parsed output.
func DefaultCmd(cmd *exec.Cmd) (res string, success bool) {
	Logf("Running %v...", cmd.Args)
	var stderr bytes.Buffer
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}
	out, err := cmd.Output()
	if err == nil {
		return string(out), true
	}
	Logf("Running %v: error %s\nstdout:\n%s\nstderr:\n%s", cmd.Args, err,
		string(out), strings.TrimSpace(stderr.String()))
	return "", false
}
