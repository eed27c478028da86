// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package log is the diagnostic logger shared by the boot and packaging
// helpers. Several sinks can be stacked: memory (the default), the console
// (stderr) and a file.
//
// Helpers run by grub-mkconfig write their real output on stdout, so no sink
// in this package ever writes there.
package log

import (
	"fmt"
	"os"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/flags"
)

var logPrefix string

// SetPrefix sets the prefix used for log file names and console lines. Must
// be set before calling AddFileLog().
func SetPrefix(pfx string) { logPrefix = pfx }

// GetPrefix returns the prefix set by SetPrefix.
func GetPrefix() string { return logPrefix }

// Msgf is for short messages meant for whoever is running the tool.
func Msgf(f string, va ...interface{}) { FlaggedLogf(flags.EndUser, f, va...) }

// See Msgf
func Msg(message string) { Msgf("%s", message) }

// Logf is for technical detail. Never shown when the console only accepts
// flags.EndUser.
func Logf(f string, va ...interface{}) { FlaggedLogf(flags.NA, f, va...) }

// See Logf
func Logln(va ...interface{}) { Logf("%s", fmt.Sprint(va...)) }

// See Logf
func Log(message string) { Logf("%s", message) }

// DumpStderr writes everything held by a memLog in the stack to stderr. No-op
// without a memLog.
func DumpStderr() {
	for _, e := range StoredEntries() {
		fmt.Fprintln(os.Stderr, e.String())
	}
}
