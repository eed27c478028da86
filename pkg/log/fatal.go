// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"os"
	"strings"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/flags"
)

// FailAction describes what Fatalf does after logging. The entry itself is
// always logged first.
type FailAction struct {
	// Prefix added to the message.
	MsgPfx string
	// Terminator ends the process (or, in tests, doesn't). Sinks are already
	// finalized when it runs.
	Terminator func()
}

var fatalAction = DefaultFatal

// SetFatalAction replaces the action taken by Fatalf.
func SetFatalAction(act FailAction) { fatalAction = act }

// DefaultFatal exits with status 1.
var DefaultFatal = FailAction{Terminator: DefaultFatalAction}

func DefaultFatalAction() {
	if strings.HasSuffix(os.Args[0], ".test") {
		panic("generic fatal called from test")
	}
	os.Exit(1)
}

// Fatalf logs and then runs the configured FailAction. With the default
// action it does not return.
func Fatalf(f string, va ...interface{}) {
	if !InStack(ConsoleLogIdent) && !LoggingToFile() && InStack(MemLogIdent) {
		//nothing would ever see this otherwise
		AddConsoleLog(flags.NA)
	}
	FlaggedLogf(flags.Fatal, fatalAction.MsgPfx+f, va...)
	Finalize()
	fatalAction.Terminator()
}
