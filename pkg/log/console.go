// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"fmt"
	"io"
	"os"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/flags"
)

// ConsoleWriter is where the console sink writes. Stdout is reserved for
// generated output.
var ConsoleWriter io.Writer = os.Stderr

type consoleLog struct {
	flags flags.Flag
	w     io.Writer
	next  StackableLogger
}

var _ StackableLogger = (*consoleLog)(nil)

// AddConsoleLog adds a console sink. With flags.NA everything is printed;
// with flags.EndUser only Msgf/Msg (and fatal) entries are.
func AddConsoleLog(f flags.Flag) {
	_ = AddLogger(&consoleLog{flags: f, w: ConsoleWriter}, true)
}

func (l *consoleLog) AddEntry(e LogEntry) {
	if l.flags == flags.NA || e.Flags&(l.flags|flags.Fatal) != 0 {
		fmt.Fprintln(l.w, e.String())
	}
	if l.next != nil {
		l.next.AddEntry(e)
	}
}

func (l *consoleLog) ForwardTo(sl StackableLogger) {
	if l.next != nil && sl != nil {
		panic("next already set")
	}
	l.next = sl
}

const ConsoleLogIdent = "consoleLog"

func (*consoleLog) Ident() string           { return ConsoleLogIdent }
func (l *consoleLog) Next() StackableLogger { return l.next }

func (l *consoleLog) Finalize() {
	if l.next != nil {
		l.next.Finalize()
	}
}
