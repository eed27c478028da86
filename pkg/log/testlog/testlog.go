// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package testlog captures the output of pkg/log during tests and can
// replace log.Cmd, so code that shells out to zfs, zpool or systemctl can be
// exercised without those tools.
package testlog

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/flags"
)

// TstLog is a log.StackableLogger. Create one per test with NewTestLog.
type TstLog struct {
	t             *testing.T
	Buf           *bytes.Buffer //if non-nil, entries go here instead of t.Log
	MsgCount      int
	LogCount      int
	FatalCount    int
	FatalIsNotErr bool //if true, Fatalf does not fail the test
	frozen        bool
	stderr        bool
	mu            sync.Mutex
}

// NewTestLog installs a TstLog as the only sink. With bufferLog, entries are
// kept in Buf (one per line, prefixed MSG:/LOG:/FATAL:) for inspection.
func NewTestLog(t *testing.T, bufferLog, stderr bool) *TstLog {
	tlog := &TstLog{t: t, stderr: stderr}
	if bufferLog {
		tlog.Buf = new(bytes.Buffer)
	}
	log.NewLogStack(tlog)
	log.SetFatalAction(log.FailAction{Terminator: func() {}})
	return tlog
}

var _ log.StackableLogger = (*TstLog)(nil)

func (tlog *TstLog) AddEntry(e log.LogEntry) {
	tlog.mu.Lock()
	defer tlog.mu.Unlock()
	if tlog.frozen {
		return
	}
	var pfx string
	switch {
	case e.Flags&flags.Fatal != 0:
		pfx = "FATAL:"
		tlog.FatalCount++
	case e.Flags&flags.EndUser != 0:
		pfx = "MSG:"
		tlog.MsgCount++
	default:
		pfx = "LOG:"
		tlog.LogCount++
	}
	line := pfx + fmt.Sprintf(e.Msg, e.Args...)
	if tlog.stderr {
		fmt.Fprintln(os.Stderr, line)
	}
	if e.Flags&flags.Fatal != 0 && !tlog.FatalIsNotErr {
		tlog.t.Errorf("%s", line)
	}
	if tlog.Buf != nil {
		fmt.Fprintln(tlog.Buf, line)
	} else {
		tlog.t.Log(line)
	}
}

const TstLogIdent = "tstLog"

func (*TstLog) Ident() string                   { return TstLogIdent }
func (*TstLog) Next() log.StackableLogger       { return nil }
func (*TstLog) Finalize()                       {}
func (*TstLog) ForwardTo(_ log.StackableLogger) {}

// Freeze stops recording and restores the default log stack, fatal action
// and command runner. Call at the end of each test.
func (tlog *TstLog) Freeze() {
	tlog.mu.Lock()
	if tlog.frozen {
		tlog.mu.Unlock()
		return
	}
	tlog.frozen = true
	tlog.mu.Unlock()
	log.DefaultLogStack()
	log.SetFatalAction(log.DefaultFatal)
	log.Cmd = log.DefaultCmd
}

// String returns the buffered log. Only meaningful with bufferLog.
func (tlog *TstLog) String() string {
	tlog.mu.Lock()
	defer tlog.mu.Unlock()
	if tlog.Buf == nil {
		return ""
	}
	return tlog.Buf.String()
}
