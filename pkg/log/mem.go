// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

// memLog keeps entries in memory so they can be replayed into sinks added
// later, e.g. a file log opened once the command line has been parsed.
type memLog struct {
	entries []LogEntry
	next    StackableLogger
}

var _ StackableLogger = (*memLog)(nil)

func (ml *memLog) AddEntry(e LogEntry) {
	ml.entries = append(ml.entries, e)
	if ml.next != nil {
		ml.next.AddEntry(e)
	}
}

func (ml *memLog) ForwardTo(sl StackableLogger) {
	if ml.next != nil && sl != nil {
		panic("next already set")
	}
	ml.next = sl
}

const MemLogIdent = "memLog"

func (ml *memLog) Ident() string         { return MemLogIdent }
func (ml *memLog) Next() StackableLogger { return ml.next }

func (ml *memLog) Finalize() {
	ml.entries = nil
	if ml.next != nil {
		ml.next.Finalize()
	}
}

func (ml *memLog) Entries() []LogEntry { return ml.entries }

// StoredEntries returns a copy of everything held by the memLog, if any.
func StoredEntries() []LogEntry {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	ml, ok := findInStack(MemLogIdent).(*memLog)
	if !ok {
		return nil
	}
	return append([]LogEntry(nil), ml.Entries()...)
}

// FlushMemLog drops the memLog once real sinks are in place, so a long run
// does not accumulate entries.
func FlushMemLog() { RemoveLogger(MemLogIdent) }
