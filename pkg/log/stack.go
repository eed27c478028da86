// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"fmt"
	"sync"
	"time"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/flags"
)

// StackableLogger is one sink in a chain of sinks. Each sink handles an entry
// and then passes it to the next one.
//
// Callers should use the package-level functions (Logf, Msgf, Fatalf); this
// interface matters only to sink implementations and tests.
type StackableLogger interface {
	// AddEntry handles e, then calls AddEntry on Next() if non-nil.
	AddEntry(e LogEntry)
	// ForwardTo chains another logger after this one. Setting it twice is an
	// error, unless the argument is nil.
	ForwardTo(StackableLogger)
	// Ident identifies the type of sink; no two sinks in a stack may share one.
	Ident() string
	// Next returns the next sink or nil.
	Next() StackableLogger
	// Finalize flushes and releases resources, then finalizes Next().
	Finalize()
}

// guarded by logStackMtx
var logStack StackableLogger = &memLog{}

var logStackMtx sync.Mutex

// EDuplicate is returned by AddLogger when a sink of the same type is already
// in the stack.
type EDuplicate struct {
	Ident string
}

func (e *EDuplicate) Error() string {
	return fmt.Sprintf("duplicate logger %s in stack", e.Ident)
}

// Finalize flushes and closes every sink.
func Finalize() {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	logStack.Finalize()
}

// DefaultLogStack finalizes the current stack and replaces it with a lone
// memLog.
func DefaultLogStack() { NewLogStack(&memLog{}) }

// NewLogStack finalizes the current stack and makes newLog the only sink.
func NewLogStack(newLog StackableLogger) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	if logStack != nil {
		logStack.Finalize()
	}
	logStack = newLog
}

// AddLogger pushes sl on top of the stack. If replay is true, entries already
// held by a memLog are fed to sl first.
func AddLogger(sl StackableLogger, replay bool) error {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	for l := logStack; l != nil; l = l.Next() {
		if l.Ident() == sl.Ident() {
			return &EDuplicate{Ident: sl.Ident()}
		}
	}
	if replay {
		if _, isMem := sl.(*memLog); !isMem {
			if ml, ok := findInStack(MemLogIdent).(*memLog); ok {
				for _, e := range ml.Entries() {
					sl.AddEntry(e)
				}
			}
		}
	}
	sl.ForwardTo(logStack)
	logStack = sl
	return nil
}

// RemoveLogger finalizes and unlinks the sink with the given ident.
func RemoveLogger(id string) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	var prev StackableLogger
	for l := logStack; l != nil; l = l.Next() {
		if l.Ident() != id {
			prev = l
			continue
		}
		next := l.Next()
		l.ForwardTo(nil)
		l.Finalize()
		if prev == nil {
			logStack = next
		} else {
			prev.ForwardTo(nil)
			prev.ForwardTo(next)
		}
		if logStack == nil {
			logStack = &memLog{}
		}
		return
	}
}

// LogEntry is the record passed between sinks.
type LogEntry struct {
	Time  time.Time `json:"t"`
	Msg   string
	Args  []interface{} `json:",omitempty"`
	Flags flags.Flag    `json:",omitempty"`
}

// FlaggedLogf is the backend of Logf, Msgf and Fatalf.
func FlaggedLogf(opts flags.Flag, f string, va ...interface{}) {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	logStack.AddEntry(LogEntry{
		Time:  time.Now(),
		Flags: opts,
		Msg:   f,
		Args:  va,
	})
}

func (le *LogEntry) String() string {
	var div string
	switch {
	case le.Flags&flags.Fatal != 0:
		div = "!! "
	case le.Flags&flags.EndUser != 0:
		div = "-- "
	case le.Flags == flags.NA:
		div = "*- "
	default:
		div = "?? "
	}
	pfx := div + le.Time.Format(TimestampLayout) + " "
	if logPrefix != "" {
		pfx += logPrefix + ": "
	}
	return pfx + fmt.Sprintf(le.Msg, le.Args...)
}

// InStack reports whether a sink with the given ident is in the stack.
func InStack(id string) bool {
	logStackMtx.Lock()
	defer logStackMtx.Unlock()
	return findInStack(id) != nil
}

// caller must hold logStackMtx
func findInStack(id string) StackableLogger {
	for l := logStack; l != nil; l = l.Next() {
		if l.Ident() == id {
			return l
		}
	}
	return nil
}
