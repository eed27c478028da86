// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package log

import (
	"os/exec"
	"testing"
)

func TestDefaultCmd(t *testing.T) {
	DefaultLogStack()
	defer DefaultLogStack()
	res, ok := DefaultCmd(exec.Command("sh", "-c", "echo out; echo err >&2"))
	if !ok {
		t.Fatal("command failed")
	}
	if res != "out\n" {
		t.Errorf("stderr must not be mixed into result, got %q", res)
	}
	if _, ok = DefaultCmd(exec.Command("sh", "-c", "exit 3")); ok {
		t.Error("want failure")
	}
}
