// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package paths

import (
	"io/ioutil"
	"os"
	fp "path/filepath"
	"testing"
)

func TestFindUp(t *testing.T) {
	root := t.TempDir()
	deep := fp.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(fp.Join(root, "a", "go.mod"), []byte("module x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := findUp(deep, "go.mod")
	if err != nil {
		t.Fatal(err)
	}
	if got != fp.Join(root, "a") {
		t.Errorf("got %s", got)
	}
	if _, err = findUp(deep, "no-such-file.xyz"); err == nil {
		t.Error("expected error")
	}
}
