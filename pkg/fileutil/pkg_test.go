// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package fileutil

import (
	"errors"
	"io/ioutil"
	"os"
	fp "path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/testlog"
)

// func CopyTree(src, dest string) (copied []string, err error)
func TestCopyTree(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer func() {
		tlog.Freeze()
		if t.Failed() {
			t.Logf("log: %s", tlog.Buf.String())
		}
	}()
	src := t.TempDir()
	dest := fp.Join(t.TempDir(), "stage")
	mustWrite := func(name, content string, mode os.FileMode) {
		p := fp.Join(src, name)
		if err := os.MkdirAll(fp.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := ioutil.WriteFile(p, []byte(content), mode); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("usr/bin/midclt", "#!/bin/sh\n", 0755)
	mustWrite("etc/modprobe.d/truenas.conf", "options zfs zfs_arc_max=0\n", 0644)
	if err := os.Symlink("/usr/bin/midclt", fp.Join(src, "usr/bin/cli")); err != nil {
		t.Fatal(err)
	}

	copied, err := CopyTree(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(copied)
	want := []string{"etc/modprobe.d/truenas.conf", "usr/bin/cli", "usr/bin/midclt"}
	if len(copied) != len(want) {
		t.Fatalf("want %v, got %v", want, copied)
	}
	for i := range want {
		if copied[i] != want[i] {
			t.Errorf("%d: want %s, got %s", i, want[i], copied[i])
		}
	}
	fi, err := os.Stat(fp.Join(dest, "usr/bin/midclt"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0755 {
		t.Errorf("mode %v", fi.Mode())
	}
	link, err := os.Readlink(fp.Join(dest, "usr/bin/cli"))
	if err != nil || link != "/usr/bin/midclt" {
		t.Errorf("link %q %v", link, err)
	}

	//again, over the existing copy
	if _, err = CopyTree(src, dest); err != nil {
		t.Error(err)
	}
}

func TestReadPathList(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	dir := t.TempDir()
	name := fp.Join(dir, "diversions")
	data := "# files replaced by this package\n/usr/lib/os-release\n\n  /etc/issue # login banner\n/etc//issue\n/etc/motd\n/etc/hostname\n"
	if err := ioutil.WriteFile(name, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	paths, err := ReadPathList(name, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/usr/lib/os-release", "/etc/issue", "/etc/motd"}
	if strings.Join(paths, " ") != strings.Join(want, " ") {
		t.Errorf("want %q\n got %q", want, paths)
	}
	if tlog.LogCount != 1 {
		t.Errorf("want 1 log entry for the limit, got %d", tlog.LogCount)
	}

	rel := fp.Join(dir, "relative")
	if err := ioutil.WriteFile(rel, []byte("/etc/motd\netc/issue\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err = ReadPathList(rel, 10); !errors.Is(err, ERelative) {
		t.Errorf("want ERelative, got %v", err)
	}
}
