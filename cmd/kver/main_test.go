// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"bytes"
	"io/ioutil"
	fp "path/filepath"
	"strings"
	"testing"
)

const desc = "6.6.44-production+truenas (root@tnbuilder) (gcc) #1 SMP PREEMPT_DYNAMIC Tue Aug 13 15:38:01 UTC 2024"

func TestDescribe(t *testing.T) {
	img := make([]byte, 0x1000)
	img[510], img[511] = 0x55, 0xaa
	copy(img[514:], "HdrS")
	img[526], img[527] = 0x00, 0x02 //0x200 + 0x200
	copy(img[0x400:], desc+"\000")
	path := fp.Join(t.TempDir(), "vmlinuz")
	if err := ioutil.WriteFile(path, img, 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := describe(&buf, path, true); err != nil {
		t.Fatal(err)
	}
	want := path + ": 6.6.44-production+truenas #1 built 2024-08-13T15:38:01Z\n"
	if buf.String() != want {
		t.Errorf("want %q\n got %q", want, buf.String())
	}

	buf.Reset()
	if err := describe(&buf, path, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"LocalVer": "production+truenas"`) {
		t.Errorf("got %s", buf.String())
	}

	if err := describe(&buf, fp.Join(t.TempDir(), "missing"), false); err == nil {
		t.Error("want error for missing kernel")
	}
}
