// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	"os"
	fp "path/filepath"
	"sort"
	"strings"
)

var kernelGlobs = []string{"boot/vmlinuz-*", "vmlinuz-*", "boot/kernel-*"}

// FindKernels lists kernel images in the filesystem at root. Package manager
// leftovers and other garbage are ignored, as are non-regular files.
func FindKernels(root string) ([]string, error) {
	var found []string
	for _, g := range kernelGlobs {
		m, err := fp.Glob(fp.Join(root, g))
		if err != nil {
			return nil, err
		}
		sort.Strings(m)
		for _, k := range m {
			if isGarbage(k) {
				continue
			}
			if fi, err := os.Stat(k); err != nil || !fi.Mode().IsRegular() {
				continue
			}
			found = append(found, k)
		}
	}
	return found, nil
}

func isGarbage(name string) bool {
	base := fp.Base(name)
	switch {
	case strings.Contains(base, ".dpkg-"),
		strings.HasSuffix(base, ".rpmsave"),
		strings.HasSuffix(base, ".rpmnew"),
		strings.HasSuffix(base, ".sig"),
		strings.HasSuffix(base, ".bak"),
		strings.HasSuffix(base, "~"),
		strings.HasPrefix(base, "README"):
		return true
	}
	return false
}
