// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package pkgops

import (
	"fmt"
	"os"
	"os/exec"
	fp "path/filepath"
	"strings"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/fileutil"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

var DpkgDivert = "dpkg-divert"

// maximum number of paths read from a diversion list
const maxDiversions = 1000

// Diverted reports whether path is already diverted.
func Diverted(path string) (bool, error) {
	out, ok := log.Cmd(exec.Command(DpkgDivert, "--list", path))
	if !ok {
		return false, fmt.Errorf("dpkg-divert --list %s failed", path)
	}
	return strings.TrimSpace(out) != "", nil
}

// Divert moves files owned by other packages out of the way of pkg, so its
// own versions can be installed. Paths that are already diverted are left
// alone.
func Divert(pkg string, paths []string) error {
	for _, p := range paths {
		done, err := Diverted(p)
		if err != nil {
			return err
		}
		if done {
			log.Logf("%s already diverted", p)
			continue
		}
		if _, ok := log.Cmd(exec.Command(DpkgDivert, "--package", pkg, "--add", "--rename",
			"--divert", p+"."+pkg, p)); !ok {
			return fmt.Errorf("diverting %s failed", p)
		}
	}
	return nil
}

// DivertFromList is Divert with paths read from a file, one per line.
func DivertFromList(pkg, list string) error {
	paths, err := fileutil.ReadPathList(list, maxDiversions)
	if err != nil {
		return err
	}
	return Divert(pkg, paths)
}

// Stage copies each source tree into dest, the package build root. Later
// trees overwrite files from earlier ones. Returns staged paths relative to
// dest, each once, in the order first staged.
func Stage(srcTrees []string, dest string) (staged []string, err error) {
	if err = os.MkdirAll(dest, 0755); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, src := range srcTrees {
		fi, err := os.Stat(src)
		if err != nil {
			return staged, err
		}
		if !fi.IsDir() {
			return staged, fmt.Errorf("%s: not a directory", src)
		}
		copied, err := fileutil.CopyTree(src, dest)
		for _, c := range copied {
			if !seen[c] {
				seen[c] = true
				staged = append(staged, c)
			}
		}
		if err != nil {
			return staged, fmt.Errorf("staging %s: %w", fp.Base(src), err)
		}
	}
	return staged, nil
}
