// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package paths contains locations used by the mage targets.
package paths

import (
	"os"
	fp "path/filepath"
)

// Find repo root - from REPO_ROOT env var, if set. Otherwise search parents
// of the working dir for go.mod and choose the first dir found.
func repoRoot() (string, error) {
	if rr := os.Getenv("REPO_ROOT"); rr != "" {
		return rr, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findUp(wd, "go.mod")
}

func findUp(dir, name string) (string, error) {
	for {
		if _, err := os.Stat(fp.Join(dir, name)); err == nil {
			return dir, nil
		}
		parent := fp.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// Get the working dir location from env BUILD_WORKDIR if set, otherwise use
// a dir adjacent to repo root, so 'go test ./...' doesn't scan it.
func workDir() (string, error) {
	if wd := os.Getenv("BUILD_WORKDIR"); wd != "" {
		return wd, nil
	}
	if RepoRoot == "" {
		return "", os.ErrInvalid
	}
	return fp.Join(fp.Dir(RepoRoot), fp.Base(RepoRoot)+"_work"), nil
}
