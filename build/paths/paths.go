// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package paths

import (
	"os"
	"os/exec"
	fp "path/filepath"
	"strings"

	"github.com/magefile/mage/sh"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

//paths shared by mage targets, as well as path-related utilty functions

var (
	RepoRoot, ImportPath, WorkDir string

	// GoDirs - patterns for go test / go list
	GoDirs []string

	// Cmds - commands built by Bins.All
	Cmds []string

	// GrubBin is the grub.d helper binary
	GrubBin string

	// MiddlewareSrc is the checkout the Pkg targets operate on
	MiddlewareSrc string

	// StageTrees are copied, in order, into StageDir by Pkg.Stage
	StageTrees []string
	StageDir   string

	// DivertList names the paths Pkg.Divert diverts, one per line
	DivertList string
)

func init() {
	var err error
	RepoRoot, err = repoRoot()
	if err != nil {
		log.Logf("Cannot determine repo root.")
	}
	WorkDir, err = workDir()
	if err != nil {
		log.Logf("Cannot determine workdir.")
	}

	cmd := exec.Command("go", "list", "-m")
	cmd.Dir = RepoRoot
	out, err := cmd.Output()
	if err != nil {
		log.Logf("Cannot determine import path.")
	}
	ImportPath = strings.TrimSpace(string(out))

	GoDirs = []string{"./cmd/...", "./pkg/..."}
	Cmds = []string{ImportPath + "/cmd/..."}
	GrubBin = fp.Join(WorkDir, "truenas-grub")

	MiddlewareSrc = envOr("MIDDLEWARE_SRC", fp.Join(RepoRoot, "src/middlewared"))
	StageDir = envOr("STAGE_DIR", fp.Join(WorkDir, "stage"))
	DivertList = envOr("DIVERT_LIST", fp.Join(RepoRoot, "src/freenas/debian/diversions"))
	StageTrees = []string{
		fp.Join(RepoRoot, "src/freenas"),
		fp.Join(RepoRoot, "src/middlewared/debian/overlay"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// expands pattern via go list - note that pattern isn't a shell glob
func Pkglist(patterns ...string) ([]string, error) {
	args := []string{"list"}
	args = append(args, patterns...)
	out, err := sh.Output("go", args...)
	if err != nil {
		return nil, err
	}
	return strings.Split(out, "\n"), nil
}
