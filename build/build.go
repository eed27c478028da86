// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build mage
// +build mage

/*
 build file for mage build system
 list tgts with
go run magerunner.go -d build -l

 build tgt with
go run magerunner.go -d build tgt
*/

package main

import (
	"context"
	"fmt"
	"os"
	fp "path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/magefile/mage/target"

	"github.com/wongsyrone/truenas-scale-middleware/build/paths"
)

type Bins mg.Namespace

// all commands, into the work dir
func (Bins) All(ctx context.Context) error {
	mg.CtxDeps(ctx, workdir)
	apps, err := paths.Pkglist(paths.Cmds...)
	if err != nil {
		return err
	}
	return buildeach(nil, apps...)
}

// static grub helper, for installing into /etc/grub.d
func (Bins) Grub(ctx context.Context) error {
	mg.CtxDeps(ctx, workdir)
	pkg := paths.ImportPath + "/cmd/truenas-grub"
	rebuild, err := target.Dir(paths.GrubBin, fp.Join(paths.RepoRoot, "cmd/truenas-grub"),
		fp.Join(paths.RepoRoot, "pkg"))
	if err != nil {
		return err
	}
	if !rebuild {
		fmt.Println("skipping build of", pkg)
		return nil
	}
	env := map[string]string{"CGO_ENABLED": "0"}
	return build(env, "-o", paths.GrubBin, pkg)
}

// build go code with desired flags
var build func(env map[string]string, args ...string) error

func init() {
	build = RunWCmd(nil, "go", "build", "-trimpath",
		"-ldflags", os.ExpandEnv("-X 'main.buildId=${BUILD_INFO}' -s -w"))
}

// sh.RunCmd modified to call RunWith
func RunWCmd(env map[string]string, cmd string, args ...string) func(env2 map[string]string, args ...string) error {
	return func(env2 map[string]string, args2 ...string) error {
		var cenv map[string]string
		if env == nil {
			cenv = env2
		} else {
			cenv = env
			for k, v := range env2 {
				cenv[k] = v
			}
		}
		return sh.RunWith(cenv, cmd, append(args, args2...)...)
	}
}

// like build, but outputs to work dir
func buildeach(env map[string]string, pkgs ...string) error {
	for _, p := range pkgs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out := fp.Join(paths.WorkDir, fp.Base(p))
		if err := build(env, "-o", out, p); err != nil {
			return err
		}
	}
	return nil
}

func workdir() {
	//ignore errors
	_ = os.MkdirAll(paths.WorkDir, 0755)
}
