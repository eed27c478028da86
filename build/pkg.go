// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"

	"github.com/magefile/mage/mg"

	"github.com/wongsyrone/truenas-scale-middleware/build/paths"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/common/strs"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/pkgops"
)

/* Env vars
MIDDLEWARE_SRC - middleware checkout the Pkg targets operate on. Defaults to
    src/middlewared under the repo root.
STAGE_DIR - package build root for Pkg.Stage.
DIVERT_LIST - file of paths for Pkg.Divert, one per line.
*/

// install/uninstall steps for a middleware checkout
type Pkg mg.Namespace

func src() *pkgops.Source {
	log.AddConsoleLog(0)
	log.FlushMemLog()
	return pkgops.NewSource(paths.MiddlewareSrc)
}

func (Pkg) StopService() error  { return src().StopService() }
func (Pkg) StartService() error { return src().StartService() }
func (Pkg) Clean() error        { return src().Clean() }
func (Pkg) Install() error      { return src().Install() }
func (Pkg) InstallTest() error  { return src().InstallTest() }
func (Pkg) Migrate() error      { return src().Migrate() }

// stop, install, migrate, start
func (Pkg) Reinstall() error { return src().Reinstall() }

// install and migrate without touching services
func (Pkg) ReinstallContainer() error { return src().ReinstallContainer() }

// copy the overlay trees into the package build root
func (Pkg) Stage(ctx context.Context) error {
	staged, err := pkgops.Stage(paths.StageTrees, paths.StageDir)
	fmt.Printf("staged %d files in %s\n", len(staged), paths.StageDir)
	return err
}

// divert the files listed in DIVERT_LIST away from their owning packages
func (Pkg) Divert(ctx context.Context) error {
	src()
	return pkgops.DivertFromList(strs.MiddlewarePackage(), paths.DivertList)
}
