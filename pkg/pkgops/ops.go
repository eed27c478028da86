// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package pkgops sequences the steps for installing the middleware from a
// source checkout and for building its Debian package: service control,
// setup.py invocations, database migration, file diversions and staging.
package pkgops

import (
	"fmt"
	"os"
	"os/exec"
	fp "path/filepath"
	"strings"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/common/strs"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/systemd/status"
)

// Source is a middleware source checkout.
type Source struct {
	Dir     string //directory containing setup.py
	Python  string
	Service string
	// UnitDirs are searched for <Service>.service; the service is only
	// stopped or started if the unit is installed.
	UnitDirs []string
	// MigrateCmd is the migration command installed by the package.
	MigrateCmd string
}

// NewSource returns a Source with the usual paths.
func NewSource(dir string) *Source {
	return &Source{
		Dir:        dir,
		Python:     "/usr/bin/python3",
		Service:    strs.MiddlewareService(),
		UnitDirs:   []string{"/etc/systemd/system", "/lib/systemd/system"},
		MigrateCmd: "migrate",
	}
}

// cleaned by Clean, relative to Dir
var buildDirs = []string{"build", "dist"}

// alembic migration scripts, relative to Dir
const migrationsDir = "middlewared/alembic/versions"

func (s *Source) run(args ...string) error {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = s.Dir
	if _, ok := log.Cmd(cmd); !ok {
		return fmt.Errorf("%s failed", strings.Join(args, " "))
	}
	return nil
}

func (s *Source) unitInstalled() bool {
	for _, d := range s.UnitDirs {
		if _, err := os.Stat(fp.Join(d, s.Service+".service")); err == nil {
			return true
		}
	}
	log.Msgf("%s service not found", s.Service)
	return false
}

func (s *Source) StopService() error {
	if !s.unitInstalled() {
		return nil
	}
	return status.Stop(s.Service)
}

func (s *Source) StartService() error {
	if !s.unitInstalled() {
		return nil
	}
	return status.Start(s.Service)
}

// Clean removes build output.
func (s *Source) Clean() error {
	err := s.run(s.Python, "setup.py", "clean")
	rm := append([]string(nil), buildDirs...)
	if eggs, _ := fp.Glob(fp.Join(s.Dir, "*.egg-info")); len(eggs) > 0 {
		for _, e := range eggs {
			rm = append(rm, fp.Base(e))
		}
	}
	for _, d := range rm {
		if rerr := os.RemoveAll(fp.Join(s.Dir, d)); rerr != nil {
			err = rerr
		}
	}
	return err
}

func (s *Source) Install() error {
	return s.run(s.Python, "setup.py", "install", "--single-version-externally-managed", "--record=/dev/null")
}

// InstallTest installs the test helpers.
func (s *Source) InstallTest() error {
	return s.run(s.Python, "setup_test.py", "install", "--single-version-externally-managed", "--record=/dev/null")
}

// Migrate runs database migrations, unless this is a git checkout with no
// uncommitted changes to the migration scripts.
func (s *Source) Migrate() error {
	if !s.migrationsChanged() {
		log.Msgf("Migrations skipped")
		return nil
	}
	return s.run(s.MigrateCmd)
}

func (s *Source) migrationsChanged() bool {
	if _, err := os.Stat(fp.Join(s.Dir, ".git")); err != nil {
		return true
	}
	cmd := exec.Command("git", "status", "--porcelain", "--", migrationsDir)
	cmd.Dir = s.Dir
	out, ok := log.Cmd(cmd)
	if !ok {
		return true
	}
	return strings.TrimSpace(out) != ""
}

// Reinstall replaces the running middleware with the checkout.
func (s *Source) Reinstall() error {
	return s.sequence(s.StopService, s.Install, s.Migrate, s.StartService)
}

// ReinstallContainer is Reinstall for containers, where the service manager
// is not in charge of the middleware.
func (s *Source) ReinstallContainer() error {
	return s.sequence(s.Install, s.Migrate)
}

// sequence runs steps until one fails.
func (s *Source) sequence(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Targets maps subcommand names to operations.
func (s *Source) Targets() map[string]func() error {
	return map[string]func() error{
		"stop_service":        s.StopService,
		"start_service":       s.StartService,
		"clean":               s.Clean,
		"install":             s.Install,
		"install_test":        s.InstallTest,
		"migrate":             s.Migrate,
		"reinstall":           s.Reinstall,
		"reinstall_container": s.ReinstallContainer,
	}
}
