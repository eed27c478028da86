// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package status can be used to query service status, stop/start services, etc.
// Shells out to 'systemctl'. Defaults to the system's service manager; use
// UserContext() for user services.
package status

import (
	"fmt"
	"io/ioutil"
	"os/exec"
	"strings"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// Systemctl is the command used; a variable so installs without it in PATH
// can point elsewhere.
var Systemctl = "systemctl"

// ProcInitCmdline is checked by IsSystemd.
var ProcInitCmdline = "/proc/1/cmdline"

// Methods called on this operate in system context.
func SystemContext() (ctx sysdCtx) {
	return
}

// Methods called on this operate in user context.
func UserContext() (ctx sysdCtx) {
	ctx.user = true
	return
}

// True if systemctl reports service is active.
func IsActive(service string) bool { return SystemContext().IsActive(service) }
func (ctx sysdCtx) IsActive(service string) bool {
	return ctx.run("is-active", "-q", service) == nil
}

// True if systemctl reports service is failed.
func IsFailed(service string) bool { return SystemContext().IsFailed(service) }
func (ctx sysdCtx) IsFailed(service string) bool {
	return ctx.run("is-failed", "-q", service) == nil
}

// Start a service, returning any error.
func Start(service string) error { return SystemContext().Start(service) }
func (ctx sysdCtx) Start(service string) error {
	return ctx.run("start", service)
}

// Stop a service, returning any error.
func Stop(service string) error { return SystemContext().Stop(service) }
func (ctx sysdCtx) Stop(service string) error {
	return ctx.run("stop", service)
}

// Restart a service, returning any error.
func Restart(service string) error { return SystemContext().Restart(service) }
func (ctx sysdCtx) Restart(service string) error {
	return ctx.run("restart", service)
}

// Reload unit files after packages add or remove them.
func DaemonReload() error { return SystemContext().DaemonReload() }
func (ctx sysdCtx) DaemonReload() error {
	return ctx.run("daemon-reload")
}

// List any services that are failed.
func Failed() []string { return SystemContext().Failed() }
func (ctx sysdCtx) Failed() (list []string) {
	out, ok := log.Cmd(exec.Command(Systemctl, ctx.arg(), "--failed", "--no-legend", "--plain"))
	if !ok {
		return nil
	}
	for _, l := range strings.Split(out, "\n") {
		f := strings.Fields(l)
		if len(f) > 0 {
			list = append(list, f[0])
		}
	}
	return
}

// Is the current init system systemd?
func IsSystemd() bool {
	data, err := ioutil.ReadFile(ProcInitCmdline)
	if err != nil {
		log.Logf("error determining init system: %s", err)
	}
	return strings.Contains(string(data), "systemd")
}

type sysdCtx struct {
	user bool
}

func (ctx sysdCtx) arg() (ctxArg string) {
	if ctx.user {
		ctxArg = "--user"
		return
	}
	ctxArg = "--system"
	return
}

func (ctx sysdCtx) run(args ...string) error {
	cmd := exec.Command(Systemctl, append([]string{ctx.arg()}, args...)...)
	if _, ok := log.Cmd(cmd); !ok {
		return fmt.Errorf("%s failed", strings.Join(cmd.Args, " "))
	}
	return nil
}
