// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	fp "path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rjeczalik/notify"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

var (
	// UpdateGrub regenerates grub.cfg.
	UpdateGrub = "update-grub"
	// quiet is how long /boot must be unchanged before regenerating, so
	// that a kernel package installing several files causes one run.
	quiet = 3 * time.Second
)

func watch(dirs []string) error {
	if len(dirs) == 0 {
		dirs = []string{"/boot"}
	}
	events := make(chan notify.EventInfo, 16)
	for _, d := range dirs {
		if err := notify.Watch(d, events, notify.Create, notify.Remove, notify.Rename, notify.Write); err != nil {
			notify.Stop(events)
			return err
		}
		log.Msgf("watching %s", d)
	}
	defer notify.Stop(events)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	watchLoop(ctx, events, quiet, regenerate)
	return nil
}

// watchLoop calls regen once events have stopped arriving for the quiet
// period. Events for files that cannot affect the menu are ignored.
func watchLoop(ctx context.Context, events <-chan notify.EventInfo, quiet time.Duration, regen func()) {
	timer := time.NewTimer(quiet)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ei := <-events:
			if !relevant(ei.Path()) {
				continue
			}
			log.Logf("%s: %s", ei.Event(), ei.Path())
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(quiet)
			pending = true
		case <-timer.C:
			pending = false
			regen()
		}
	}
}

// relevant reports whether a change to path may change the generated menu.
func relevant(path string) bool {
	base := fp.Base(path)
	if strings.HasPrefix(base, "grub") || strings.HasSuffix(base, ".cfg") || strings.HasSuffix(base, ".cfg.new") {
		return false
	}
	for _, pfx := range []string{"vmlinuz-", "kernel-", "initrd", "initramfs", "config-", "System.map-"} {
		if strings.HasPrefix(base, pfx) {
			return true
		}
	}
	return false
}

func regenerate() {
	log.Msgf("boot files changed, running %s", UpdateGrub)
	if _, ok := log.Cmd(exec.Command(UpdateGrub)); !ok {
		log.Msgf("%s failed", UpdateGrub)
	}
}
