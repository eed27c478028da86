// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"os"
	fp "path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rjeczalik/notify"
	"github.com/stretchr/testify/require"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/bootmenu"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/grubcfg"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/testlog"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/zfs"
)

const (
	prod = "6.6.44-production+truenas"
	dbg  = "6.6.44-debug+truenas"
)

// fakePool replaces discovery with one active environment holding a
// production and a debug kernel, and the stored preference with pref.
func fakePool(t *testing.T, pref bootmenu.Preference) {
	t.Helper()
	root := t.TempDir()
	for _, f := range []string{"vmlinuz-" + prod, "vmlinuz-" + dbg, "initrd.img-" + prod, "initrd.img-" + dbg} {
		require.NoError(t, os.MkdirAll(fp.Join(root, "boot"), 0755))
		require.NoError(t, ioutil.WriteFile(fp.Join(root, "boot", f), []byte("x"), 0644))
	}
	oldDiscover, oldPref := discover, loadPreference
	t.Cleanup(func() { discover, loadPreference = oldDiscover, oldPref })
	discover = func(pool string, m *zfs.Mounter) ([]*bootmenu.BootEnvironment, bootmenu.KernelSet, error) {
		require.Equal(t, "boot-pool", pool)
		be := &bootmenu.BootEnvironment{Dataset: pool + "/ROOT/24.10", Active: true, Root: root}
		found, err := bootmenu.FindKernels(root)
		return []*bootmenu.BootEnvironment{be}, bootmenu.KernelSet{be.Dataset: found}, err
	}
	loadPreference = func(context.Context, string) bootmenu.Preference { return pref }
}

func testCfg() *grubcfg.Config {
	cfg := grubcfg.Defaults()
	cfg.Distributor = "TrueNAS"
	cfg.FS = "zfs"
	cfg.Device = "boot-pool"
	cfg.BootPool = "boot-pool"
	return cfg
}

func TestMkconfig(t *testing.T) {
	for _, tc := range []struct {
		name  string
		debug bool
		force bool
		want  string
	}{
		{"production", false, false, prod},
		{"debug", true, false, dbg},
		{"forced", true, true, prod},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tlog := testlog.NewTestLog(t, true, false)
			defer tlog.Freeze()
			fakePool(t, bootmenu.Preference{Debug: tc.debug})
			cfg := testCfg()
			cfg.ForceProduction = tc.force
			var buf bytes.Buffer
			require.NoError(t, mkconfig(&buf, cfg))
			out := buf.String()
			simple := out[:strings.Index(out, "submenu ")]
			require.Contains(t, simple, "vmlinuz-"+tc.want+" root=ZFS=boot-pool/ROOT/24.10")
			require.Len(t, tlog.Filter(testlog.FilterContains("Found linux image")), 2)
		})
	}
}

func TestMkconfigListFails(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	old := discover
	defer func() { discover = old }()
	discover = func(string, *zfs.Mounter) ([]*bootmenu.BootEnvironment, bootmenu.KernelSet, error) {
		return nil, nil, zfs.EListing
	}
	var buf bytes.Buffer
	err := mkconfig(&buf, testCfg())
	require.True(t, errors.Is(err, zfs.EListing))
	require.Zero(t, buf.Len())
}

func TestReport(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	fakePool(t, bootmenu.Preference{})
	menu, release, err := plan(testCfg())
	require.NoError(t, err)
	defer release()
	var buf bytes.Buffer
	report(&buf, menu)
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "boot-pool/ROOT/24.10 (active)\n"), out)
	require.Contains(t, out, " * "+prod+" [production]")
	require.Contains(t, out, "   "+dbg+" [debug]")
	//not real kernel images
	require.Contains(t, out, "build: ")
	require.Contains(t, out, "initrd: initrd.img-"+prod+", 1 B, unknown, -1 files")

	buf.Reset()
	report(&buf, &bootmenu.Menu{})
	require.Equal(t, "no bootable environments\n", buf.String())
}

func TestRelevant(t *testing.T) {
	for path, want := range map[string]bool{
		"/boot/vmlinuz-" + prod:     true,
		"/boot/initrd.img-" + prod:  true,
		"/boot/config-" + prod:      true,
		"/boot/amd-ucode.img":       false,
		"/boot/grub/grub.cfg":       false,
		"/boot/grub/grub.cfg.new":   false,
		"/boot/efi":                 false,
		"/boot/System.map-" + prod:  true,
		"/boot/initramfs-genkernel": true,
	} {
		require.Equal(t, want, relevant(path), path)
	}
}

type fakeEvent string

func (e fakeEvent) Event() notify.Event { return notify.Create }
func (e fakeEvent) Path() string        { return string(e) }
func (e fakeEvent) Sys() interface{}    { return nil }

func TestWatchLoop(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	events := make(chan notify.EventInfo)
	runs := make(chan struct{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watchLoop(ctx, events, 50*time.Millisecond, func() { runs <- struct{}{} })
		close(done)
	}()

	//a burst yields one run; irrelevant files none
	events <- fakeEvent("/boot/vmlinuz-" + prod)
	events <- fakeEvent("/boot/initrd.img-" + prod)
	events <- fakeEvent("/boot/config-" + prod)
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("no regeneration")
	}
	events <- fakeEvent("/boot/grub/grub.cfg.new")
	select {
	case <-runs:
		t.Fatal("unexpected regeneration")
	case <-time.After(200 * time.Millisecond):
	}
	cancel()
	<-done
	require.Empty(t, runs)
}
