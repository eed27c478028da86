// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	"errors"
	"os"
	fp "path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/grubcfg"
)

func TestFindInitrdOrder(t *testing.T) {
	for _, td := range []struct {
		name    string
		version string
		files   []string
		want    string
	}{
		{"debian", "6.1.0", []string{"initrd.img-6.1.0", "initramfs-6.1.0.img"}, "initrd.img-6.1.0"},
		{"fedora", "6.1.0", []string{"initramfs-6.1.0.img", "initrd-6.1.0"}, "initrd-6.1.0"},
		{"gz", "6.1.0", []string{"initrd-6.1.0.gz", "initrd-6.1.0"}, "initrd-6.1.0.gz"},
		{"old exact", "6.1.0.old", []string{"initrd.img-6.1.0.old", "initrd.img-6.1.0"}, "initrd.img-6.1.0.old"},
		{"old alt", "6.1.0.old", []string{"initrd.img-6.1.0"}, "initrd.img-6.1.0"},
		{"genkernel", "6.1.0", []string{"initramfs-genkernel-6.1.0"}, "initramfs-genkernel-6.1.0"},
		{"genkernel arch", "6.1.0", []string{"initramfs-genkernel-x86_64-6.1.0"}, "initramfs-genkernel-x86_64-6.1.0"},
		{"none", "6.1.0", []string{"initrd.img-6.2.0"}, ""},
	} {
		t.Run(td.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range td.files {
				require.NoError(t, os.WriteFile(fp.Join(dir, f), nil, 0644))
			}
			require.Equal(t, td.want, findInitrd(dir, td.version, "x86_64"))
		})
	}
}

func TestEarlyInitrds(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"microcode.cpio", "intel-ucode.img", "custom.img"} {
		require.NoError(t, os.WriteFile(fp.Join(dir, f), nil, 0644))
	}
	cfg := grubcfg.Defaults()
	cfg.EarlyInitrdCustom = []string{"custom.img", "missing.img"}
	require.Equal(t, []string{"intel-ucode.img", "microcode.cpio", "custom.img"}, earlyInitrds(dir, cfg))
}

func TestGrubDir(t *testing.T) {
	root := t.TempDir()
	be := &BootEnvironment{Dataset: "boot-pool/ROOT/24.10", Root: root}
	zfs := grubcfg.Defaults()
	zfs.FS = "zfs"
	ext4 := grubcfg.Defaults()
	ext4.FS = "ext4"

	d, err := grubDir(be, zfs, fp.Join(root, "boot"))
	require.NoError(t, err)
	require.Equal(t, "/ROOT/24.10@/boot", d)

	d, err = grubDir(be, zfs, root)
	require.NoError(t, err)
	require.Equal(t, "/ROOT/24.10@", d)

	d, err = grubDir(be, ext4, fp.Join(root, "boot"))
	require.NoError(t, err)
	require.Equal(t, "/boot", d)

	_, err = grubDir(be, ext4, "/elsewhere/boot")
	require.True(t, errors.Is(err, EOutsideEnv), "%v", err)
}

func TestResolveIn(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{
		"usr/lib/systemd/systemd": "init",
		"lib":                     "->usr/lib",
		"sbin/init":               "->/lib/systemd/systemd",
		"sbin/rel":                "->../lib/systemd/systemd",
		"loop/a":                  "->b",
		"loop/b":                  "->a",
	})
	for _, p := range []string{"/sbin/init", "/sbin/rel", "/lib/systemd/systemd", "/usr/lib/systemd/systemd"} {
		r, err := resolveIn(root, p)
		require.NoError(t, err, p)
		require.Equal(t, "/usr/lib/systemd/systemd", r, p)
	}
	//.. can't climb above the root
	r, err := resolveIn(root, "/../../usr/lib/systemd/systemd")
	require.NoError(t, err)
	require.Equal(t, "/usr/lib/systemd/systemd", r)

	_, err = resolveIn(root, "/loop/a")
	require.True(t, errors.Is(err, ELinkLoop), "%v", err)

	_, err = resolveIn(root, "/sbin/upstart")
	require.True(t, os.IsNotExist(err), "%v", err)
}

func TestInspectRejectsDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(fp.Join(root, "boot/vmlinuz-6.1.0"), 0755))
	img := &KernelImage{
		Version: "6.1.0",
		Path:    fp.Join(root, "boot/vmlinuz-6.1.0"),
		Env:     &BootEnvironment{Dataset: "rpool/ROOT/debian", Root: root},
	}
	err := inspectImage(img, grubcfg.Defaults())
	require.True(t, errors.Is(err, ENotKernel), "%v", err)
}

func TestFindKernels(t *testing.T) {
	root := t.TempDir()
	mkTree(t, root, map[string]string{
		"boot/vmlinuz-6.1.0":               "k",
		"boot/vmlinuz-6.1.0.old":           "k",
		"boot/vmlinuz-6.1.0.dpkg-bak":      "k",
		"boot/vmlinuz-6.1.0.sig":           "k",
		"boot/vmlinuz-6.1.0~":              "k",
		"boot/vmlinuz-5.10.0.rpmnew":       "k",
		"boot/kernel-genkernel-x86_64-6.2": "k",
		"boot/vmlinuz-link":                "->vmlinuz-6.1.0",
		"vmlinuz-6.3.0":                    "k",
		"boot/vmlinuz-dir/placeholder":     "",
	})
	found, err := FindKernels(root)
	require.NoError(t, err)
	var rel []string
	for _, f := range found {
		r, err := fp.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, r)
	}
	require.Equal(t, []string{
		"boot/vmlinuz-6.1.0",
		"boot/vmlinuz-6.1.0.old",
		"boot/vmlinuz-link",
		"vmlinuz-6.3.0",
		"boot/kernel-genkernel-x86_64-6.2",
	}, rel)
}
