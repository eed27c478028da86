// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package grubcfg

import (
	"io/ioutil"
	"os"
	fp "path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/hw/block"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/testlog"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	p := fp.Join(root, name)
	require.NoError(t, os.MkdirAll(fp.Dir(p), 0755))
	require.NoError(t, ioutil.WriteFile(p, []byte(content), 0644))
}

const defaultGrub = `# If you change this file, run 'update-grub' afterwards
GRUB_DEFAULT=0
GRUB_TIMEOUT=10
GRUB_DISTRIBUTOR="TrueNAS Scale"
GRUB_CMDLINE_LINUX_DEFAULT="libata.allow_tpm=1 amd_iommu=on"
export GRUB_CMDLINE_LINUX='zfsforce=1'
GRUB_CMDLINE_LINUX="${GRUB_CMDLINE_LINUX} nvme_core.multipath=N"
GRUB_DISTRIBUTOR_ID=` + "`lsb_release -i -s 2> /dev/null || echo Debian`" + `
GRUB_DISABLE_RECOVERY="true"
`

func TestLoad(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	root := t.TempDir()
	writeFile(t, root, "etc/default/grub", defaultGrub)
	writeFile(t, root, "etc/default/grub.d/10-truenas.cfg", "GRUB_TERMINAL_INPUT=console\nGRUB_DISABLE_SUBMENU=y\n")
	writeFile(t, root, "etc/default/grub.d/99-local.cfg", "GRUB_DISABLE_RECOVERY=false\n")

	c, err := Load(root, []string{
		"GRUB_FS=zfs",
		"GRUB_DEVICE=/dev/sda3",
		"GRUB_DEVICE_UUID=12345678901234567890",
		"TRUENAS_FORCE_PRODUCTION_KERNEL=1",
		"HOME=/root",
	})
	require.NoError(t, err)

	require.Equal(t, "TrueNAS Scale", c.OS())
	require.Equal(t, "truenas", c.Class())
	require.Equal(t, "zfsforce=1 nvme_core.multipath=N", c.CmdlineLinux)
	require.Equal(t, "zfsforce=1 nvme_core.multipath=N libata.allow_tpm=1 amd_iommu=on", c.DefaultArgs())
	require.Equal(t, "single zfsforce=1 nvme_core.multipath=N", c.RecoveryArgs())
	require.False(t, c.DisableRecovery, "drop-in must override grub")
	require.True(t, c.DisableSubmenu)
	require.True(t, c.DisableLinuxPartUUID, "partuuid disabled unless explicitly false")
	require.True(t, c.IsZFS())
	require.True(t, c.ForceProduction)
	require.Equal(t, "12345678901234567890", c.DeviceUUID, "pool guid is not validated as a uuid")
	require.Equal(t, root, c.Root)

	skipped := tlog.Filter(testlog.FilterContains("not a plain assignment"))
	require.Len(t, skipped, 1)
}

func TestEnvOverridesFile(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	root := t.TempDir()
	writeFile(t, root, "etc/default/grub", `GRUB_CMDLINE_LINUX="from file"`+"\n")
	c, err := Load(root, []string{"GRUB_CMDLINE_LINUX=from env", "GRUB_DISABLE_LINUX_PARTUUID=false"})
	require.NoError(t, err)
	require.Equal(t, "from env", c.CmdlineLinux)
	require.False(t, c.DisableLinuxPartUUID)
}

func TestSingleQuotesLiteral(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	root := t.TempDir()
	writeFile(t, root, "etc/default/grub", "A=1\nGRUB_CMDLINE_LINUX='console=$A x'\nexport GRUB_CMDLINE_LINUX_DEFAULT=\"quiet $A\"\n")
	c, err := Load(root, nil)
	require.NoError(t, err)
	require.Equal(t, "console=$A x", c.CmdlineLinux)
	require.Equal(t, "quiet 1", c.CmdlineLinuxDefault)
}

func TestValidate(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	for _, td := range []struct {
		name, uuid, partuuid string
		wantU, wantP         string
	}{
		{"gpt", "c3a5f8ee-1a3c-4e63-9e3e-7b7c1f7f6f01", "2c6e4b1a-3f5d-4d2e-9b1a-7c6e4b1a3f5d", "c3a5f8ee-1a3c-4e63-9e3e-7b7c1f7f6f01", "2c6e4b1a-3f5d-4d2e-9b1a-7c6e4b1a3f5d"},
		{"mbr and vfat", "0B1A-2C3D", "abcd1234-01", "0B1A-2C3D", "abcd1234-01"},
		{"junk", "not a uuid", "nope", "", ""},
	} {
		t.Run(td.name, func(t *testing.T) {
			c := Defaults()
			c.FS = "ext4"
			c.DeviceUUID, c.DevicePartUUID = td.uuid, td.partuuid
			c.validate()
			require.Equal(t, td.wantU, c.DeviceUUID)
			require.Equal(t, td.wantP, c.DevicePartUUID)
		})
	}
}

func TestWithDevice(t *testing.T) {
	tlog := testlog.NewTestLog(t, true, false)
	defer tlog.Freeze()
	tlog.UseMappedCmdHijacker(testlog.CmdMap{
		testlog.CmdKey(block.Blkid, "/dev/sda3"): testlog.Canned(
			`/dev/sda3: LABEL="boot-pool" UUID="9876543210" TYPE="zfs_member" PARTUUID="2c6e4b1a-3f5d-4d2e-9b1a-7c6e4b1a3f5d"`, true),
	})
	c := Defaults()
	c.Device = "/dev/sda3"
	filled := c.WithDevice()
	require.Equal(t, "", c.DevicePartUUID, "receiver must not change")
	require.Equal(t, "2c6e4b1a-3f5d-4d2e-9b1a-7c6e4b1a3f5d", filled.DevicePartUUID)
	require.Equal(t, "9876543210", filled.DeviceUUID)
	require.Equal(t, "zfs", filled.FS)
}

func TestArchName(t *testing.T) {
	for in, want := range map[string]string{
		"i686": "x86", "x86_64": "x86_64", "armv7l": "arm", "mips64": "mips", "aarch64": "aarch64",
	} {
		if got := archName(in); got != want {
			t.Errorf("%s: want %s, got %s", in, want, got)
		}
	}
}
