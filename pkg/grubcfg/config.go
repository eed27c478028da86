// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package grubcfg builds the immutable configuration for the boot menu
// helper from /etc/default/grub, /etc/default/grub.d/*.cfg and the variables
// grub-mkconfig exports.
package grubcfg

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/common/strs"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// Config is built once per run and never modified; the generator only reads
// it. Copy before changing fields (see WithDevice).
type Config struct {
	Distributor         string
	CmdlineLinux        string
	CmdlineLinuxDefault string
	RecoveryTitle       string

	DisableRecovery      bool
	DisableSubmenu       bool
	DisableLinuxUUID     bool
	DisableLinuxPartUUID bool
	ForceAdvanced        bool
	//ignore the stored debug kernel preference and always default to
	//production kernels
	ForceProduction bool

	FS             string //GRUB_FS, e.g. zfs
	Device         string //GRUB_DEVICE
	DeviceUUID     string //GRUB_DEVICE_UUID
	DevicePartUUID string //GRUB_DEVICE_PARTUUID
	BootDeviceUUID string //GRUB_DEVICE_BOOT_UUID, used for `search`

	EarlyInitrdStock  []string
	EarlyInitrdCustom []string

	// Arch is the genkernel architecture name used in initramfs-genkernel-*
	// file names.
	Arch string
	// Root is the filesystem root everything is read from; "/" outside of
	// tests.
	Root string
	// BootPool is the pool holding the boot environments.
	BootPool string
	// ConfigDB is the path of the configuration database.
	ConfigDB string
}

// RecoveryTitle default, as in upstream 10_linux.
const DefaultRecoveryTitle = "recovery mode"

var defaultEarlyInitrd = []string{
	"intel-uc.img", "intel-ucode.img", "amd-uc.img", "amd-ucode.img",
	"early_ucode.cpio", "microcode.cpio",
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Distributor:          strs.Distributor(),
		RecoveryTitle:        DefaultRecoveryTitle,
		DisableLinuxPartUUID: true,
		EarlyInitrdStock:     append([]string(nil), defaultEarlyInitrd...),
		Arch:                 genkernelArch(),
		Root:                 "/",
		BootPool:             strs.BootPool(),
		ConfigDB:             strs.ConfigDB(),
	}
}

// IsZFS reports whether the root filesystem is on ZFS.
func (c *Config) IsZFS() bool { return c.FS == "zfs" }

// OS is the name used in menu titles.
func (c *Config) OS() string {
	if c.Distributor == "" {
		return strs.Distributor()
	}
	return c.Distributor
}

var nonAlnum = regexp.MustCompile(`[^[:alnum:]_]`)

// Class is the --class derived from the distributor: first word, lower case,
// non-alphanumerics replaced.
func (c *Config) Class() string {
	f := strings.Fields(strings.ToLower(c.OS()))
	if len(f) == 0 {
		return ""
	}
	return nonAlnum.ReplaceAllString(f[0], "_")
}

// DefaultArgs are the arguments for simple and advanced entries.
func (c *Config) DefaultArgs() string {
	return joinArgs(c.CmdlineLinux, c.CmdlineLinuxDefault)
}

// RecoveryArgs are the arguments for recovery entries.
func (c *Config) RecoveryArgs() string { return joinArgs("single", c.CmdlineLinux) }

func joinArgs(a ...string) string {
	var parts []string
	for _, s := range a {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// set applies one KEY=value assignment. Unknown keys are ignored.
func (c *Config) set(key, val string) {
	switch key {
	case "GRUB_DISTRIBUTOR":
		c.Distributor = val
	case "GRUB_CMDLINE_LINUX":
		c.CmdlineLinux = val
	case "GRUB_CMDLINE_LINUX_DEFAULT":
		c.CmdlineLinuxDefault = val
	case "GRUB_RECOVERY_TITLE":
		if val != "" {
			c.RecoveryTitle = val
		}
	case "GRUB_DISABLE_RECOVERY":
		c.DisableRecovery = val == "true"
	case "GRUB_DISABLE_SUBMENU":
		c.DisableSubmenu = val == "true" || val == "y"
	case "GRUB_DISABLE_LINUX_UUID":
		c.DisableLinuxUUID = val == "true"
	case "GRUB_DISABLE_LINUX_PARTUUID":
		//unset means disabled
		c.DisableLinuxPartUUID = val != "false"
	case "GRUB_FS":
		c.FS = val
	case "GRUB_DEVICE":
		c.Device = val
	case "GRUB_DEVICE_UUID":
		c.DeviceUUID = val
	case "GRUB_DEVICE_PARTUUID":
		c.DevicePartUUID = val
	case "GRUB_DEVICE_BOOT_UUID":
		c.BootDeviceUUID = val
	case "GRUB_EARLY_INITRD_LINUX_STOCK":
		c.EarlyInitrdStock = strings.Fields(val)
	case "GRUB_EARLY_INITRD_LINUX_CUSTOM":
		c.EarlyInitrdCustom = strings.Fields(val)
	case strs.ForceAdvancedEnv():
		c.ForceAdvanced = parseBool(key, val)
	case strs.ForceProductionEnv():
		c.ForceProduction = parseBool(key, val)
	}
}

func parseBool(key, val string) bool {
	if val == "" {
		return false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Logf("%s: %q is not a boolean, treating as false", key, val)
	}
	return b
}

var (
	mbrPartUUID = regexp.MustCompile(`^[[:xdigit:]]{8}-[[:xdigit:]]{2}$`)
	//vfat volume ids and ntfs serials
	shortFsUUID = regexp.MustCompile(`^([[:xdigit:]]{4}-[[:xdigit:]]{4}|[[:xdigit:]]{16})$`)
)

// validate drops identifiers that can't be used on a kernel command line.
// ZFS pool guids are decimal, not UUIDs, and are left alone.
func (c *Config) validate() {
	if c.DeviceUUID != "" && !c.IsZFS() {
		if _, err := uuid.Parse(c.DeviceUUID); err != nil && !shortFsUUID.MatchString(c.DeviceUUID) {
			log.Logf("ignoring GRUB_DEVICE_UUID %q: %s", c.DeviceUUID, err)
			c.DeviceUUID = ""
		}
	}
	if c.DevicePartUUID != "" {
		if _, err := uuid.Parse(c.DevicePartUUID); err != nil && !mbrPartUUID.MatchString(c.DevicePartUUID) {
			log.Logf("ignoring GRUB_DEVICE_PARTUUID %q: %s", c.DevicePartUUID, err)
			c.DevicePartUUID = ""
		}
	}
}
