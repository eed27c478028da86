// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package zfs finds the boot environments on a boot pool and makes their
// filesystems readable so kernels can be inspected.
package zfs

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/bootmenu"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/common/strs"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// Paths of the zfs utilities. Variables so tests and odd installs can
// change them.
var (
	Zfs   = "zfs"
	Zpool = "zpool"
)

var (
	EListing  = errors.New("cannot list boot environments")
	ENoBootfs = errors.New("pool has no bootfs set")
)

// Dataset is a boot environment plus what is needed to mount it.
type Dataset struct {
	BE         *bootmenu.BootEnvironment
	Mountpoint string //may be "legacy" or "none"
	Mounted    bool
}

// Bootfs returns the dataset the pool boots from by default.
func Bootfs(pool string) (string, error) {
	out, ok := log.Cmd(exec.Command(Zpool, "get", "-H", "-o", "value", "bootfs", pool))
	if !ok {
		return "", fmt.Errorf("%w: zpool get bootfs %s failed", EListing, pool)
	}
	bootfs := strings.TrimSpace(out)
	if bootfs == "" || bootfs == "-" {
		return "", fmt.Errorf("%s: %w", pool, ENoBootfs)
	}
	return bootfs, nil
}

// ListBootEnvironments lists the datasets directly under <pool>/ROOT. The
// container itself is not an environment. A pool without bootfs is not an
// error; no environment is marked active then.
func ListBootEnvironments(pool string) ([]*Dataset, error) {
	bootfs, err := Bootfs(pool)
	if err != nil && !errors.Is(err, ENoBootfs) {
		return nil, err
	}
	if err != nil {
		log.Logf("%s", err)
	}
	container := strs.BEContainer(pool)
	out, ok := log.Cmd(exec.Command(Zfs, "list", "-H", "-o",
		"name,mountpoint,mounted,"+strs.KernelVersionProp(), "-r", "-d", "1", container))
	if !ok {
		return nil, fmt.Errorf("%w: zfs list %s failed", EListing, container)
	}
	return parseList(out, container, bootfs), nil
}

func parseList(out, container, bootfs string) (list []*Dataset) {
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) != 4 {
			log.Logf("zfs list: malformed line %q", line)
			continue
		}
		name, mp, mounted, kver := f[0], f[1], f[2], f[3]
		if name == container {
			continue
		}
		if !strings.HasPrefix(name, container+"/") || mp == "-" || mounted == "-" {
			log.Logf("zfs list: unusable dataset %q", line)
			continue
		}
		ds := &Dataset{
			BE: &bootmenu.BootEnvironment{
				Dataset: name,
				Active:  name == bootfs,
			},
			Mountpoint: mp,
			Mounted:    mounted == "yes",
		}
		if kver != "-" && kver != "" {
			ds.BE.Kernels = strings.Fields(kver)
		}
		list = append(list, ds)
	}
	return
}
