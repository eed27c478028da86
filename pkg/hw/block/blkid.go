// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package block identifies the filesystem and partition behind a device node
// by asking blkid.
package block

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

var Verbose bool

// Blkid is the blkid binary; tests match on it through the cmd hijacker.
var Blkid = "/sbin/blkid"

func parseBlkidOut(out string) (binfo BlkInfo, err error) {
	colon := strings.Index(out, ":")
	if colon < 0 {
		err = fmt.Errorf("can't parse %q", out)
		return
	}
	binfo.Device = out[:colon]
	elements, err := shlex.Split(out[colon+1:])
	if err != nil {
		return
	}
	for _, e := range elements {
		//shlex has already removed the quotes
		kv := strings.SplitN(e, "=", 2)
		if len(kv) != 2 {
			log.Logf("blkid %s: can't parse %s, skipping", binfo.Device, e)
			continue
		}
		k, v := kv[0], kv[1]
		switch strings.ToUpper(k) {
		case "UUID":
			binfo.UUID = v
		case "TYPE":
			binfo.FsType = FsFromStr(v)
		case "LABEL":
			binfo.Label = v
		case "PARTUUID":
			binfo.PartUUID = v
		default:
			if Verbose {
				log.Logf("blkid %s: ignoring %s", binfo.Device, e)
			}
		}
	}
	return
}

type FsType int

const (
	FsUnknown FsType = iota
	FsZfs
	FsExt4
	FsFat
	FsBtrfs
	FsXfs
)

func FsFromStr(s string) FsType {
	switch strings.ToLower(s) {
	case "zfs", "zfs_member":
		return FsZfs
	case "ext2", "ext3", "ext4":
		return FsExt4
	case "fat", "vfat":
		return FsFat
	case "btrfs":
		return FsBtrfs
	case "xfs":
		return FsXfs
	}
	return FsUnknown
}

func (f FsType) String() string {
	switch f {
	case FsUnknown:
		return "unknown"
	case FsZfs:
		return "zfs"
	case FsExt4:
		return "ext4"
	case FsFat:
		return "vfat"
	case FsBtrfs:
		return "btrfs"
	case FsXfs:
		return "xfs"
	}
	return "fsType VALUE OUT OF RANGE"
}

type BlkInfo struct {
	Device   string
	FsType   FsType
	UUID     string //for zfs_member this is the pool guid
	PartUUID string
	Label    string //for zfs_member this is the pool name
}

// GetInfo runs blkid on device.
func GetInfo(device string) (bi BlkInfo, err error) {
	out, ok := log.Cmd(exec.Command(Blkid, device))
	if !ok {
		err = fmt.Errorf("blkid %s failed", device)
		return
	}
	bi, err = parseBlkidOut(strings.TrimSpace(out))
	if err == nil {
		bi.Device = device
	}
	return
}
