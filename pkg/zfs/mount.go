// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package zfs

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/u-root/u-root/pkg/mount"
	"golang.org/x/sys/unix"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// ProcMounts is read to find where mounted datasets with a legacy
// mountpoint live.
var ProcMounts = "/proc/mounts"

// replaced in tests
var (
	mountFn   = mount.Mount
	unmountFn = mount.Unmount
)

// Mounter makes boot environment filesystems readable. Environments that are
// not mounted get a temporary read-only mount, undone by Release.
type Mounter struct {
	TmpDir  string //parent for temporary mountpoints; "" for the default
	mounted []string
}

// Attach sets ds.BE.Root.
func (m *Mounter) Attach(ds *Dataset) error {
	if ds.Mounted {
		root, err := mountedAt(ds)
		if err != nil {
			return err
		}
		ds.BE.Root = root
		return nil
	}
	dir, err := ioutil.TempDir(m.TmpDir, "be-")
	if err != nil {
		return err
	}
	//zfsutil allows mounting datasets whose mountpoint is not legacy
	data := ""
	if ds.Mountpoint != "legacy" {
		data = "zfsutil"
	}
	if err = mountFn(ds.BE.Dataset, dir, "zfs", data, unix.MS_RDONLY|unix.MS_NOSUID|unix.MS_NODEV); err != nil {
		os.Remove(dir)
		return fmt.Errorf("mounting %s: %w", ds.BE.Dataset, err)
	}
	log.Logf("mounted %s read-only at %s", ds.BE.Dataset, dir)
	m.mounted = append(m.mounted, dir)
	ds.BE.Root = dir
	return nil
}

// Release unmounts everything Attach mounted, newest first.
func (m *Mounter) Release() {
	for i := len(m.mounted) - 1; i >= 0; i-- {
		dir := m.mounted[i]
		if err := unmountFn(dir, false, false); err != nil {
			log.Logf("unmounting %s: %s", dir, err)
			if err = unmountFn(dir, false, true); err != nil {
				log.Logf("lazy unmount of %s: %s", dir, err)
				continue
			}
		}
		if err := os.Remove(dir); err != nil {
			log.Logf("removing %s: %s", dir, err)
		}
	}
	m.mounted = nil
}

// mountedAt finds where a mounted dataset is visible.
func mountedAt(ds *Dataset) (string, error) {
	if strings.HasPrefix(ds.Mountpoint, "/") {
		return ds.Mountpoint, nil
	}
	f, err := os.Open(ProcMounts)
	if err != nil {
		return "", err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		//dev dir fstype opts freq passno
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 3 && fields[2] == "zfs" && fields[0] == ds.BE.Dataset {
			return unescapeMount(fields[1]), nil
		}
	}
	if err = scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%s is mounted but not listed in %s", ds.BE.Dataset, ProcMounts)
}

// unescapeMount undoes the octal escapes the kernel uses for whitespace in
// mount paths.
func unescapeMount(s string) string {
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}
