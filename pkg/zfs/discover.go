// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package zfs

import (
	"github.com/wongsyrone/truenas-scale-middleware/pkg/bootmenu"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// Discover lists the boot environments of pool, makes each readable via m
// and finds its kernels. The caller must call m.Release when done probing.
// Only a failed listing is an error; environments that can't be mounted or
// read are logged and left without kernels.
func Discover(pool string, m *Mounter) ([]*bootmenu.BootEnvironment, bootmenu.KernelSet, error) {
	list, err := ListBootEnvironments(pool)
	if err != nil {
		return nil, nil, err
	}
	var envs []*bootmenu.BootEnvironment
	ks := make(bootmenu.KernelSet)
	for _, ds := range list {
		envs = append(envs, ds.BE)
		if err := m.Attach(ds); err != nil {
			log.Logf("%s: %s", ds.BE.Dataset, err)
			continue
		}
		found, err := bootmenu.FindKernels(ds.BE.Root)
		if err != nil {
			log.Logf("%s: looking for kernels: %s", ds.BE.Dataset, err)
			continue
		}
		ks[ds.BE.Dataset] = found
	}
	return envs, ks, nil
}
