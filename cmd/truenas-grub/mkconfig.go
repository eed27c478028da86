// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"context"
	"io"
	fp "path/filepath"
	"time"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/bootmenu"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/configdb"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/grubcfg"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/zfs"
)

// how long the configuration database may take to answer
const dbTimeout = 5 * time.Second

// replaced in tests
var (
	discover       = zfs.Discover
	loadPreference = configdb.LoadPreference
)

func mkconfig(w io.Writer, cfg *grubcfg.Config) error {
	menu, release, err := plan(cfg)
	if err != nil {
		return err
	}
	defer release()
	for _, em := range menu.Envs {
		for _, img := range em.Images {
			log.Msgf("Found linux image: %s", img.Path)
			if img.Initrd != "" {
				log.Msgf("Found initrd image: %s", fp.Join(fp.Dir(img.Path), img.Initrd))
			}
		}
	}
	return menu.Write(w, cfg)
}

// plan discovers the environments of the boot pool and lays out the menu.
// The returned func undoes any temporary mounts.
func plan(cfg *grubcfg.Config) (*bootmenu.Menu, func(), error) {
	m := &zfs.Mounter{}
	envs, kernels, err := discover(cfg.BootPool, m)
	if err != nil {
		m.Release()
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	pref := loadPreference(ctx, fp.Join(cfg.Root, cfg.ConfigDB))
	return bootmenu.Plan(envs, kernels, cfg, pref), m.Release, nil
}
