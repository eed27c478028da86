// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"fmt"
	"io"
	"os"
	fp "path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/bootmenu"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/fileutil/kver"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/grubcfg"
)

func inspect(w io.Writer, cfg *grubcfg.Config) error {
	menu, release, err := plan(cfg)
	if err != nil {
		return err
	}
	defer release()
	report(w, menu)
	return nil
}

// report describes each environment's kernels, marking the one the simple
// entry boots with '*'.
func report(w io.Writer, menu *bootmenu.Menu) {
	if len(menu.Envs) == 0 {
		fmt.Fprintln(w, "no bootable environments")
		return
	}
	for _, em := range menu.Envs {
		state := ""
		if em.Env.Active {
			state = " (active)"
		}
		fmt.Fprintf(w, "%s%s\n", em.Env.Dataset, state)
		if len(em.Env.Kernels) > 0 {
			fmt.Fprintf(w, "  recorded kernels: %s\n", strings.Join(em.Env.Kernels, ", "))
		}
		for _, img := range em.Images {
			mark := " "
			if img == em.Default {
				mark = "*"
			}
			fmt.Fprintf(w, " %s %s [%s] %s\n", mark, img.Version, img.Flavor, sizeOf(img.Path))
			if ki, err := kver.Describe(img.Path); err == nil {
				fmt.Fprintf(w, "    build: %s\n", ki)
			} else {
				fmt.Fprintf(w, "    build: %s\n", err)
			}
			dir := fp.Dir(img.Path)
			for _, e := range img.Early {
				fmt.Fprintf(w, "    early: %s %s\n", e, sizeOf(fp.Join(dir, e)))
			}
			switch {
			case img.Initrd != "":
				initrd := fp.Join(dir, img.Initrd)
				if info, err := bootmenu.InspectInitrd(initrd); err == nil {
					fmt.Fprintf(w, "    initrd: %s, %s, %s, %d files\n", img.Initrd, humanize.Bytes(uint64(info.Size)), info.Compression, info.Files)
				} else {
					fmt.Fprintf(w, "    initrd: %s: %s\n", img.Initrd, err)
				}
			case img.BuiltinInitramfs:
				fmt.Fprintln(w, "    initrd: built into kernel")
			default:
				fmt.Fprintln(w, "    initrd: none")
			}
		}
	}
}

func sizeOf(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(fi.Size()))
}
