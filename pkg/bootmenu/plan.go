// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	fp "path/filepath"
	"sort"
	"strings"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/grubcfg"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// Menu is everything Generate writes, in output order.
type Menu struct {
	Envs []*EnvMenu
}

// EnvMenu holds the entries for one boot environment.
type EnvMenu struct {
	Env *BootEnvironment
	// Images are the usable kernels, newest first.
	Images  []*KernelImage
	Default *KernelImage
	// Simple is nil when submenus are disabled.
	Simple *MenuEntry
	// Submenu is set when the advanced entries are grouped.
	Submenu      bool
	SubmenuTitle string
	SubmenuID    string
	Advanced     []*MenuEntry
}

// Entries returns all entries in output order.
func (em *EnvMenu) Entries() (all []*MenuEntry) {
	if em.Simple != nil {
		all = append(all, em.Simple)
	}
	return append(all, em.Advanced...)
}

// Plan decides which entries to emit without writing anything.
func Plan(envs []*BootEnvironment, kernels KernelSet, cfg *grubcfg.Config, pref Preference) *Menu {
	sorted := append([]*BootEnvironment(nil), envs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Active != sorted[j].Active {
			return sorted[i].Active
		}
		return sorted[i].Dataset < sorted[j].Dataset
	})
	want := pref.Preferred(cfg)
	menu := &Menu{}
	for _, be := range sorted {
		if em := planEnv(be, kernels[be.Dataset], cfg, want); em != nil {
			menu.Envs = append(menu.Envs, em)
		}
	}
	return menu
}

func planEnv(be *BootEnvironment, paths []string, cfg *grubcfg.Config, want Flavor) *EnvMenu {
	if be.Root == "" {
		log.Logf("%s: filesystem not available, skipping", be.Dataset)
		return nil
	}
	images := collect(be, paths, cfg)
	if len(images) == 0 {
		log.Logf("%s: no usable kernels, skipping", be.Dataset)
		return nil
	}
	em := &EnvMenu{
		Env:     be,
		Images:  images,
		Default: pickDefault(images, want),
	}
	label := cfg.OS()
	if !be.Active {
		label += " (" + be.Name() + ")"
	}
	id := envID(be, cfg)
	args := cfg.DefaultArgs()

	if !cfg.DisableSubmenu {
		em.Simple = &MenuEntry{
			Title:  label,
			ID:     "gnulinux-simple-" + id,
			Kernel: em.Default,
			Root:   rootDevice(cfg, em.Default),
			Args:   args,
			Kind:   EntrySimple,
		}
		if len(images) < 2 && !cfg.ForceAdvanced {
			return em
		}
		em.Submenu = true
		em.SubmenuTitle = "Advanced options for " + label
		em.SubmenuID = "gnulinux-advanced-" + id
	}

	for _, img := range images {
		root := rootDevice(cfg, img)
		if root == "" {
			log.Logf("%s: no root device identifier for %s", be.Dataset, img.Version)
		}
		em.Advanced = append(em.Advanced, &MenuEntry{
			Title:  label + ", with Linux " + img.Version,
			ID:     "gnulinux-" + img.Version + "-advanced-" + id,
			Kernel: img,
			Root:   root,
			Args:   args,
			Kind:   EntryAdvanced,
		})
		if img != em.Default {
			continue
		}
		if !cfg.DisableRecovery {
			em.Advanced = append(em.Advanced, &MenuEntry{
				Title:  label + ", with Linux " + img.Version + " (" + cfg.RecoveryTitle + ")",
				ID:     "gnulinux-" + img.Version + "-recovery-" + id,
				Kernel: img,
				Root:   root,
				Args:   cfg.RecoveryArgs(),
				Kind:   EntryRecovery,
			})
		}
		for _, in := range alternateInits(be.Root) {
			em.Advanced = append(em.Advanced, &MenuEntry{
				Title:  label + ", with Linux " + img.Version + " (init-" + in.Name + ")",
				ID:     "gnulinux-" + img.Version + "-init-" + in.Name + "-" + id,
				Kernel: img,
				Root:   root,
				Args:   joinArgs(args, "init="+in.Path),
				Kind:   EntryInitOverride,
			})
		}
	}
	return em
}

func joinArgs(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

// collect builds and inspects images for an environment, newest first.
// Images that fail probing are dropped.
func collect(be *BootEnvironment, paths []string, cfg *grubcfg.Config) []*KernelImage {
	byVersion := make(map[string]*KernelImage)
	var versions []string
	for _, p := range paths {
		v := versionOf(p)
		if v == "" {
			log.Logf("%s: can't determine kernel version of %s", be.Dataset, p)
			continue
		}
		if _, dup := byVersion[v]; dup {
			log.Logf("%s: duplicate kernel %s at %s, ignored", be.Dataset, v, p)
			continue
		}
		img := &KernelImage{
			Version: v,
			Path:    p,
			Flavor:  FlavorOf(v),
			Env:     be,
		}
		if err := inspectImage(img, cfg); err != nil {
			log.Logf("%s: skipping kernel %s: %s", be.Dataset, v, err)
			continue
		}
		byVersion[v] = img
		versions = append(versions, v)
	}
	for _, v := range be.Kernels {
		if _, ok := byVersion[v]; !ok {
			log.Logf("%s: kernel %s recorded on dataset but not found", be.Dataset, v)
		}
	}
	SortReverse(versions)
	images := make([]*KernelImage, len(versions))
	for i, v := range versions {
		images[i] = byVersion[v]
	}
	return images
}

// kernelPrefixes are the file name prefixes FindKernels looks for.
var kernelPrefixes = []string{"vmlinuz-", "kernel-"}

func versionOf(path string) string {
	base := fp.Base(path)
	for _, pfx := range kernelPrefixes {
		if strings.HasPrefix(base, pfx) {
			return base[len(pfx):]
		}
	}
	return ""
}

// pickDefault returns the newest image, switching to the wanted flavor if
// the same kernel is also built in that flavor.
func pickDefault(images []*KernelImage, want Flavor) *KernelImage {
	newest := logicalVersion(images[0].Version)
	for _, img := range images {
		if img.Flavor == want && logicalVersion(img.Version) == newest {
			return img
		}
	}
	return images[0]
}

// envID distinguishes the menuentry ids of different environments.
func envID(be *BootEnvironment, cfg *grubcfg.Config) string {
	if cfg.IsZFS() {
		return strings.ReplaceAll(be.Dataset, "/", "-")
	}
	if cfg.DeviceUUID != "" {
		return cfg.DeviceUUID
	}
	return cfg.Device
}
