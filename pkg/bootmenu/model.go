// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	"path"
)

// BootEnvironment is a bootable clone of the root filesystem, tracked as a
// dataset under <pool>/ROOT.
type BootEnvironment struct {
	// Dataset is the full dataset name, e.g. boot-pool/ROOT/24.04.2.
	Dataset string
	// Active is set on the environment the pool's bootfs points at.
	Active bool
	// Kernels is the kernel version list recorded on the dataset, newest
	// first. Informational; the files found under Root are authoritative.
	Kernels []string
	// Root is where the environment's filesystem can be read. Empty if it
	// could not be made available.
	Root string
}

// Name is the last component of the dataset, e.g. 24.04.2.
func (be *BootEnvironment) Name() string { return path.Base(be.Dataset) }

// Pool is the first component of the dataset.
func (be *BootEnvironment) Pool() string {
	for i := 0; i < len(be.Dataset); i++ {
		if be.Dataset[i] == '/' {
			return be.Dataset[:i]
		}
	}
	return be.Dataset
}

// KernelSet maps a dataset name to the kernel image paths found for it.
type KernelSet map[string][]string

// KernelImage is one kernel found on disk, plus what was learned probing
// around it.
type KernelImage struct {
	Version string
	// Path is where the kernel was found on this system.
	Path string
	// GrubDir is the kernel's directory as GRUB sees it.
	GrubDir string
	// Initrd is the matching initrd's base name, or empty.
	Initrd string
	// Early holds the early (microcode) initrds to load first.
	Early []string
	// BuiltinInitramfs is set when the kernel config names an
	// embedded initramfs source.
	BuiltinInitramfs bool
	Flavor           Flavor
	Env              *BootEnvironment
}

// EntryKind distinguishes the menu entries emitted per environment.
type EntryKind int

const (
	EntrySimple EntryKind = iota
	EntryAdvanced
	EntryRecovery
	EntryInitOverride
)

func (k EntryKind) String() string {
	switch k {
	case EntrySimple:
		return "simple"
	case EntryAdvanced:
		return "advanced"
	case EntryRecovery:
		return "recovery"
	case EntryInitOverride:
		return "init"
	}
	return "unknown"
}

// MenuEntry is one `menuentry` block.
type MenuEntry struct {
	Title  string
	ID     string
	Kernel *KernelImage
	// Root is the root= value; empty omits the parameter.
	Root string
	Args string
	Kind EntryKind
}
