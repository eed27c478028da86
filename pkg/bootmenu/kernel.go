// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	fp "path/filepath"
	"strings"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/grubcfg"
)

var (
	ENotKernel  = errors.New("not a regular file")
	ELinkLoop   = errors.New("too many levels of symbolic links")
	EOutsideEnv = errors.New("path is not inside the environment root")
)

// initrdCandidates lists file names to try for a kernel version, most
// preferred first. alt is the version without a trailing .old.
func initrdCandidates(version, alt, arch string) []string {
	return []string{
		"initrd.img-" + version,
		"initrd-" + version + ".img",
		"initrd-" + version + ".gz",
		"initrd-" + version,
		"initramfs-" + version + ".img",
		"initrd.img-" + alt,
		"initrd-" + alt + ".img",
		"initrd-" + alt,
		"initramfs-" + alt + ".img",
		"initramfs-genkernel-" + version,
		"initramfs-genkernel-" + alt,
		"initramfs-genkernel-" + arch + "-" + version,
		"initramfs-genkernel-" + arch + "-" + alt,
	}
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// findInitrd returns the base name of the first candidate present in dir.
func findInitrd(dir, version, arch string) string {
	alt, _ := trimOld(version)
	for _, c := range initrdCandidates(version, alt, arch) {
		if exists(fp.Join(dir, c)) {
			return c
		}
	}
	return ""
}

// earlyInitrds returns configured early initrds present in dir, stock ones
// first.
func earlyInitrds(dir string, cfg *grubcfg.Config) (early []string) {
	for _, list := range [][]string{cfg.EarlyInitrdStock, cfg.EarlyInitrdCustom} {
		for _, e := range list {
			if exists(fp.Join(dir, e)) {
				early = append(early, e)
			}
		}
	}
	return
}

// builtinInitramfs reports whether the kernel's config names an initramfs
// source to embed. Looks at config-V and config-A next to the kernel, then
// the genkernel location under the environment root.
func builtinInitramfs(dir, envRoot, version string) bool {
	alt, _ := trimOld(version)
	for _, c := range []string{
		fp.Join(dir, "config-"+version),
		fp.Join(dir, "config-"+alt),
		fp.Join(envRoot, "etc/kernels/kernel-config-"+version),
	} {
		if src, ok := configValue(c, "CONFIG_INITRAMFS_SOURCE"); ok {
			return src != ""
		}
	}
	return false
}

// configValue reads KEY=value from a kernel config, quotes stripped. ok is
// false if the file can't be read or lacks the key.
func configValue(name, key string) (val string, ok bool) {
	f, err := os.Open(name)
	if err != nil {
		return "", false
	}
	defer f.Close()
	pfx := key + "="
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, pfx) {
			return strings.Trim(line[len(pfx):], `"`), true
		}
	}
	return "", false
}

// rootDevice is the root= value for an image. An empty result means no
// usable identifier exists.
func rootDevice(cfg *grubcfg.Config, img *KernelImage) string {
	if img.Initrd == "" && !img.BuiltinInitramfs {
		//UUID= and ZFS= are resolved by the initramfs; without one the
		//kernel only understands PARTUUID= or a device path
		if cfg.DevicePartUUID != "" && !cfg.DisableLinuxPartUUID {
			return "PARTUUID=" + cfg.DevicePartUUID
		}
		return cfg.Device
	}
	switch {
	case cfg.IsZFS():
		return "ZFS=" + img.Env.Dataset
	case cfg.DeviceUUID != "" && !cfg.DisableLinuxUUID:
		return "UUID=" + cfg.DeviceUUID
	case cfg.DevicePartUUID != "" && !cfg.DisableLinuxPartUUID:
		return "PARTUUID=" + cfg.DevicePartUUID
	}
	return cfg.Device
}

// inspectImage fills in everything about img that depends on files next to it.
func inspectImage(img *KernelImage, cfg *grubcfg.Config) error {
	fi, err := os.Stat(img.Path)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", img.Path, ENotKernel)
	}
	dir := fp.Dir(img.Path)
	img.GrubDir, err = grubDir(img.Env, cfg, dir)
	if err != nil {
		return err
	}
	img.Initrd = findInitrd(dir, img.Version, cfg.Arch)
	img.Early = earlyInitrds(dir, cfg)
	img.BuiltinInitramfs = builtinInitramfs(dir, img.Env.Root, img.Version)
	return nil
}

// grubDir converts a directory inside the environment to the path GRUB
// uses. ZFS datasets are addressed as /<dataset without pool>@/<path>.
func grubDir(be *BootEnvironment, cfg *grubcfg.Config, dir string) (string, error) {
	rel, err := fp.Rel(be.Root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s: %w", dir, EOutsideEnv)
	}
	rel = "/" + strings.TrimPrefix(fp.ToSlash(rel), ".")
	rel = strings.TrimSuffix(rel, "/")
	if cfg.IsZFS() {
		ds := strings.TrimPrefix(be.Dataset, be.Pool())
		return ds + "@" + rel, nil
	}
	return rel, nil
}

// resolveIn resolves p as if root were "/", following symlinks without
// escaping root. The result is relative to root, starting with "/".
func resolveIn(root, p string) (string, error) {
	todo := strings.Split(strings.Trim(p, "/"), "/")
	var done []string
	for hops := 0; len(todo) > 0; {
		c := todo[0]
		todo = todo[1:]
		switch c {
		case "", ".":
			continue
		case "..":
			if len(done) > 0 {
				done = done[:len(done)-1]
			}
			continue
		}
		cur := append(done, c)
		full := fp.Join(root, fp.Join(cur...))
		fi, err := os.Lstat(full)
		if err != nil {
			return "", err
		}
		if fi.Mode()&os.ModeSymlink == 0 {
			done = cur
			continue
		}
		if hops++; hops > 40 {
			return "", fmt.Errorf("%s: %w", p, ELinkLoop)
		}
		tgt, err := os.Readlink(full)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(tgt, "/") {
			done = nil
		}
		todo = append(strings.Split(strings.Trim(tgt, "/"), "/"), todo...)
	}
	return "/" + strings.Join(done, "/"), nil
}

// supportedInits in menu order.
var supportedInits = []struct{ Name, Path string }{
	{"sysvinit", "/lib/sysvinit/init"},
	{"systemd", "/lib/systemd/systemd"},
	{"upstart", "/sbin/upstart"},
}

// alternateInits returns the supported inits installed in the environment
// that differ from what /sbin/init resolves to.
func alternateInits(root string) (alts []struct{ Name, Path string }) {
	current, _ := resolveIn(root, "/sbin/init")
	for _, in := range supportedInits {
		r, err := resolveIn(root, in.Path)
		if err != nil {
			continue
		}
		if r == current {
			continue
		}
		alts = append(alts, in)
	}
	return
}
