// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package fileutil

import (
	"fmt"
	"io"
	"os"
	fp "path/filepath"
	"syscall"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// Copy a file. Assumes any dirs have already been created. Copies metadata.
func CopyFile(src, dest string, destFlags int) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return copyFileI(src, dest, info, destFlags)
}

// like CopyFile; use when file has already been stat'd.
func copyFileI(src, dest string, info os.FileInfo, destFlags int) error {
	out, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_TRUNC|destFlags, 0666)
	if err != nil {
		return err
	}
	defer out.Close()
	in, err := os.OpenFile(src, os.O_RDONLY, 0400)
	if err != nil {
		return err
	}
	defer in.Close()
	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if n < info.Size() {
		return fmt.Errorf("copied %d bytes, expected %d", n, info.Size())
	}
	err = out.Chmod(info.Mode())
	if err != nil {
		return err
	}
	copyOwner(out, dest, info)
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}

func copyOwner(out *os.File, dest string, info os.FileInfo) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	//only root can give files away; not worth logging otherwise
	if os.Geteuid() != 0 {
		return
	}
	if err := out.Chown(int(sys.Uid), int(sys.Gid)); err != nil {
		log.Logf("error %s setting uid/gid of %s\n", err, dest)
	}
}

// CopyTree copies the contents of src into dest, which is created if
// needed. Symlinks are recreated, not followed; modes are kept. Existing
// files in dest are overwritten, and existing symlinks in dest are replaced
// rather than written through. Returns the copied paths, relative to dest.
func CopyTree(src, dest string) (copied []string, err error) {
	type dirMode struct {
		path string
		mode os.FileMode
	}
	var dirs []dirMode
	err = fp.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := fp.Rel(src, path)
		if err != nil {
			return err
		}
		target := fp.Join(dest, rel)
		switch {
		case info.IsDir():
			//a link or file staged earlier is replaced, never followed
			if fi, lerr := os.Lstat(target); lerr == nil && !fi.IsDir() {
				if err = os.Remove(target); err != nil {
					return err
				}
			}
			if err = os.MkdirAll(target, 0755); err != nil {
				return err
			}
			//mode is applied after the contents, in case it is read-only
			dirs = append(dirs, dirMode{target, info.Mode().Perm()})
			return nil
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err = os.Remove(target); err != nil && !os.IsNotExist(err) {
				return err
			}
			if err = os.Symlink(link, target); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if fi, lerr := os.Lstat(target); lerr == nil && !fi.Mode().IsRegular() {
				if err = os.Remove(target); err != nil {
					return err
				}
			}
			if err = copyFileI(path, target, info, 0); err != nil {
				return err
			}
		default:
			log.Logf("CopyTree: skipping special file %s", path)
			return nil
		}
		copied = append(copied, rel)
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		if cerr := os.Chmod(dirs[i].path, dirs[i].mode); cerr != nil && err == nil {
			err = cerr
		}
	}
	return
}
