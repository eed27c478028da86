// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/u-root/u-root/pkg/cpio"
	"github.com/ulikunitz/xz"
)

// Compression of an initrd, by magic number.
type Compression string

const (
	CompNone    Compression = "none"
	CompXz      Compression = "xz"
	CompGzip    Compression = "gzip"
	CompZstd    Compression = "zstd"
	CompUnknown Compression = "unknown"
)

var (
	magicNewc = []byte("070701")
	magicXz   = []byte{0xfd, '7', 'z', 'X', 'Z', 0}
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// maxInitrd caps how much decompressed data InspectInitrd will hold.
const maxInitrd = 512 << 20

var EBadInitrd = errors.New("not a newc cpio archive")

// InitrdInfo describes an initrd for the inspect command.
type InitrdInfo struct {
	Path        string
	Size        int64
	Compression Compression
	// Files is the number of archive members, or -1 if the archive could
	// not be read.
	Files int
}

func (i InitrdInfo) String() string {
	return fmt.Sprintf("%s: %s, %d files", i.Path, i.Compression, i.Files)
}

// InspectInitrd identifies an initrd's compression and counts its members.
// Early microcode archives prepended uncompressed are not looked past.
func InspectInitrd(path string) (*InitrdInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	info := &InitrdInfo{Path: path, Size: fi.Size(), Files: -1}
	br := bufio.NewReader(f)
	head, _ := br.Peek(6)
	var r io.Reader
	switch {
	case bytes.HasPrefix(head, magicNewc):
		info.Compression = CompNone
		r = br
	case bytes.HasPrefix(head, magicXz):
		info.Compression = CompXz
		if r, err = xz.NewReader(br); err != nil {
			return info, err
		}
	case bytes.HasPrefix(head, magicGzip):
		info.Compression = CompGzip
		gz, err := gzip.NewReader(br)
		if err != nil {
			return info, err
		}
		defer gz.Close()
		r = gz
	case bytes.HasPrefix(head, magicZstd):
		info.Compression = CompZstd
		zr, err := zstd.NewReader(br)
		if err != nil {
			return info, err
		}
		defer zr.Close()
		r = zr
	default:
		info.Compression = CompUnknown
		return info, nil
	}
	info.Files, err = countMembers(r)
	return info, err
}

func countMembers(r io.Reader) (int, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInitrd))
	if err != nil {
		return -1, err
	}
	if !bytes.HasPrefix(data, magicNewc) {
		return -1, EBadInitrd
	}
	rr := cpio.Newc.Reader(bytes.NewReader(data))
	n := 0
	for {
		_, err := rr.ReadRecord()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return -1, err
		}
		n++
	}
}
