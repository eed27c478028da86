// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package kver reads the build description embedded in an x86 bzImage, the
// same string `file` prints for a kernel.
package kver

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

/*
values from kernel documentation (boot protocol) and libmagic src

off val
510 0xAA55
514 HdrS
526 (2 bytes, little endian) + 0x200 -> start of null-terminated version string
*/

var (
	EBootSig = errors.New("missing 0x55AA boot sig")
	EBadSig  = errors.New("missing kernel header sig")
	EBadOff  = errors.New("null version string offset")
	EBadStr  = errors.New("missing termination in version string")
	EParse   = errors.New("parse error")
)

const maxDesc = 1024

// GetKDesc reads the kernel version string from a bzImage.
func GetKDesc(k io.ReaderAt) (string, error) {
	var hdr [530]byte
	if _, err := k.ReadAt(hdr[:], 0); err != nil {
		return "", err
	}
	if !bytes.Equal(hdr[510:512], []byte{0x55, 0xaa}) {
		return "", EBootSig
	}
	if string(hdr[514:518]) != "HdrS" {
		return "", EBadSig
	}
	rel := binary.LittleEndian.Uint16(hdr[526:528])
	if rel == 0 {
		return "", EBadOff
	}
	buf := make([]byte, maxDesc)
	n, err := k.ReadAt(buf, int64(rel)+0x200)
	if err != nil && err != io.EOF {
		return "", err
	}
	end := bytes.IndexByte(buf[:n], 0)
	if end < 0 {
		return "", EBadStr
	}
	return string(buf[:end]), nil
}

// Describe opens the kernel at path and parses its description.
func Describe(path string) (KInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return KInfo{}, err
	}
	defer f.Close()
	desc, err := GetKDesc(f)
	if err != nil {
		return KInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return ParseDesc(desc)
}

type KInfo struct {
	//6.6.44-production+truenas (root@tnbuilder) (gcc ...) #1 SMP PREEMPT_DYNAMIC Tue Aug 13 15:38:01 UTC 2024
	//   release               (builder)                    version
	//maj.min.patch-localver                                #buildnum flags... buildtime
	Release, Version string //uname -r, uname -v respectively
	Builder          string //user@hostname, shown by `file` but not `uname`

	//the following are extracted from Release and Version

	BuildNum        uint64
	BuildTime       time.Time
	Maj, Min, Patch uint64
	LocalVer        string //production+truenas in the example above
}

func (ki KInfo) String() string {
	return fmt.Sprintf("%s #%d built %s", ki.Release, ki.BuildNum, ki.BuildTime.Format(time.RFC3339))
}

const layout = "Mon Jan 2 15:04:05 MST 2006"

// ParseDesc parses the output of GetKDesc.
func ParseDesc(desc string) (KInfo, error) {
	var ki KInfo

	hash := strings.Index(desc, "#")
	if hash < 0 {
		log.Logf("unable to parse %q, no '#'", desc)
		return KInfo{}, EParse
	}
	ki.Version = strings.TrimSpace(desc[hash:])
	head := strings.TrimSpace(desc[:hash])

	fields := strings.SplitN(head, " ", 2)
	ki.Release = fields[0]
	if len(fields) == 2 {
		//first parenthesized group; later ones hold the compiler
		b := strings.TrimSpace(fields[1])
		if strings.HasPrefix(b, "(") {
			if end := strings.Index(b, ")"); end > 0 {
				ki.Builder = b[1:end]
			}
		}
	}

	vf := strings.Fields(ki.Version[1:])
	if len(vf) < 7 {
		log.Logf("unable to parse %q, short version %q", desc, ki.Version)
		return KInfo{}, EParse
	}
	var err error
	ki.BuildNum, err = strconv.ParseUint(vf[0], 10, 64)
	if err != nil {
		log.Logf("unable to parse %q, bad build number: %s", desc, err)
		return KInfo{}, err
	}
	//flags such as SMP and PREEMPT_DYNAMIC precede the last six fields
	t := strings.Join(vf[len(vf)-6:], " ")
	ki.BuildTime, err = time.Parse(layout, t)
	if err != nil {
		log.Logf("unable to parse %q, bad time %s: %s", desc, t, err)
		return KInfo{}, err
	}

	rel := ki.Release
	if dash := strings.Index(rel, "-"); dash >= 0 {
		ki.LocalVer = rel[dash+1:]
		rel = rel[:dash]
	}
	nums := strings.Split(rel, ".")
	if len(nums) < 3 {
		log.Logf("unable to parse %q, wrong number of dots in release %s", desc, ki.Release)
		return KInfo{}, EParse
	}
	for i, dst := range []*uint64{&ki.Maj, &ki.Min, &ki.Patch} {
		*dst, err = strconv.ParseUint(nums[i], 10, 64)
		if err != nil {
			log.Logf("unable to parse %q, bad uint %s: %s", desc, nums[i], err)
			return KInfo{}, err
		}
	}
	return ki, nil
}
