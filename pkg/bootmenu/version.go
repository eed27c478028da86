// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	"sort"
	"strings"
)

const oldSuffix = ".old"

// CompareVersions orders kernel version strings the way dpkg and `sort -V`
// do: runs of digits compare numerically, everything else character by
// character with letters before other symbols and '~' before all, even the
// end of the string. Returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	for a != "" || b != "" {
		var an, bn string
		an, a = splitRun(a, false)
		bn, b = splitRun(b, false)
		if c := compareText(an, bn); c != 0 {
			return c
		}
		an, a = splitRun(a, true)
		bn, b = splitRun(b, true)
		if c := compareNum(an, bn); c != 0 {
			return c
		}
	}
	return 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitRun(s string, digits bool) (run, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) == digits {
		i++
	}
	return s[:i], s[i:]
}

func order(c byte) int {
	switch {
	case c == '~':
		return -1
	case isDigit(c):
		return 0
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return int(c)
	}
	return int(c) + 256
}

func compareText(a, b string) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var ac, bc int
		if i < len(a) {
			ac = order(a[i])
		}
		if i < len(b) {
			bc = order(b[i])
		}
		if ac != bc {
			return sign(ac - bc)
		}
	}
	return 0
}

func compareNum(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return sign(len(a) - len(b))
	}
	return sign(strings.Compare(a, b))
}

func sign(i int) int {
	switch {
	case i < 0:
		return -1
	case i > 0:
		return 1
	}
	return 0
}

// SortReverse orders versions newest first. X.old is placed immediately
// after X.
func SortReverse(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		bi, oi := trimOld(versions[i])
		bj, oj := trimOld(versions[j])
		if c := CompareVersions(bi, bj); c != 0 {
			return c > 0
		}
		if oi != oj {
			return oj
		}
		return versions[i] > versions[j]
	})
}

func trimOld(v string) (string, bool) {
	if strings.HasSuffix(v, oldSuffix) {
		return strings.TrimSuffix(v, oldSuffix), true
	}
	return v, false
}
