// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package fileutil

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	fp "path/filepath"
	"strings"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

var ERelative = errors.New("path is not absolute")

// ReadPathList reads a list of absolute paths, one per line, as used for
// diversion and staging lists. Blank lines and comments (from # to end of
// line) are skipped, paths are cleaned and duplicates dropped. At most max
// paths are returned; hitting the limit is logged.
func ReadPathList(name string, max int) ([]string, error) {
	in, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	var paths []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		l := scanner.Text()
		if hash := strings.IndexByte(l, '#'); hash >= 0 {
			l = l[:hash]
		}
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if !fp.IsAbs(l) {
			return nil, fmt.Errorf("%s:%d: %q: %w", name, lineNo, l, ERelative)
		}
		l = fp.Clean(l)
		if seen[l] {
			continue
		}
		seen[l] = true
		paths = append(paths, l)
		if len(paths) == max {
			log.Logf("%s: stopped after %d paths", name, max)
			break
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}
