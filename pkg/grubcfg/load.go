// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package grubcfg

import (
	"bufio"
	"bytes"
	"io/ioutil"
	"os"
	fp "path/filepath"
	"sort"
	"strings"

	"github.com/google/shlex"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/common/strs"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/hw/block"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// Load reads the defaults files under root, then applies the GRUB_* and
// product variables found in environ, which take precedence since
// grub-mkconfig exports the values it has already resolved.
func Load(root string, environ []string) (*Config, error) {
	c := Defaults()
	c.Root = root
	vars := make(map[string]string)
	files := []string{fp.Join(root, "etc/default/grub")}
	dropins, err := fp.Glob(fp.Join(root, "etc/default/grub.d/*.cfg"))
	if err != nil {
		return nil, err
	}
	sort.Strings(dropins)
	files = append(files, dropins...)
	for _, f := range files {
		data, err := ioutil.ReadFile(f)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		parseDefaults(f, data, vars)
	}
	for _, kv := range environ {
		eq := strings.Index(kv, "=")
		if eq < 0 {
			continue
		}
		k := kv[:eq]
		if isConfigKey(k) {
			vars[k] = kv[eq+1:]
		}
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.set(k, vars[k])
	}
	c.validate()
	return c, nil
}

func isConfigKey(k string) bool {
	return strings.HasPrefix(k, "GRUB_") || strings.HasPrefix(k, strs.EnvPrefix())
}

// parseDefaults handles the shell subset found in /etc/default/grub:
// comments, optional `export`, and KEY=value with quoting and $VAR / ${VAR}
// references to earlier assignments. Single-quoted values are taken literally. Anything else (command substitution,
// conditionals) is skipped with a diagnostic.
func parseDefaults(name string, data []byte, vars map[string]string) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words, err := shlex.Split(line)
		if err != nil {
			log.Logf("%s:%d: %s", name, lineNo, err)
			continue
		}
		raw := line
		if len(words) > 0 && words[0] == "export" {
			words = words[1:]
			raw = strings.TrimSpace(raw[len("export"):])
		}
		if len(words) != 1 || strings.ContainsAny(line, "`") || strings.Contains(line, "$(") {
			log.Logf("%s:%d: not a plain assignment, skipping", name, lineNo)
			continue
		}
		eq := strings.Index(words[0], "=")
		if eq <= 0 {
			log.Logf("%s:%d: not a plain assignment, skipping", name, lineNo)
			continue
		}
		key := words[0][:eq]
		//single quotes suppress expansion
		if strings.HasPrefix(raw[strings.Index(raw, "=")+1:], "'") {
			vars[key] = words[0][eq+1:]
			continue
		}
		vars[key] = os.Expand(words[0][eq+1:], func(ref string) string { return vars[ref] })
	}
}

// WithDevice fills in missing device identifiers by asking blkid about
// GRUB_DEVICE, returning a new Config. The receiver is not modified.
func (c *Config) WithDevice() *Config {
	cp := *c
	if cp.Device == "" || (cp.DeviceUUID != "" && cp.DevicePartUUID != "") {
		return &cp
	}
	bi, err := block.GetInfo(cp.Device)
	if err != nil {
		log.Logf("probing %s: %s", cp.Device, err)
		return &cp
	}
	if cp.DeviceUUID == "" {
		cp.DeviceUUID = bi.UUID
	}
	if cp.DevicePartUUID == "" {
		cp.DevicePartUUID = bi.PartUUID
	}
	if cp.FS == "" {
		cp.FS = bi.FsType.String()
	}
	cp.validate()
	return &cp
}
