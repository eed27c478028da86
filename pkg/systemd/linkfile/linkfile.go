// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package linkfile writes systemd .link files that give network interfaces
// fixed names based on hardware properties, and reports which interfaces on
// the running system a set of rules would apply to.
package linkfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	fp "path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

var (
	ENoMatch = errors.New("rule has no match conditions")
	ENoName  = errors.New("rule sets no interface name")
	EBadFile = errors.New("file name must end in .link and contain no path")
)

// Rule is one .link file.
type Rule struct {
	// File is the file name, e.g. 10-truenas-mgmt.link.
	File string `yaml:"file" json:"file,omitempty"`
	// Match conditions; all that are set must hold.
	MACAddress          string `yaml:"mac" json:"mac,omitempty"`
	PermanentMACAddress string `yaml:"permanent_mac" json:"permanent_mac,omitempty"`
	Driver              string `yaml:"driver" json:"driver,omitempty"`
	Path                string `yaml:"path" json:"path,omitempty"`
	OriginalName        string `yaml:"original_name" json:"original_name,omitempty"`
	// Link settings.
	Name  string `yaml:"name" json:"name,omitempty"`
	Alias string `yaml:"alias" json:"alias,omitempty"`
}

// Load reads a YAML list of rules.
func Load(name string) ([]Rule, error) {
	data, err := ioutil.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML list of rules.
func Parse(data []byte) (rules []Rule, err error) {
	if err = checkSchema(data); err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	for i := range rules {
		if err = rules[i].validate(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rules[i].File, err)
		}
	}
	return
}

func (r *Rule) validate() error {
	if r.File == "" || r.File != fp.Base(r.File) || !strings.HasSuffix(r.File, ".link") {
		return EBadFile
	}
	if r.Name == "" {
		return ENoName
	}
	if r.MACAddress == "" && r.PermanentMACAddress == "" && r.Driver == "" &&
		r.Path == "" && r.OriginalName == "" {
		return ENoMatch
	}
	for _, mac := range []string{r.MACAddress, r.PermanentMACAddress} {
		if mac == "" {
			continue
		}
		if _, err := net.ParseMAC(mac); err != nil {
			return err
		}
	}
	return nil
}

/* template
*
* dashes ( `{{-` or `-}}` ) affect whitespace and should be changed with care
 */

var linkTmpl = template.Must(template.New("link").Funcs(template.FuncMap{
	"ToLower": strings.ToLower,
}).Parse(linkTxt))

const linkTxt = `# {{ .File }}
[Match]
{{- with .MACAddress }}
MACAddress={{ . | ToLower }}
{{- end }}
{{- with .PermanentMACAddress }}
PermanentMACAddress={{ . | ToLower }}
{{- end }}
{{- with .Driver }}
Driver={{ . }}
{{- end }}
{{- with .Path }}
Path={{ . }}
{{- end }}
{{- with .OriginalName }}
OriginalName={{ . }}
{{- end }}

[Link]
Name={{ .Name }}
{{- with .Alias }}
Alias={{ . }}
{{- end }}
`

// Render returns the .link file text.
func Render(r Rule) ([]byte, error) {
	out := new(bytes.Buffer)
	if err := linkTmpl.Execute(out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Write writes one file per rule into dir. Failures are logged, and the
// first is returned after all rules have been tried.
func Write(rules []Rule, dir string) (err error) {
	for _, r := range rules {
		data, rerr := Render(r)
		if rerr == nil {
			rerr = ioutil.WriteFile(fp.Join(dir, r.File), data, 0644)
		}
		if rerr != nil {
			log.Logf("failed to write link file %s: %s", r.File, rerr)
			if err == nil {
				err = rerr
			}
		}
	}
	return
}
