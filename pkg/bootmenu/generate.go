// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package bootmenu turns the boot environments of a ZFS boot pool and the
// kernels found in them into GRUB menu entries, in the format grub-mkconfig
// expects from its /etc/grub.d scripts.
package bootmenu

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"text/template"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/grubcfg"
)

// Generate writes menu entries for envs to w. Only write errors are
// returned; problems with individual environments or kernels are logged and
// the offending item left out.
func Generate(w io.Writer, envs []*BootEnvironment, kernels KernelSet, cfg *grubcfg.Config, pref Preference) error {
	return Plan(envs, kernels, cfg, pref).Write(w, cfg)
}

// Write renders the menu.
func (m *Menu) Write(w io.Writer, cfg *grubcfg.Config) error {
	bw := bufio.NewWriter(w)
	for _, em := range m.Envs {
		if err := em.write(bw, cfg); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (em *EnvMenu) write(w io.Writer, cfg *grubcfg.Config) error {
	if em.Simple != nil {
		if err := writeEntry(w, em.Simple, cfg, ""); err != nil {
			return err
		}
	}
	indent := ""
	if em.Submenu {
		if _, err := io.WriteString(w, "submenu '"+grubQuote(em.SubmenuTitle)+
			"' $menuentry_id_option '"+grubQuote(em.SubmenuID)+"' {\n"); err != nil {
			return err
		}
		indent = "\t"
	}
	for _, e := range em.Advanced {
		if err := writeEntry(w, e, cfg, indent); err != nil {
			return err
		}
	}
	if em.Submenu {
		if _, err := io.WriteString(w, "}\n"); err != nil {
			return err
		}
	}
	return nil
}

type entryData struct {
	Title, ID, Class string
	ZFS              bool
	Search           string
	Version          string
	Kernel           string
	Root, Args       string
	Initrds          []string
}

const entryTmpl = `menuentry '{{q .Title}}' {{with .Class}}--class {{.}} {{end}}--class gnu-linux --class gnu --class os $menuentry_id_option '{{q .ID}}' {
	load_video
	insmod gzio
	if [ x$grub_platform = xxen ]; then insmod xzio; insmod lzopio; fi
	insmod part_gpt
{{- if .ZFS}}
	insmod zfs
{{- end}}
{{- with .Search}}
	search --no-floppy --fs-uuid --set=root {{.}}
{{- end}}
	echo	'Loading Linux {{q .Version}} ...'
	linux	{{.Kernel}}{{with .Root}} root={{.}}{{end}} ro{{with .Args}} {{.}}{{end}}
{{- with .Initrds}}
	echo	'Loading initial ramdisk ...'
	initrd	{{join . " "}}
{{- end}}
}
`

var entryTemplate = template.Must(template.New("menuentry").Funcs(template.FuncMap{
	"q":    grubQuote,
	"join": strings.Join,
}).Parse(entryTmpl))

func writeEntry(w io.Writer, e *MenuEntry, cfg *grubcfg.Config, indent string) error {
	img := e.Kernel
	d := entryData{
		Title:   e.Title,
		ID:      e.ID,
		Class:   cfg.Class(),
		ZFS:     cfg.IsZFS(),
		Search:  cfg.BootDeviceUUID,
		Version: img.Version,
		Kernel:  img.GrubDir + "/" + baseName(img.Path),
		Root:    e.Root,
		Args:    e.Args,
	}
	for _, i := range img.Early {
		d.Initrds = append(d.Initrds, img.GrubDir+"/"+i)
	}
	if img.Initrd != "" {
		d.Initrds = append(d.Initrds, img.GrubDir+"/"+img.Initrd)
	}
	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, d); err != nil {
		return err
	}
	out := buf.String()
	if indent != "" {
		out = indentLines(out, indent)
	}
	_, err := io.WriteString(w, out)
	return err
}

func baseName(p string) string {
	return p[strings.LastIndexByte(p, '/')+1:]
}

func indentLines(s, indent string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, l := range lines {
		if l != "" && l != "\n" {
			sb.WriteString(indent)
		}
		sb.WriteString(l)
	}
	return sb.String()
}

// grubQuote escapes s for use inside single quotes in grub.cfg.
func grubQuote(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}
