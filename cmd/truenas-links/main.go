// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// truenas-links manages systemd .link files for interface naming.
//
//	truenas-links render <rules.yaml> <dir>   write one .link file per rule
//	truenas-links match <rules.yaml>          show which interfaces rules rename
//	truenas-links schema                      print the JSON schema of a rules file
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/flags"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/systemd/linkfile"
)

// replaced in tests
var interfaces = linkfile.Interfaces

func main() {
	log.SetPrefix("truenas-links")
	log.AddConsoleLog(flags.NA)
	log.FlushMemLog()
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		log.Fatalf("%s", err)
	}
	log.Finalize()
}

func run(w io.Writer, args []string) error {
	if len(args) == 1 && args[0] == "schema" {
		data, err := json.MarshalIndent(linkfile.Schema(), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: truenas-links render <rules.yaml> <dir> | match <rules.yaml> | schema")
	}
	rules, err := linkfile.Load(args[1])
	if err != nil {
		return err
	}
	switch {
	case args[0] == "render" && len(args) == 3:
		if err = linkfile.Write(rules, args[2]); err != nil {
			return err
		}
		log.Msgf("wrote %d link files to %s", len(rules), args[2])
		return nil
	case args[0] == "match" && len(args) == 2:
		ifs, err := interfaces()
		if err != nil {
			return err
		}
		for _, m := range linkfile.Matches(rules, ifs) {
			note := ""
			if m.Partial {
				note = " (other conditions not checked)"
			}
			fmt.Fprintf(w, "%s %s -> %s via %s%s\n", m.Iface.Name, m.Iface.MAC, m.Rule.Name, m.Rule.File, note)
		}
		return nil
	}
	return fmt.Errorf("bad arguments %q", args)
}
