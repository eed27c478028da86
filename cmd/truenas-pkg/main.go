// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// truenas-pkg installs the middleware from a source checkout.
// usage: truenas-pkg [-C dir] <target>...
//
// "divert" takes the next argument as a file listing paths to divert.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/common/strs"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/flags"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/pkgops"
)

func main() {
	log.SetPrefix("truenas-pkg")
	dir := flag.String("C", ".", "middleware source directory")
	verbose := flag.Bool("v", false, "show commands as they run")
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()
	if *verbose {
		log.AddConsoleLog(flags.NA)
	} else {
		log.AddConsoleLog(flags.EndUser)
	}
	log.FlushMemLog()

	src := pkgops.NewSource(*dir)
	if err := run(src, flag.Args()); err != nil {
		log.Fatalf("%s", err)
	}
	log.Finalize()
}

type step struct {
	name string
	fn   func() error
}

// run executes each named target in order, stopping at the first failure.
func run(src *pkgops.Source, names []string) error {
	if len(names) == 0 {
		usage(os.Stderr)
		return fmt.Errorf("no target given")
	}
	targets := src.Targets()
	var steps []step
	for i := 0; i < len(names); i++ {
		n := names[i]
		if n == "divert" {
			if i+1 >= len(names) {
				return fmt.Errorf("divert: missing list file")
			}
			list := names[i+1]
			i++
			steps = append(steps, step{n, func() error {
				return pkgops.DivertFromList(strs.MiddlewarePackage(), list)
			}})
			continue
		}
		fn, ok := targets[n]
		if !ok {
			return fmt.Errorf("unknown target %q", n)
		}
		steps = append(steps, step{n, fn})
	}
	for _, st := range steps {
		if err := st.fn(); err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s [-C dir] [-v] <target>...\ntargets:\n", os.Args[0])
	var names []string
	for n := range pkgops.NewSource(".").Targets() {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", n)
	}
	fmt.Fprintf(w, "  divert <list>\n")
}
