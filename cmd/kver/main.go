// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// kver prints the build info embedded in a kernel image's header.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/fileutil/kver"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/flags"
)

var buildId string

func main() {
	log.SetPrefix("kver")
	log.AddConsoleLog(flags.NA)
	log.FlushMemLog()
	short := flag.Bool("s", false, "one line per kernel instead of json")
	flag.Parse()
	log.Logf("buildId: %s", buildId)

	if flag.NArg() == 0 {
		log.Msgf("use: %s [-s] /path/to/kernel...", os.Args[0])
		log.Fatalf("need at least one kernel")
	}
	for _, k := range flag.Args() {
		if err := describe(os.Stdout, k, *short); err != nil {
			log.Fatalf("%s", err)
		}
	}
}

func describe(w io.Writer, path string, short bool) error {
	info, err := kver.Describe(path)
	if err != nil {
		return err
	}
	if short {
		_, err = fmt.Fprintf(w, "%s: %s\n", path, info)
		return err
	}
	j, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", j)
	return err
}
