// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// truenas-grub writes the boot environment section of grub.cfg.
//
//	truenas-grub [mkconfig]   menu entries on stdout, for /etc/grub.d
//	truenas-grub inspect      describe kernels and initrds per environment
//	truenas-grub watch        run update-grub whenever /boot changes
//
// Diagnostics go to stderr; set TRUENAS_VERBOSE for all of them, and
// TRUENAS_LOG_DIR to also keep a log file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/common/strs"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/grubcfg"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log/flags"
)

var buildId string

func main() {
	log.SetPrefix("truenas-grub")
	flag.Usage = usage
	root := flag.String("root", "/", "filesystem root for configuration files")
	flag.Parse()
	setupLog()

	cmd := "mkconfig"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}
	if buildId != "" {
		log.Logf("truenas-grub %s: %s", buildId, cmd)
	}
	var err error
	switch cmd {
	case "mkconfig":
		err = mkconfig(os.Stdout, loadConfig(*root))
	case "inspect":
		err = inspect(os.Stdout, loadConfig(*root))
	case "watch":
		err = watch(flag.Args()[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %s", cmd, err)
	}
	log.Finalize()
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-root dir] [mkconfig|inspect|watch [dir...]]\n", os.Args[0])
	flag.PrintDefaults()
}

func setupLog() {
	if os.Getenv(strs.VerboseEnv()) != "" {
		log.AddConsoleLog(flags.NA)
	} else {
		log.AddConsoleLog(flags.EndUser)
	}
	if dir := os.Getenv(strs.LogDirEnv()); dir != "" {
		if _, err := log.AddFileLog(dir); err != nil {
			log.Msgf("cannot log to %s: %s", dir, err)
		}
	}
	log.FlushMemLog()
}

func loadConfig(root string) *grubcfg.Config {
	cfg, err := grubcfg.Load(root, os.Environ())
	if err != nil {
		log.Fatalf("loading grub configuration: %s", err)
	}
	return cfg.WithDevice()
}
