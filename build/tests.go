// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/magefile/mage/mg"

	"github.com/wongsyrone/truenas-scale-middleware/build/paths"
)

/* Env vars
RUN - passed to go test -run. Only tests that match the given regex will run.
COUNT - passed to go test -count. Use 1 to bypass test result caching, and
    higher values to repeat tests.
*/

type Tests mg.Namespace

// runs unit tests
func (Tests) Unit(ctx context.Context) error {
	args, err := testArgs(ctx, nil)
	if err != nil {
		return err
	}
	return gotest(ctx, args...)
}

// args for 'go test': pkg, -run, -count, -timeout
func testArgs(ctx context.Context, pkgs []string) ([]string, error) {
	if len(pkgs) == 0 {
		pkgs = paths.GoDirs
	}
	var args []string
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		dur := time.Until(deadline) - 20*time.Second //less time than the exact deadline so go test can print out message about what test it's on
		if dur < 0 {
			return nil, mg.Fatal(1, "deadline exceeded")
		}
		args = append(args, "-timeout", dur.String())
	}
	args = append(args, pkgs...)
	if run := os.Getenv("RUN"); run != "" {
		args = append(args, "-run", run)
	}
	if count := os.Getenv("COUNT"); count != "" {
		if _, err := strconv.Atoi(count); err != nil {
			return nil, mg.Fatalf(3, "COUNT must be unset or numeric: %s", err)
		}
		args = append(args, "-count", count)
	}
	return args, nil
}

func gotest(ctx context.Context, args ...string) error {
	tst := exec.CommandContext(ctx, "go", append([]string{"test"}, args...)...)
	tst.Dir = paths.RepoRoot
	fmt.Printf("running %v...\n", tst.Args)
	out, err := tst.CombinedOutput()
	if err != nil {
		fmt.Printf("'go test' output:\n%s\n", string(out))
		return mg.Fatal(5, "go test error:", err)
	}
	fmt.Println("'go test' passes")
	return nil
}

func (Tests) Lint(ctx context.Context) error {
	lp, err := exec.LookPath("golangci-lint")
	if err != nil {
		return mg.Fatal(6, "golangci-lint not found in PATH")
	}
	lint := exec.CommandContext(ctx, lp, "run", "./...")
	lint.Stderr = os.Stderr
	lint.Stdout = os.Stdout
	lint.Dir = paths.RepoRoot
	if err = lint.Run(); err != nil {
		return mg.Fatal(9, "golangci-lint exec:", err)
	}
	fmt.Println("golangci-lint: success")
	return nil
}
