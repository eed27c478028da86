// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package configdb reads settings from the middleware's configuration
// database. The database is only ever opened read-only.
package configdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"

	_ "modernc.org/sqlite"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/bootmenu"
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

var ENoSetting = errors.New("setting not present")

// DB is an open, read-only configuration database.
type DB struct {
	path string
	db   *sql.DB
}

// Open opens the database at path without creating it.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	dsn := (&url.URL{Scheme: "file", OmitHost: true, Path: path, RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &DB{path: path, db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// DebugKernel returns the stored preference for booting debug kernels.
func (d *DB) DebugKernel(ctx context.Context) (bool, error) {
	var debug sql.NullBool
	err := d.db.QueryRowContext(ctx, "SELECT adv_debugkernel FROM system_advanced").Scan(&debug)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%s: adv_debugkernel: %w", d.path, ENoSetting)
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", d.path, err)
	}
	return debug.Valid && debug.Bool, nil
}

// LoadPreference reads the kernel flavor preference from the database at
// path. Any problem results in the production default and a log entry.
func LoadPreference(ctx context.Context, path string) (pref bootmenu.Preference) {
	d, err := Open(path)
	if err != nil {
		log.Logf("config db: %s, defaulting to production kernel", err)
		return
	}
	defer d.Close()
	pref.Debug, err = d.DebugKernel(ctx)
	if err != nil {
		log.Logf("config db: %s, defaulting to production kernel", err)
	}
	return
}
