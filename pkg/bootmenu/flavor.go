// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package bootmenu

import (
	"strings"

	"github.com/wongsyrone/truenas-scale-middleware/pkg/grubcfg"
)

// Flavor tells production and debug kernel builds apart.
type Flavor int

const (
	FlavorUndetermined Flavor = iota
	FlavorProduction
	FlavorDebug
)

const (
	productionTag = "production+"
	debugTag      = "debug+"
)

func (f Flavor) String() string {
	switch f {
	case FlavorProduction:
		return "production"
	case FlavorDebug:
		return "debug"
	}
	return "undetermined"
}

// FlavorOf derives the flavor from a kernel version such as
// 6.6.44-production+truenas.
func FlavorOf(version string) Flavor {
	switch {
	case strings.Contains(version, productionTag):
		return FlavorProduction
	case strings.Contains(version, debugTag):
		return FlavorDebug
	}
	return FlavorUndetermined
}

// logicalVersion is the version with the flavor word removed, so that both
// builds of one kernel compare equal.
func logicalVersion(version string) string {
	if i := strings.Index(version, productionTag); i >= 0 {
		return version[:i] + version[i+len("production"):]
	}
	if i := strings.Index(version, debugTag); i >= 0 {
		return version[:i] + version[i+len("debug"):]
	}
	return version
}

// Preference is the stored choice between debug and production kernels.
type Preference struct {
	Debug bool
}

// Preferred is the flavor to make the default. A forced production setting
// wins over the stored preference.
func (p Preference) Preferred(cfg *grubcfg.Config) Flavor {
	if p.Debug && !cfg.ForceProduction {
		return FlavorDebug
	}
	return FlavorProduction
}
