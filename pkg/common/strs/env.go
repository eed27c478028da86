// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package strs

func ForceProductionEnv() string { return EnvPrefix() + "FORCE_PRODUCTION_KERNEL" }
func ForceAdvancedEnv() string   { return EnvPrefix() + "FORCE_ADVANCED" }
func VerboseEnv() string         { return EnvPrefix() + "VERBOSE" }
func LogDirEnv() string          { return EnvPrefix() + "LOG_DIR" }
