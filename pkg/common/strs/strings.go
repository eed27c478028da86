// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Abstraction for product strings that a derivative build will likely wish
// to change.
package strs

import (
	"github.com/wongsyrone/truenas-scale-middleware/pkg/log"
)

// Abstraction for product strings that a derivative build will likely wish
// to change.
type Stringer interface {
	//Name shown in boot menu titles when GRUB_DISTRIBUTOR is unset.
	Distributor() string
	//Pool holding the boot environments.
	BootPool() string
	//Path of the configuration database.
	ConfigDB() string
	//User property holding a boot environment's kernel version.
	KernelVersionProp() string
	//Name of the middleware service unit.
	MiddlewareService() string
	//Debian package name of the middleware.
	MiddlewarePackage() string
	//Prefix used for env vars.
	EnvPrefix() string
}

var stringImpl Stringer

// Override defaults.
func SetStringer(b Stringer) {
	if stringImpl != nil {
		log.Log("strs: overriding non-nil impl")
	}
	stringImpl = b
}

func Distributor() string {
	if stringImpl != nil {
		return stringImpl.Distributor()
	}
	return "TrueNAS"
}

func BootPool() string {
	if stringImpl != nil {
		return stringImpl.BootPool()
	}
	return "boot-pool"
}

func ConfigDB() string {
	if stringImpl != nil {
		return stringImpl.ConfigDB()
	}
	return "/data/freenas-v1.db"
}

func KernelVersionProp() string {
	if stringImpl != nil {
		return stringImpl.KernelVersionProp()
	}
	return "truenas:kernel_version"
}

func MiddlewareService() string {
	if stringImpl != nil {
		return stringImpl.MiddlewareService()
	}
	return "middlewared"
}

func MiddlewarePackage() string {
	if stringImpl != nil {
		return stringImpl.MiddlewarePackage()
	}
	return "middlewared"
}

func EnvPrefix() string {
	if stringImpl != nil {
		return stringImpl.EnvPrefix()
	}
	return "TRUENAS_"
}

// container dataset whose children are the boot environments
func BEContainer(pool string) string { return pool + "/ROOT" }
