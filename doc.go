// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Subpackages contain the boot-time glue of a ZFS-rooted NAS appliance.
//
// The main piece is the boot menu generator. It is installed as a
// /etc/grub.d helper and emits one group of GRUB menu entries per boot
// environment (a clone of the root filesystem under <pool>/ROOT), choosing
// between production and debug kernel builds according to the preference
// stored in the configuration database.
//
//   - cmd/truenas-grub: the generator, plus `inspect` to describe what it
//     would boot and `watch` to regenerate when /boot changes.
//   - cmd/truenas-pkg: install steps for the middleware source tree, as run
//     from the Debian packaging.
//   - cmd/truenas-links: renders and checks systemd .link files for stable
//     interface names.
//   - cmd/kver: prints the build info in a kernel image header.
//
// Use `mage` to build these targets.
package truenas
