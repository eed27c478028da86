// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package linkfile

import (
	"net"
	"path"
	"strings"

	"github.com/vishvananda/netlink"
)

// Iface is what Match knows about an interface.
type Iface struct {
	Name string
	MAC  string
}

// Match is a rule that applies to an interface.
type Match struct {
	Rule  Rule
	Iface Iface
	// Partial is set when the rule also has conditions (driver, path,
	// permanent MAC) that can't be checked here; udev may still reject it.
	Partial bool
}

// Interfaces lists the system's interfaces.
func Interfaces() ([]Iface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}
	var ifs []Iface
	for _, l := range links {
		a := l.Attrs()
		if a == nil {
			continue
		}
		ifs = append(ifs, Iface{Name: a.Name, MAC: a.HardwareAddr.String()})
	}
	return ifs, nil
}

// Matches reports, for each interface, the first rule that would apply to
// it. Only MAC address and original-name globs are evaluated; rules with
// neither are skipped.
func Matches(rules []Rule, ifs []Iface) (found []Match) {
	for _, i := range ifs {
		for _, r := range rules {
			ok, partial := r.matches(i)
			if ok {
				found = append(found, Match{Rule: r, Iface: i, Partial: partial})
				break
			}
		}
	}
	return
}

func (r Rule) matches(i Iface) (ok, partial bool) {
	if r.MACAddress == "" && r.OriginalName == "" {
		return false, false
	}
	if r.MACAddress != "" && normMAC(r.MACAddress) != normMAC(i.MAC) {
		return false, false
	}
	if r.OriginalName != "" && !globMatch(r.OriginalName, i.Name) {
		return false, false
	}
	partial = r.PermanentMACAddress != "" || r.Driver != "" || r.Path != ""
	return true, partial
}

// normMAC canonicalises colon, dash and dot forms. Unparseable input is
// only lowercased.
func normMAC(m string) string {
	if hw, err := net.ParseMAC(m); err == nil {
		return hw.String()
	}
	return strings.ToLower(m)
}

// globMatch handles OriginalName's whitespace separated list of globs.
func globMatch(globs, name string) bool {
	for _, g := range strings.Fields(globs) {
		if m, _ := path.Match(g, name); m {
			return true
		}
	}
	return false
}
