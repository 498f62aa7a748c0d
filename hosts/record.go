package hosts

import (
	"net/netip"
	"strings"

	"golang.org/x/sys/unix"
)

// Record is one parsed hosts file line.
type Record struct {
	Addr    netip.Addr
	Name    string
	Aliases []string
}

// Family returns unix.AF_INET or unix.AF_INET6.
func (r *Record) Family() int {
	return FamilyOf(r.Addr)
}

// Matches reports whether name equals the canonical name or an alias,
// ignoring case.
func (r *Record) Matches(name string) bool {
	if strings.EqualFold(r.Name, name) {
		return true
	}
	for _, alias := range r.Aliases {
		if strings.EqualFold(alias, name) {
			return true
		}
	}
	return false
}

// Host is a lookup hit: the canonical name and aliases of the first matching
// record plus every address collected for it.
type Host struct {
	Name    string
	Aliases []string
	Family  int
	Addrs   []netip.Addr
}

// FamilyOf maps an address to its socket family.
func FamilyOf(addr netip.Addr) int {
	if addr.Is4() {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

// AddrLen is the size of the raw address for family, 0 if unsupported.
func AddrLen(family int) int {
	switch family {
	case unix.AF_INET:
		return 4
	case unix.AF_INET6:
		return 16
	}
	return 0
}
