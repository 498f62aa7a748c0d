package hosts

import (
	"net/netip"
)

// LookupName finds the first record whose name or alias matches name.
// family restricts the search to unix.AF_INET or unix.AF_INET6; 0 accepts
// either and pins the result to the family of the first hit. With multi set,
// addresses of later matching records of the same family are appended in
// file order, the way a multi-homed host is listed one address per line.
func (t *Table) LookupName(name string, family int, multi bool) (Host, bool) {
	if t == nil || name == "" {
		return Host{}, false
	}
	var h Host
	found := false
	for i := range t.Records {
		rec := &t.Records[i]
		if family != 0 && rec.Family() != family {
			continue
		}
		if !rec.Matches(name) {
			continue
		}
		if !found {
			found = true
			family = rec.Family()
			h = Host{
				Name:    rec.Name,
				Aliases: append([]string(nil), rec.Aliases...),
				Family:  family,
				Addrs:   []netip.Addr{rec.Addr},
			}
			if !multi {
				break
			}
			continue
		}
		h.Addrs = append(h.Addrs, rec.Addr)
	}
	return h, found
}

// HasName reports whether any record, of any family, carries name.
func (t *Table) HasName(name string) bool {
	if t == nil || name == "" {
		return false
	}
	for i := range t.Records {
		if t.Records[i].Matches(name) {
			return true
		}
	}
	return false
}

// LookupAddr returns the first record whose address equals addr.
func (t *Table) LookupAddr(addr netip.Addr) (Host, bool) {
	if t == nil || !addr.IsValid() {
		return Host{}, false
	}
	addr = addr.WithZone("")
	for i := range t.Records {
		rec := &t.Records[i]
		if rec.Addr == addr {
			return rec.host(), true
		}
	}
	return Host{}, false
}

// Hosts lists every record as a single-address Host, in file order.
func (t *Table) Hosts() []Host {
	if t == nil {
		return nil
	}
	out := make([]Host, 0, len(t.Records))
	for i := range t.Records {
		out = append(out, t.Records[i].host())
	}
	return out
}

// Len is the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

func (r *Record) host() Host {
	return Host{
		Name:    r.Name,
		Aliases: append([]string(nil), r.Aliases...),
		Family:  r.Family(),
		Addrs:   []netip.Addr{r.Addr},
	}
}
