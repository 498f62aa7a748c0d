package resolver

import (
	"net/netip"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"nss-netns/hosts"
	"nss-netns/namespace"
)

// Identifier reports the calling thread's network namespace.
type Identifier interface {
	Identify() (namespace.Identity, error)
}

// AddrSource resolves namespace names to interface addresses.
type AddrSource interface {
	Names() ([]string, error)
	Addrs(name string, family int) ([]netip.Addr, error)
}

// Options configures a Resolver.
type Options struct {
	Paths Paths
	// Multi collects every address of a multi-homed name.
	Multi bool
	// Names, when set, answers for the names of network namespaces after
	// the hosts file missed.
	Names AddrSource
}

// Resolver answers hosts database queries for the calling thread's
// namespace. It is safe for concurrent use.
type Resolver struct {
	ident Identifier
	cache *Cache
	opts  Options
}

func New(ident Identifier, cache *Cache, opts Options) *Resolver {
	return &Resolver{ident: ident, cache: cache, opts: opts}
}

// Current returns the identity and hosts table governing the calling thread.
// A missing hosts file yields an empty table.
func (r *Resolver) Current() (namespace.Identity, *hosts.Table, error) {
	id, err := r.ident.Identify()
	if err != nil {
		return id, nil, err
	}
	path, err := r.opts.Paths.HostsFile(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return id, &hosts.Table{}, nil
		}
		return id, nil, err
	}
	table, err := r.cache.Table(path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return id, &hosts.Table{}, nil
		}
		return id, nil, err
	}
	return id, table, nil
}

// HostsFile returns the path that governs the calling thread, for display.
func (r *Resolver) HostsFile() (namespace.Identity, string, error) {
	id, err := r.ident.Identify()
	if err != nil {
		return id, "", err
	}
	path, err := r.opts.Paths.HostsFile(id)
	return id, path, err
}

// LookupName resolves name for family (0 for any). A miss is reported as
// ErrNotFound.
func (r *Resolver) LookupName(name string, family int) (hosts.Host, error) {
	id, table, err := r.Current()
	if err != nil {
		return hosts.Host{}, err
	}
	h, err := r.lookupIn(table, name, family)
	if err != nil {
		return h, errors.Wrapf(err, "%s in %s", name, id)
	}
	return h, nil
}

// lookupIn answers from table, falling back to namespace addresses only for
// names the table does not carry in any family.
func (r *Resolver) lookupIn(table *hosts.Table, name string, family int) (hosts.Host, error) {
	if h, ok := table.LookupName(name, family, r.opts.Multi); ok {
		return h, nil
	}
	if !table.HasName(name) {
		if h, ok := r.namespaceHost(name, family); ok {
			return h, nil
		}
	}
	return hosts.Host{}, ErrNotFound
}

// LookupAny resolves name in both families, the way getaddrinfo asks. The
// canonical name and the leading addresses come from the family that
// matched first; the result's Family is 0 when both answered. Both families
// come from the same table snapshot.
func (r *Resolver) LookupAny(name string) (hosts.Host, error) {
	id, table, err := r.Current()
	if err != nil {
		return hosts.Host{}, err
	}
	h, err := r.lookupIn(table, name, 0)
	if err != nil {
		return h, errors.Wrapf(err, "%s in %s", name, id)
	}
	other := unix.AF_INET6
	if h.Family == unix.AF_INET6 {
		other = unix.AF_INET
	}
	more, err := r.lookupIn(table, name, other)
	if err != nil {
		return h, nil
	}
	h.Addrs = append(h.Addrs, more.Addrs...)
	h.Family = 0
	return h, nil
}

// LookupAddr resolves addr back to a host.
func (r *Resolver) LookupAddr(addr netip.Addr) (hosts.Host, error) {
	id, table, err := r.Current()
	if err != nil {
		return hosts.Host{}, err
	}
	if h, ok := table.LookupAddr(addr); ok {
		return h, nil
	}
	if h, ok := r.namespaceHostByAddr(addr); ok {
		return h, nil
	}
	return hosts.Host{}, errors.Wrapf(ErrNotFound, "%s in %s", addr, id)
}

// All lists every host visible from the calling thread: the hosts file
// records, then one entry per named namespace and family.
func (r *Resolver) All() ([]hosts.Host, error) {
	_, table, err := r.Current()
	if err != nil {
		return nil, err
	}
	out := table.Hosts()
	if r.opts.Names == nil {
		return out, nil
	}
	names, err := r.opts.Names.Names()
	if err != nil {
		log.Debugf("list namespaces: %v", err)
		return out, nil
	}
	for _, name := range names {
		for _, family := range []int{unix.AF_INET, unix.AF_INET6} {
			if h, ok := r.namespaceHost(name, family); ok {
				out = append(out, h)
			}
		}
	}
	return out, nil
}

func (r *Resolver) namespaceHost(name string, family int) (hosts.Host, bool) {
	if r.opts.Names == nil {
		return hosts.Host{}, false
	}
	addrs, err := r.opts.Names.Addrs(name, family)
	if err != nil {
		log.Debugf("namespace addresses for %s: %v", name, err)
		return hosts.Host{}, false
	}
	if family == 0 && len(addrs) > 0 {
		family = hosts.FamilyOf(addrs[0])
	}
	var picked []netip.Addr
	for _, a := range addrs {
		if hosts.FamilyOf(a) == family {
			picked = append(picked, a)
		}
	}
	if len(picked) == 0 {
		return hosts.Host{}, false
	}
	if !r.opts.Multi {
		picked = picked[:1]
	}
	return hosts.Host{Name: name, Family: family, Addrs: picked}, true
}

func (r *Resolver) namespaceHostByAddr(addr netip.Addr) (hosts.Host, bool) {
	if r.opts.Names == nil {
		return hosts.Host{}, false
	}
	names, err := r.opts.Names.Names()
	if err != nil {
		log.Debugf("list namespaces: %v", err)
		return hosts.Host{}, false
	}
	addr = addr.WithZone("")
	family := hosts.FamilyOf(addr)
	for _, name := range names {
		addrs, err := r.opts.Names.Addrs(name, family)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if a == addr {
				return hosts.Host{Name: name, Family: family, Addrs: []netip.Addr{addr}}, true
			}
		}
	}
	return hosts.Host{}, false
}
