// Package ifaddrs resolves the name of a named network namespace to the
// addresses configured on its interfaces.
package ifaddrs

import (
	"net/netip"
	"runtime"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"nss-netns/namespace"
)

// ErrNoNamespace is returned for a name that is not bound in any run dir.
var ErrNoNamespace = errors.New("no such named network namespace")

// Source lists namespaces and their addresses through netlink.
type Source struct {
	Namer *namespace.RunDirNamer
}

// NewSource looks namespaces up in runDirs.
func NewSource(runDirs ...string) *Source {
	return &Source{Namer: &namespace.RunDirNamer{Dirs: runDirs}}
}

// Names lists the named namespaces.
func (s *Source) Names() ([]string, error) {
	return s.Namer.List()
}

// Addrs returns the global and site scoped addresses inside namespace name,
// skipping loopback. family is unix.AF_INET, unix.AF_INET6 or 0 for both.
func (s *Source) Addrs(name string, family int) ([]netip.Addr, error) {
	path := s.Namer.Path(name)
	if path == "" {
		return nil, ErrNoNamespace
	}
	ns, err := netns.GetFromPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open netns %s", path)
	}
	defer ns.Close()

	h, err := handleAt(ns)
	if err != nil {
		return nil, errors.Wrapf(err, "netlink handle in %s", name)
	}
	defer h.Delete()

	nlFamily := netlink.FAMILY_ALL
	switch family {
	case unix.AF_INET:
		nlFamily = netlink.FAMILY_V4
	case unix.AF_INET6:
		nlFamily = netlink.FAMILY_V6
	}
	list, err := h.AddrList(nil, nlFamily)
	if err != nil {
		return nil, errors.Wrapf(err, "list addresses in %s", name)
	}
	return filterAddrs(list), nil
}

// handleAt opens a netlink socket inside ns. Opening one switches the
// current thread into ns and back, so it runs on a locked goroutine whose
// thread exits with it and the caller's thread never leaves its namespace.
func handleAt(ns netns.NsHandle) (*netlink.Handle, error) {
	type result struct {
		h   *netlink.Handle
		err error
	}
	done := make(chan result, 1)
	go func() {
		// never unlocked: the thread is destroyed instead of reused
		runtime.LockOSThread()
		h, err := netlink.NewHandleAt(ns, unix.NETLINK_ROUTE)
		done <- result{h, err}
	}()
	r := <-done
	return r.h, r.err
}

func filterAddrs(list []netlink.Addr) []netip.Addr {
	var out []netip.Addr
	for _, a := range list {
		if a.IPNet == nil {
			continue
		}
		if a.Scope == unix.RT_SCOPE_LINK || a.Scope == unix.RT_SCOPE_HOST || a.IP.IsLoopback() {
			continue
		}
		ip, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			log.Debugf("skip address %v", a.IP)
			continue
		}
		out = append(out, ip.Unmap())
	}
	return out
}
