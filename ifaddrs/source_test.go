package ifaddrs

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"runtime"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"nss-netns/namespace"
)

func mustAddr(t *testing.T, cidr string, scope int) netlink.Addr {
	a, err := netlink.ParseAddr(cidr)
	require.NoError(t, err)
	a.Scope = scope
	return *a
}

func TestFilterAddrs(t *testing.T) {
	list := []netlink.Addr{
		mustAddr(t, "127.0.0.1/8", unix.RT_SCOPE_HOST),
		mustAddr(t, "192.0.2.10/24", unix.RT_SCOPE_UNIVERSE),
		mustAddr(t, "fe80::1/64", unix.RT_SCOPE_LINK),
		mustAddr(t, "2001:db8::10/64", unix.RT_SCOPE_UNIVERSE),
		mustAddr(t, "::1/128", unix.RT_SCOPE_UNIVERSE),
		{},
	}
	assert.Equal(t, []netip.Addr{
		netip.MustParseAddr("192.0.2.10"),
		netip.MustParseAddr("2001:db8::10"),
	}, filterAddrs(list))
}

func TestAddrsUnknownNamespace(t *testing.T) {
	s := NewSource(t.TempDir())
	_, err := s.Addrs("nope", 0)
	assert.True(t, errors.Is(err, ErrNoNamespace))

	names, err := s.Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestAddrsInNamedNamespace(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("creating network namespaces needs root")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := netns.Get()
	require.NoError(t, err)
	defer orig.Close()

	name := fmt.Sprintf("ifaddrs%d", os.Getpid())
	h, err := netns.NewNamed(name)
	require.NoError(t, err)
	defer func() {
		h.Close()
		_ = netns.DeleteNamed(name)
	}()

	link := &netlink.Dummy{LinkAttrs: netlink.LinkAttrs{Name: "nss0"}}
	require.NoError(t, netlink.LinkAdd(link))
	require.NoError(t, netlink.AddrAdd(link, &netlink.Addr{IPNet: &net.IPNet{
		IP:   net.ParseIP("192.0.2.10"),
		Mask: net.CIDRMask(24, 32),
	}}))
	require.NoError(t, netlink.LinkSetUp(link))
	require.NoError(t, netns.Set(orig))

	s := NewSource(namespace.DefaultRunDir)
	names, err := s.Names()
	require.NoError(t, err)
	assert.Contains(t, names, name)

	addrs, err := s.Addrs(name, unix.AF_INET)
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("192.0.2.10")}, addrs)

	addrs, err = s.Addrs(name, unix.AF_INET6)
	require.NoError(t, err)
	assert.Empty(t, addrs)

	cur, err := netns.Get()
	require.NoError(t, err)
	defer cur.Close()
	assert.True(t, cur.Equal(orig), "lookup left the calling thread in another namespace")
}

func TestHandleAtKeepsCallerNamespace(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("setns needs root")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := netns.Get()
	require.NoError(t, err)
	defer orig.Close()

	h, err := handleAt(orig)
	require.NoError(t, err)
	defer h.Delete()
	_, err = h.AddrList(nil, netlink.FAMILY_ALL)
	require.NoError(t, err)

	cur, err := netns.Get()
	require.NoError(t, err)
	defer cur.Close()
	assert.True(t, cur.Equal(orig))
}
