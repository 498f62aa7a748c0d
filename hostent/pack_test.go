package hostent

import (
	"bytes"
	"encoding/binary"
	"net/netip"
	"testing"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"nss-netns/hosts"
)

var alpha = hosts.Host{
	Name:    "alpha.internal",
	Aliases: []string{"alpha", "a"},
	Family:  unix.AF_INET,
	Addrs:   []netip.Addr{netip.MustParseAddr("10.0.0.5"), netip.MustParseAddr("10.0.0.9")},
}

var sink []byte

// heapBuf keeps test buffers off the goroutine stack, which may move.
func heapBuf(n int) []byte {
	b := make([]byte, n)
	sink = b
	return b
}

func baseOf(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(&buf[0]))
}

func readPtr(buf []byte, off int) uintptr {
	if ptrSize == 8 {
		return uintptr(binary.NativeEndian.Uint64(buf[off:]))
	}
	return uintptr(binary.NativeEndian.Uint32(buf[off:]))
}

// cString follows an absolute pointer back into buf.
func cString(t *testing.T, buf []byte, ptr uintptr) string {
	off := int(ptr - baseOf(buf))
	require.True(t, off >= 0 && off < len(buf), "pointer outside buffer")
	end := bytes.IndexByte(buf[off:], 0)
	require.True(t, end >= 0, "unterminated string")
	return string(buf[off : off+end])
}

func ptrArray(buf []byte, off int) []uintptr {
	var out []uintptr
	for {
		p := readPtr(buf, off)
		if p == 0 {
			return out
		}
		out = append(out, p)
		off += ptrSize
	}
}

func TestPackHostent(t *testing.T) {
	for shift := 0; shift < ptrSize; shift++ {
		backing := heapBuf(512)
		buf := backing[shift:]
		l, err := Pack(buf, baseOf(buf), alpha)
		require.NoError(t, err)

		assert.Equal(t, "alpha.internal", cString(t, buf, baseOf(buf)+uintptr(l.Name)))
		assert.Equal(t, unix.AF_INET, l.AddrType)
		assert.Equal(t, 4, l.Length)
		assert.Zero(t, (baseOf(buf)+uintptr(l.AddrList))%uintptr(ptrSize), "address list aligned")
		assert.Zero(t, (baseOf(buf)+uintptr(l.Aliases))%uintptr(ptrSize), "alias list aligned")

		var aliases []string
		for _, p := range ptrArray(buf, l.Aliases) {
			aliases = append(aliases, cString(t, buf, p))
		}
		assert.Equal(t, []string{"alpha", "a"}, aliases)

		var addrs []netip.Addr
		for _, p := range ptrArray(buf, l.AddrList) {
			off := int(p - baseOf(buf))
			a, ok := netip.AddrFromSlice(buf[off : off+l.Length])
			require.True(t, ok)
			addrs = append(addrs, a)
		}
		assert.Equal(t, alpha.Addrs, addrs)

		need, err := Size(baseOf(buf), alpha)
		require.NoError(t, err)
		assert.LessOrEqual(t, need, len(buf))
	}
}

func TestPackIPv6(t *testing.T) {
	h := hosts.Host{Name: "six", Family: unix.AF_INET6, Addrs: []netip.Addr{netip.MustParseAddr("2001:db8::5")}}
	buf := heapBuf(256)
	l, err := Pack(buf, baseOf(buf), h)
	require.NoError(t, err)
	assert.Equal(t, 16, l.Length)
	assert.Empty(t, ptrArray(buf, l.Aliases))
	p := ptrArray(buf, l.AddrList)
	require.Len(t, p, 1)
	off := int(p[0] - baseOf(buf))
	assert.Equal(t, h.Addrs[0].AsSlice(), buf[off:off+16])
}

func TestPackTooSmallLeavesBufferAlone(t *testing.T) {
	backing := heapBuf(512)
	need, err := Size(baseOf(backing), alpha)
	require.NoError(t, err)
	for n := 1; n < need; n++ {
		buf := bytes.Repeat([]byte{0xaa}, n)
		_, err := Pack(buf, baseOf(buf), alpha)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrBufferTooSmall))
		assert.Equal(t, bytes.Repeat([]byte{0xaa}, n), buf, "size %d", n)
	}
}

func TestPackRejectsMixedFamilies(t *testing.T) {
	h := alpha
	h.Addrs = append([]netip.Addr{netip.MustParseAddr("::1")}, alpha.Addrs...)
	buf := heapBuf(512)
	_, err := Pack(buf, baseOf(buf), h)
	assert.Error(t, err)

	h = alpha
	h.Family = unix.AF_UNIX
	_, err = Pack(buf, baseOf(buf), h)
	assert.True(t, errors.Is(err, ErrUnsupportedFamily))
}

func TestPackTuples(t *testing.T) {
	h := hosts.Host{
		Name: "dual",
		Addrs: []netip.Addr{
			netip.MustParseAddr("10.0.0.1"),
			netip.MustParseAddr("2001:db8::1"),
		},
	}
	backing := heapBuf(256)
	buf := backing[3:]
	first, err := PackTuples(buf, baseOf(buf), h)
	require.NoError(t, err)
	assert.Zero(t, (baseOf(buf)+uintptr(first))%uintptr(ptrSize))

	next := readPtr(buf, first)
	require.Equal(t, baseOf(buf)+uintptr(first+TupleSize), next)
	assert.Equal(t, "dual", cString(t, buf, readPtr(buf, first+tupleName)))
	assert.Equal(t, uint32(unix.AF_INET), binary.NativeEndian.Uint32(buf[first+tupleFamily:]))
	assert.Equal(t, []byte{10, 0, 0, 1}, buf[first+tupleAddr:first+tupleAddr+4])

	second := int(next - baseOf(buf))
	assert.Zero(t, readPtr(buf, second), "last tuple ends the chain")
	assert.Zero(t, readPtr(buf, second+tupleName))
	assert.Equal(t, uint32(unix.AF_INET6), binary.NativeEndian.Uint32(buf[second+tupleFamily:]))
	assert.Equal(t, h.Addrs[1].AsSlice(), buf[second+tupleAddr:second+tupleAddr+16])
	assert.Zero(t, binary.NativeEndian.Uint32(buf[second+tupleScopeID:]))
}

func TestPackTuplesTooSmall(t *testing.T) {
	h := hosts.Host{Name: "x", Addrs: []netip.Addr{netip.MustParseAddr("10.0.0.1")}}
	buf := bytes.Repeat([]byte{0xaa}, TupleSize)
	_, err := PackTuples(buf, baseOf(buf), h)
	// the tuple fits but its name does not
	assert.True(t, errors.Is(err, ErrBufferTooSmall))
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, TupleSize), buf)
}

func TestPackTuplesInto(t *testing.T) {
	h := hosts.Host{
		Name: "dual",
		Addrs: []netip.Addr{
			netip.MustParseAddr("10.0.0.1"),
			netip.MustParseAddr("2001:db8::1"),
		},
	}
	head := heapBuf(TupleSize)
	buf := heapBuf(256)
	require.NoError(t, PackTuplesInto(head, buf, baseOf(buf), h))

	assert.Equal(t, "dual", cString(t, buf, readPtr(head, tupleName)))
	assert.Equal(t, uint32(unix.AF_INET), binary.NativeEndian.Uint32(head[tupleFamily:]))
	assert.Equal(t, []byte{10, 0, 0, 1}, head[tupleAddr:tupleAddr+4])

	next := readPtr(head, 0)
	require.NotZero(t, next)
	second := int(next - baseOf(buf))
	assert.Zero(t, next%uintptr(ptrSize))
	assert.Zero(t, readPtr(buf, second))
	assert.Equal(t, uint32(unix.AF_INET6), binary.NativeEndian.Uint32(buf[second+tupleFamily:]))
	assert.Equal(t, h.Addrs[1].AsSlice(), buf[second+tupleAddr:second+tupleAddr+16])
}

func TestPackTuplesIntoSingleAddress(t *testing.T) {
	h := hosts.Host{Name: "one", Addrs: []netip.Addr{netip.MustParseAddr("10.0.0.1")}}
	head := heapBuf(TupleSize)
	buf := heapBuf(16)
	require.NoError(t, PackTuplesInto(head, buf, baseOf(buf), h))
	assert.Zero(t, readPtr(head, 0), "single tuple ends the chain")
	assert.Equal(t, "one", cString(t, buf, readPtr(head, tupleName)))
}

func TestPackTuplesIntoTooSmall(t *testing.T) {
	h := hosts.Host{Name: "name", Addrs: []netip.Addr{netip.MustParseAddr("10.0.0.1")}}
	head := bytes.Repeat([]byte{0xbb}, TupleSize)
	buf := bytes.Repeat([]byte{0xaa}, 2)
	err := PackTuplesInto(head, buf, baseOf(buf), h)
	assert.True(t, errors.Is(err, ErrBufferTooSmall))
	assert.Equal(t, bytes.Repeat([]byte{0xbb}, TupleSize), head)
	assert.Equal(t, bytes.Repeat([]byte{0xaa}, 2), buf)

	assert.Error(t, PackTuplesInto(head[:4], heapBuf(64), 0, h))
}
