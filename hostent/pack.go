// Package hostent lays lookup results out in a caller supplied buffer the
// way glibc expects struct hostent and struct gaih_addrtuple data: every
// pointer stored in the buffer is an absolute address inside it.
package hostent

import (
	"encoding/binary"
	"unsafe"

	"github.com/pkg/errors"

	"nss-netns/hosts"
)

// ErrBufferTooSmall is returned when the result does not fit. Nothing has
// been written to the buffer when it is returned.
var ErrBufferTooSmall = errors.New("buffer too small")

const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// Layout locates the struct hostent fields inside the packed buffer, as
// offsets from the start of the buffer.
type Layout struct {
	Name     int
	Aliases  int
	AddrList int
	AddrType int
	Length   int
}

type plan struct {
	addrList int
	aliases  int
	addrs    int
	name     int
	strs     []int
	end      int
	addrLen  int
}

func planHost(base uintptr, h hosts.Host) (plan, error) {
	addrLen := hosts.AddrLen(h.Family)
	if addrLen == 0 {
		return plan{}, ErrUnsupportedFamily
	}
	for _, a := range h.Addrs {
		if hosts.FamilyOf(a) != h.Family {
			return plan{}, errors.Errorf("address %s does not match family %d", a, h.Family)
		}
	}
	p := plan{addrLen: addrLen}
	off := alignPad(base, ptrSize)
	p.addrList = off
	off += (len(h.Addrs) + 1) * ptrSize
	p.aliases = off
	off += (len(h.Aliases) + 1) * ptrSize
	// still pointer aligned, which covers in_addr and in6_addr
	p.addrs = off
	off += len(h.Addrs) * addrLen
	p.name = off
	off += len(h.Name) + 1
	p.strs = make([]int, len(h.Aliases))
	for i, a := range h.Aliases {
		p.strs[i] = off
		off += len(a) + 1
	}
	p.end = off
	return p, nil
}

// Size is the number of buffer bytes Pack needs for h at base.
func Size(base uintptr, h hosts.Host) (int, error) {
	p, err := planHost(base, h)
	if err != nil {
		return 0, err
	}
	return p.end, nil
}

// Pack writes h into buf, which starts at address base. The whole layout is
// sized before the first byte is written.
func Pack(buf []byte, base uintptr, h hosts.Host) (Layout, error) {
	if len(h.Addrs) == 0 {
		return Layout{}, errors.New("host without addresses")
	}
	p, err := planHost(base, h)
	if err != nil {
		return Layout{}, err
	}
	if p.end > len(buf) {
		return Layout{}, errors.Wrapf(ErrBufferTooSmall, "need %d bytes, have %d", p.end, len(buf))
	}

	for i, a := range h.Addrs {
		off := p.addrs + i*p.addrLen
		copy(buf[off:off+p.addrLen], a.AsSlice())
		putPtr(buf, p.addrList+i*ptrSize, base+uintptr(off))
	}
	putPtr(buf, p.addrList+len(h.Addrs)*ptrSize, 0)

	putString(buf, p.name, h.Name)
	for i, a := range h.Aliases {
		putString(buf, p.strs[i], a)
		putPtr(buf, p.aliases+i*ptrSize, base+uintptr(p.strs[i]))
	}
	putPtr(buf, p.aliases+len(h.Aliases)*ptrSize, 0)

	return Layout{
		Name:     p.name,
		Aliases:  p.aliases,
		AddrList: p.addrList,
		AddrType: h.Family,
		Length:   p.addrLen,
	}, nil
}

// struct gaih_addrtuple {
//	struct gaih_addrtuple *next;
//	char *name;
//	int family;
//	uint32_t addr[4];
//	uint32_t scopeid;
// };
var (
	tupleName    = ptrSize
	tupleFamily  = 2 * ptrSize
	tupleAddr    = 2*ptrSize + 4
	tupleScopeID = 2*ptrSize + 20
	// TupleSize is sizeof(struct gaih_addrtuple).
	TupleSize = alignUp(2*ptrSize+24, ptrSize)
)

// PackTuples writes a gaih_addrtuple chain for h, one tuple per address in
// order. Only the first tuple carries the name. It returns the offset of the
// first tuple.
func PackTuples(buf []byte, base uintptr, h hosts.Host) (int, error) {
	return packTuples(nil, buf, base, h)
}

// PackTuplesInto fills head, a tuple the caller already allocated, with the
// first address and chains the remaining tuples and the name from buf.
// Nothing is written when buf is too small.
func PackTuplesInto(head []byte, buf []byte, base uintptr, h hosts.Host) error {
	if len(head) < TupleSize {
		return errors.Errorf("tuple of %d bytes, need %d", len(head), TupleSize)
	}
	_, err := packTuples(head[:TupleSize], buf, base, h)
	return err
}

func packTuples(head []byte, buf []byte, base uintptr, h hosts.Host) (int, error) {
	if len(h.Addrs) == 0 {
		return 0, errors.New("host without addresses")
	}
	inBuf := len(h.Addrs)
	if head != nil {
		inBuf--
	}
	first := alignPad(base, ptrSize)
	name := first + inBuf*TupleSize
	end := name + len(h.Name) + 1
	if end > len(buf) {
		return 0, errors.Wrapf(ErrBufferTooSmall, "need %d bytes, have %d", end, len(buf))
	}

	// slot i of the chain lives at first + (i-skip)*TupleSize in buf
	skip := len(h.Addrs) - inBuf
	putString(buf, name, h.Name)
	for i, a := range h.Addrs {
		var t []byte
		if i < skip {
			t = head
		} else {
			off := first + (i-skip)*TupleSize
			t = buf[off : off+TupleSize]
		}
		for j := range t {
			t[j] = 0
		}
		if i+1 < len(h.Addrs) {
			putPtr(t, 0, base+uintptr(first+(i+1-skip)*TupleSize))
		}
		if i == 0 {
			putPtr(t, tupleName, base+uintptr(name))
		}
		binary.NativeEndian.PutUint32(t[tupleFamily:], uint32(int32(hosts.FamilyOf(a))))
		copy(t[tupleAddr:tupleAddr+16], a.AsSlice())
		// scope id stays zero: zones are not kept in hosts tables
	}
	return first, nil
}

func putPtr(buf []byte, off int, v uintptr) {
	if ptrSize == 8 {
		binary.NativeEndian.PutUint64(buf[off:off+8], uint64(v))
		return
	}
	binary.NativeEndian.PutUint32(buf[off:off+4], uint32(v))
}

func putString(buf []byte, off int, s string) {
	copy(buf[off:], s)
	buf[off+len(s)] = 0
}

// alignPad is the distance from base to the next multiple of align.
func alignPad(base uintptr, align int) int {
	return int((uintptr(align) - base%uintptr(align)) % uintptr(align))
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
