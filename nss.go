package main

// #include <errno.h>
// #include <nss.h>
// #include <netdb.h>
// #include <sys/socket.h>
import "C"
import (
	"net/netip"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"nss-netns/hostent"
	"nss-netns/hosts"
	"nss-netns/resolver"
)

//export _nss_netns_gethostbyname4_r
func _nss_netns_gethostbyname4_r(name *C.char, pat *unsafe.Pointer, buffer *C.char,
	buflen C.size_t, errnop *C.int, herrnop *C.int, ttlp *C.int32_t) (status C.enum_nss_status) {
	defer guard(&status, errnop, herrnop)
	setup()

	h, err := res.LookupAny(C.GoString(name))
	if err == nil {
		err = fillTuples(h, pat, buffer, buflen)
	}
	if err == nil && ttlp != nil {
		*ttlp = 0
	}
	return report(err, errnop, herrnop)
}

// fillTuples fills the tuple *pat already points at, if any, and chains the
// rest from the buffer.
func fillTuples(h hosts.Host, pat *unsafe.Pointer, buffer *C.char, buflen C.size_t) error {
	if pat == nil {
		return errors.New("nil tuple pointer")
	}
	buf, base := cBuffer(buffer, buflen)
	if *pat != nil {
		head := unsafe.Slice((*byte)(*pat), hostent.TupleSize)
		return hostent.PackTuplesInto(head, buf, base, h)
	}
	off, err := hostent.PackTuples(buf, base, h)
	if err != nil {
		return err
	}
	*pat = unsafe.Add(unsafe.Pointer(buffer), off)
	return nil
}

//export _nss_netns_gethostbyname3_r
func _nss_netns_gethostbyname3_r(name *C.char, af C.int, result *C.struct_hostent,
	buffer *C.char, buflen C.size_t, errnop *C.int, herrnop *C.int, ttlp *C.int32_t,
	canonp **C.char) (status C.enum_nss_status) {
	defer guard(&status, errnop, herrnop)
	setup()

	if af == C.AF_UNSPEC {
		af = C.AF_INET
	}
	if af != C.AF_INET && af != C.AF_INET6 {
		return report(hostent.ErrUnsupportedFamily, errnop, herrnop)
	}

	h, err := res.LookupName(C.GoString(name), int(af))
	if err == nil {
		err = fillHostent(h, result, buffer, buflen)
	}
	if err == nil && canonp != nil {
		*canonp = result.h_name
	}
	if err == nil && ttlp != nil {
		*ttlp = 0
	}
	return report(err, errnop, herrnop)
}

//export _nss_netns_gethostbyname2_r
func _nss_netns_gethostbyname2_r(name *C.char, af C.int, result *C.struct_hostent,
	buffer *C.char, buflen C.size_t, errnop *C.int, herrnop *C.int) C.enum_nss_status {
	return _nss_netns_gethostbyname3_r(name, af, result, buffer, buflen, errnop, herrnop, nil, nil)
}

//export _nss_netns_gethostbyname_r
func _nss_netns_gethostbyname_r(name *C.char, result *C.struct_hostent, buffer *C.char,
	buflen C.size_t, errnop *C.int, herrnop *C.int) C.enum_nss_status {
	return _nss_netns_gethostbyname3_r(name, C.AF_INET, result, buffer, buflen, errnop, herrnop, nil, nil)
}

//export _nss_netns_gethostbyaddr_r
func _nss_netns_gethostbyaddr_r(addr unsafe.Pointer, length C.socklen_t, af C.int,
	result *C.struct_hostent, buffer *C.char, buflen C.size_t, errnop *C.int,
	herrnop *C.int) (status C.enum_nss_status) {
	defer guard(&status, errnop, herrnop)
	setup()

	var ip netip.Addr
	switch {
	case addr == nil:
		return report(hostent.ErrUnsupportedFamily, errnop, herrnop)
	case af == C.AF_INET && length == 4:
		ip = netip.AddrFrom4(*(*[4]byte)(addr))
	case af == C.AF_INET6 && length == 16:
		ip = netip.AddrFrom16(*(*[16]byte)(addr))
	default:
		return report(hostent.ErrUnsupportedFamily, errnop, herrnop)
	}

	h, err := res.LookupAddr(ip)
	if err == nil {
		err = fillHostent(h, result, buffer, buflen)
	}
	return report(err, errnop, herrnop)
}

// glibc serialises set/get/endhostent per database and passes no handle, so
// the library keeps one session for that stream.
var (
	entMu   sync.Mutex
	entTok  resolver.Token
	entOpen bool
)

func beginEnt() error {
	if entOpen {
		sessions.End(entTok)
		entOpen = false
	}
	tok, err := sessions.Begin()
	if err != nil {
		return err
	}
	entTok, entOpen = tok, true
	return nil
}

//export _nss_netns_sethostent
func _nss_netns_sethostent(stayopen C.int) (status C.enum_nss_status) {
	defer guard(&status, nil, nil)
	setup()

	entMu.Lock()
	defer entMu.Unlock()
	return report(beginEnt(), nil, nil)
}

//export _nss_netns_endhostent
func _nss_netns_endhostent() (status C.enum_nss_status) {
	defer guard(&status, nil, nil)
	setup()

	entMu.Lock()
	defer entMu.Unlock()
	if entOpen {
		sessions.End(entTok)
		entOpen = false
	}
	return C.NSS_STATUS_SUCCESS
}

//export _nss_netns_gethostent_r
func _nss_netns_gethostent_r(result *C.struct_hostent, buffer *C.char, buflen C.size_t,
	errnop *C.int, herrnop *C.int) (status C.enum_nss_status) {
	defer guard(&status, errnop, herrnop)
	setup()

	entMu.Lock()
	defer entMu.Unlock()
	if !entOpen {
		if err := beginEnt(); err != nil {
			return report(err, errnop, herrnop)
		}
	}
	err := sessions.Next(entTok, func(h hosts.Host) error {
		return fillHostent(h, result, buffer, buflen)
	})
	return report(err, errnop, herrnop)
}

func cBuffer(buffer *C.char, buflen C.size_t) ([]byte, uintptr) {
	if buffer == nil || buflen == 0 {
		return nil, 0
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(buffer)), int(buflen)), uintptr(unsafe.Pointer(buffer))
}

// fillHostent packs h into the caller's buffer and only then points result
// at it, so a too small buffer leaves result untouched.
func fillHostent(h hosts.Host, result *C.struct_hostent, buffer *C.char, buflen C.size_t) error {
	buf, base := cBuffer(buffer, buflen)
	l, err := hostent.Pack(buf, base, h)
	if err != nil {
		return err
	}
	p := unsafe.Pointer(buffer)
	result.h_name = (*C.char)(unsafe.Add(p, l.Name))
	result.h_aliases = (**C.char)(unsafe.Add(p, l.Aliases))
	result.h_addrtype = C.int(l.AddrType)
	result.h_length = C.int(l.Length)
	result.h_addr_list = (**C.char)(unsafe.Add(p, l.AddrList))
	return nil
}

func report(err error, errnop, herrnop *C.int) C.enum_nss_status {
	o := hostent.OutcomeOf(err)
	if o.Status != hostent.StatusSuccess {
		log.Debugf("nss_netns: %s: %v", o.Status, err)
		if errnop != nil {
			*errnop = C.int(o.Errno)
		}
		if herrnop != nil {
			*herrnop = C.int(o.Herrno)
		}
	}
	switch o.Status {
	case hostent.StatusSuccess:
		return C.NSS_STATUS_SUCCESS
	case hostent.StatusNotFound:
		return C.NSS_STATUS_NOTFOUND
	case hostent.StatusTryAgain:
		return C.NSS_STATUS_TRYAGAIN
	}
	return C.NSS_STATUS_UNAVAIL
}

// guard turns a panic into UNAVAIL; unwinding into C would kill the host
// process.
func guard(status *C.enum_nss_status, errnop, herrnop *C.int) {
	if r := recover(); r != nil {
		log.Errorf("nss_netns: panic: %v", r)
		*status = report(errors.Errorf("panic: %v", r), errnop, herrnop)
	}
}
