package hostent

import (
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"nss-netns/resolver"
)

// Status mirrors glibc's enum nss_status.
type Status int

const (
	StatusTryAgain Status = -2
	StatusUnavail  Status = -1
	StatusNotFound Status = 0
	StatusSuccess  Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusTryAgain:
		return "TRYAGAIN"
	case StatusUnavail:
		return "UNAVAIL"
	case StatusNotFound:
		return "NOTFOUND"
	case StatusSuccess:
		return "SUCCESS"
	}
	return "UNKNOWN"
}

// h_errno values from <netdb.h>.
const (
	NetdbInternal = -1
	HostNotFound  = 1
	TryAgain      = 2
	NoRecovery    = 3
	NoData        = 4
)

// ErrUnsupportedFamily rejects address families other than AF_INET and
// AF_INET6.
var ErrUnsupportedFamily = errors.New("address family not supported")

// Outcome is what an entry point reports back to glibc.
type Outcome struct {
	Status Status
	Errno  syscall.Errno
	Herrno int
}

// OutcomeOf maps an error from the lookup path to the NSS status triple.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Status: StatusSuccess}
	case errors.Is(err, ErrBufferTooSmall):
		return Outcome{StatusTryAgain, unix.ERANGE, NetdbInternal}
	case errors.Is(err, resolver.ErrNotFound), errors.Is(err, resolver.ErrEndOfEntries):
		return Outcome{StatusNotFound, unix.ENOENT, HostNotFound}
	case errors.Is(err, ErrUnsupportedFamily):
		return Outcome{StatusUnavail, unix.EAFNOSUPPORT, NoData}
	}
	return Outcome{StatusUnavail, unix.ENOENT, NoRecovery}
}
