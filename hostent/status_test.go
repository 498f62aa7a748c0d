package hostent

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"nss-netns/hosts"
	"nss-netns/namespace"
	"nss-netns/resolver"
)

func TestOutcomeOf(t *testing.T) {
	cases := []struct {
		err  error
		want Outcome
	}{
		{nil, Outcome{Status: StatusSuccess}},
		{errors.Wrap(ErrBufferTooSmall, "hostent"), Outcome{StatusTryAgain, unix.ERANGE, NetdbInternal}},
		{errors.Wrap(resolver.ErrNotFound, "alpha"), Outcome{StatusNotFound, unix.ENOENT, HostNotFound}},
		{resolver.ErrEndOfEntries, Outcome{StatusNotFound, unix.ENOENT, HostNotFound}},
		{ErrUnsupportedFamily, Outcome{StatusUnavail, unix.EAFNOSUPPORT, NoData}},
		{errors.Wrap(namespace.ErrUnavailable, "open"), Outcome{StatusUnavail, unix.ENOENT, NoRecovery}},
		{errors.Wrap(hosts.ErrMalformed, "read"), Outcome{StatusUnavail, unix.ENOENT, NoRecovery}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, OutcomeOf(c.err), "%v", c.err)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "TRYAGAIN", StatusTryAgain.String())
	assert.Equal(t, "SUCCESS", StatusSuccess.String())
	assert.Equal(t, "UNKNOWN", Status(7).String())
}
