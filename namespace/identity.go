package namespace

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// ErrUnavailable means the calling thread's network namespace could not be
// opened or inspected.
var ErrUnavailable = errors.New("network namespace unavailable")

// Identity identifies a network namespace for the duration of one lookup.
type Identity struct {
	Dev  uint64
	Ino  uint64
	Name string
}

// Equal compares the kernel identity only; the name is advisory.
func (id Identity) Equal(other Identity) bool {
	return id.Dev == other.Dev && id.Ino == other.Ino
}

func (id Identity) String() string {
	if id.Name != "" {
		return fmt.Sprintf("%s(net:[%d])", id.Name, id.Ino)
	}
	return fmt.Sprintf("net:[%d]", id.Ino)
}

// Identifier derives the Identity of the calling thread. It keeps no state
// between calls: a thread may setns(2) at any time.
type Identifier struct {
	Namer Namer
	// Open returns a handle on the namespace to identify. It defaults to the
	// calling thread's namespace.
	Open func() (netns.NsHandle, error)
}

// NewIdentifier names namespaces by the bind mounts found in runDirs.
func NewIdentifier(runDirs ...string) *Identifier {
	return &Identifier{Namer: &RunDirNamer{Dirs: runDirs}}
}

// Identify returns the Identity of the calling thread's network namespace.
func (i *Identifier) Identify() (Identity, error) {
	open := i.Open
	if open == nil {
		open = netns.Get
	}
	h, err := open()
	if err != nil {
		return Identity{}, errors.Wrapf(ErrUnavailable, "open: %v", err)
	}
	defer h.Close()

	id, err := identityOf(int(h))
	if err != nil {
		return Identity{}, err
	}
	if i.Namer != nil {
		name, err := i.Namer.Name(id)
		if err != nil {
			log.Debugf("name lookup for %s failed: %v", id, err)
		} else {
			id.Name = name
		}
	}
	return id, nil
}

// IdentifyPath returns the Identity of the namespace at path, for example a
// bind mount or /proc/<pid>/ns/net.
func (i *Identifier) IdentifyPath(path string) (Identity, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Identity{}, errors.Wrapf(ErrUnavailable, "stat %s: %v", path, err)
	}
	id := Identity{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}
	if i.Namer != nil {
		if name, err := i.Namer.Name(id); err == nil {
			id.Name = name
		}
	}
	return id, nil
}

func identityOf(fd int) (Identity, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return Identity{}, errors.Wrapf(ErrUnavailable, "fstat: %v", err)
	}
	return Identity{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, nil
}
