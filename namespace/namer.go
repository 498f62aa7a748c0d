package namespace

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// DefaultRunDir is where `ip netns add` bind-mounts named namespaces.
const DefaultRunDir = "/var/run/netns"

// Namer maps a namespace identity to a human readable name. An empty name
// with a nil error means the namespace is anonymous.
type Namer interface {
	Name(id Identity) (string, error)
}

// RunDirNamer finds the bind mount of a namespace inside a set of
// directories, the way `ip netns identify` does.
type RunDirNamer struct {
	Dirs []string
}

func (n *RunDirNamer) Name(id Identity) (string, error) {
	dirs := n.dirs()
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Debugf("read netns dir %s: %v", dir, err)
			}
			continue
		}
		for _, e := range entries {
			var st unix.Stat_t
			if err := unix.Stat(filepath.Join(dir, e.Name()), &st); err != nil {
				continue
			}
			if uint64(st.Dev) == id.Dev && uint64(st.Ino) == id.Ino {
				return e.Name(), nil
			}
		}
	}
	return "", nil
}

// List returns the names bound in the directories, first directory first.
// Duplicate names are reported once.
func (n *RunDirNamer) List() ([]string, error) {
	dirs := n.dirs()
	seen := make(map[string]bool)
	var names []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || seen[e.Name()] {
				continue
			}
			seen[e.Name()] = true
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Path returns the bind mount path of name, or "" when it is not bound.
func (n *RunDirNamer) Path(name string) string {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return ""
	}
	dirs := n.dirs()
	for _, dir := range dirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (n *RunDirNamer) dirs() []string {
	if len(n.Dirs) == 0 {
		return []string{DefaultRunDir}
	}
	return n.Dirs
}
