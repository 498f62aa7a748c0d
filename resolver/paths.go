package resolver

import (
	"path/filepath"

	"github.com/pkg/errors"

	"nss-netns/namespace"
	"nss-netns/utils"
)

const (
	DefaultSystemHosts = "/etc/hosts"
	DefaultNetnsDir    = "/etc/netns"
)

// ErrNotFound means there is no hosts file to consult; callers answer
// "no such entry".
var ErrNotFound = errors.New("no hosts file")

// Paths picks the hosts file that governs a namespace.
type Paths struct {
	System   string
	NetnsDir string
}

// HostsFile returns <NetnsDir>/<name>/hosts for a named namespace when that
// file exists, otherwise the system hosts file.
func (p Paths) HostsFile(id namespace.Identity) (string, error) {
	if id.Name != "" && p.NetnsDir != "" && id.Name == filepath.Base(id.Name) {
		path := filepath.Join(p.NetnsDir, id.Name, "hosts")
		exists, err := utils.PathExists(path)
		if err != nil {
			return "", errors.WithMessagef(err, "check %s", path)
		}
		if exists {
			return path, nil
		}
	}
	system := p.System
	if system == "" {
		system = DefaultSystemHosts
	}
	exists, err := utils.PathExists(system)
	if err != nil {
		return "", errors.WithMessagef(err, "check %s", system)
	}
	if !exists {
		return "", errors.Wrapf(ErrNotFound, "namespace %s", id)
	}
	return system, nil
}
