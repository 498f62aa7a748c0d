// Package nsenter runs code with the calling OS thread moved into another
// network namespace.
package nsenter

import (
	"runtime"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netns"
)

// Do locks the goroutine to its thread, switches the thread into the
// namespace at path, runs fn and switches back. If the original namespace
// cannot be restored the thread stays locked, so the runtime retires it
// instead of reusing it elsewhere.
func Do(path string, fn func() error) error {
	runtime.LockOSThread()

	orig, err := netns.Get()
	if err != nil {
		runtime.UnlockOSThread()
		return errors.Wrap(err, "open original netns")
	}
	defer orig.Close()

	target, err := netns.GetFromPath(path)
	if err != nil {
		runtime.UnlockOSThread()
		return errors.Wrapf(err, "open target netns %s", path)
	}
	defer target.Close()

	if err := netns.Set(target); err != nil {
		runtime.UnlockOSThread()
		return errors.Wrapf(err, "setns into %s", path)
	}
	log.Debugf("entered netns %s", path)

	fnErr := fn()

	if err := netns.Set(orig); err != nil {
		log.Errorf("restore netns %s: %v", orig.UniqueId(), err)
		return errors.Wrap(err, "restore original netns")
	}
	runtime.UnlockOSThread()
	return fnErr
}
