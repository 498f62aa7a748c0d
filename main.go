// Command nss_netns is built with -buildmode=c-shared into libnss_netns.so.2,
// the glibc NSS "netns" hosts backend. See nss.go for the exported entry
// points.
package main

import (
	"io"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"

	"nss-netns/config"
	"nss-netns/resolver"
)

func init() {
	runtime.GOMAXPROCS(1) // lookups run on the caller's thread
}

var (
	setupOnce sync.Once
	res       *resolver.Resolver
	sessions  *resolver.Sessions
)

// setup loads /etc/nss_netns.* on first use. A broken config file falls back
// to the defaults rather than failing every lookup.
func setup() {
	setupOnce.Do(func() {
		cfg, loadErr := config.Load("")
		if loadErr != nil {
			cfg = config.Default()
		}
		if err := config.SetupLogging(cfg.Logging, io.Discard); err != nil {
			_ = config.SetupLogging(config.Default().Logging, io.Discard)
			log.Warnf("logging setup: %v", err)
		}
		if loadErr != nil {
			log.Warnf("using defaults: %v", loadErr)
		}
		res = cfg.Resolver()
		sessions = resolver.NewSessions(res)
	})
}

func main() {}
