package config

import (
	"io"
	"log/syslog"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

// SetupLogging points the standard logrus logger at the configured sink.
// With nothing configured, output goes to fallback.
func SetupLogging(l Logging, fallback io.Writer) error {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return errors.Wrapf(err, "logging level %q", l.Level)
	}
	log.SetLevel(level)
	log.SetOutput(fallback)

	if l.File != "" {
		file, err := os.OpenFile(l.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err != nil {
			return errors.Wrapf(err, "open log file %s", l.File)
		}
		log.SetFormatter(&log.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
		log.SetOutput(file)
	}
	if l.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	if l.Syslog {
		hook, err := lsyslog.NewSyslogHook("", "", syslog.LOG_DAEMON|syslog.LOG_INFO, "nss_netns")
		if err != nil {
			return errors.Wrap(err, "connect to syslog")
		}
		log.AddHook(hook)
	}
	return nil
}
