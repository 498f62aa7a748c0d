package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"nss-netns/hosts"
	"nss-netns/resolver"
)

// listHosts walks one enumeration session, the same way gethostent does.
func listHosts() error {
	sessions := resolver.NewSessions(res)
	tok, err := sessions.Begin()
	if err != nil {
		return errors.WithMessage(err, "begin enumeration")
	}
	defer sessions.End(tok)

	w := tabwriter.NewWriter(os.Stdout, 12, 1, 3, ' ', 0)
	if _, err := fmt.Fprint(w, "ADDRESS\tNAME\tALIASES\n"); err != nil {
		log.Errorf("Fprint error %v", err)
	}
	for {
		err := sessions.Next(tok, func(h hosts.Host) error {
			for _, a := range h.Addrs {
				if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", a, h.Name, strings.Join(h.Aliases, " ")); err != nil {
					return err
				}
			}
			return nil
		})
		if errors.Is(err, resolver.ErrEndOfEntries) {
			break
		}
		if err != nil {
			return err
		}
	}
	return w.Flush()
}
