package main

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/sys/unix"

	"nss-netns/hosts"
	"nss-netns/namespace"
	"nss-netns/nsenter"
	"nss-netns/resolver"
)

var netnsFlag = cli.StringFlag{
	Name:  "netns",
	Usage: "run inside this named namespace (or namespace path), e.g. -netns blue",
}

var identifyCommand = cli.Command{
	Name:  "identify",
	Usage: "print the network namespace and the hosts file that governs it",
	Flags: []cli.Flag{netnsFlag},
	Action: func(context *cli.Context) error {
		return inNetns(context.String("netns"), func() error {
			id, path, err := res.HostsFile()
			switch {
			case errors.Is(err, resolver.ErrNotFound):
				fmt.Printf("%s\t(no hosts file)\n", id)
			case err != nil:
				return err
			default:
				fmt.Printf("%s\t%s\n", id, path)
			}
			return nil
		})
	},
}

var lookupCommand = cli.Command{
	Name:  "lookup",
	Usage: "resolve a host name, e.g. netns-hosts lookup -family 6 alpha",
	Flags: []cli.Flag{
		netnsFlag,
		cli.IntFlag{
			Name:  "family",
			Usage: "4 or 6, both when unset",
		},
	},
	Action: func(context *cli.Context) error {
		if len(context.Args()) < 1 {
			return fmt.Errorf("missing host name")
		}
		name := context.Args().Get(0)
		family, err := familyOf(context.Int("family"))
		if err != nil {
			return err
		}
		return inNetns(context.String("netns"), func() error {
			var h hosts.Host
			var err error
			if family == 0 {
				h, err = res.LookupAny(name)
			} else {
				h, err = res.LookupName(name, family)
			}
			if err != nil {
				return err
			}
			printHost(h)
			return nil
		})
	},
}

var reverseCommand = cli.Command{
	Name:  "reverse",
	Usage: "resolve an address, e.g. netns-hosts reverse 10.0.0.5",
	Flags: []cli.Flag{netnsFlag},
	Action: func(context *cli.Context) error {
		if len(context.Args()) < 1 {
			return fmt.Errorf("missing address")
		}
		addr, err := netip.ParseAddr(context.Args().Get(0))
		if err != nil {
			return errors.Wrap(err, "parse address")
		}
		return inNetns(context.String("netns"), func() error {
			h, err := res.LookupAddr(addr)
			if err != nil {
				return err
			}
			printHost(h)
			return nil
		})
	},
}

var listCommand = cli.Command{
	Name:  "list",
	Usage: "list every host the module would enumerate",
	Flags: []cli.Flag{netnsFlag},
	Action: func(context *cli.Context) error {
		return inNetns(context.String("netns"), listHosts)
	},
}

func familyOf(v int) (int, error) {
	switch v {
	case 0:
		return 0, nil
	case 4:
		return unix.AF_INET, nil
	case 6:
		return unix.AF_INET6, nil
	}
	return 0, fmt.Errorf("family must be 4 or 6, got %d", v)
}

// inNetns runs fn in the namespace named by netns, or in place when empty.
// A value containing a slash is used as a path.
func inNetns(netns string, fn func() error) error {
	if netns == "" {
		return fn()
	}
	path := netns
	if !strings.Contains(netns, "/") {
		path = (&namespace.RunDirNamer{Dirs: cfg.Netns.RunDirs}).Path(netns)
		if path == "" {
			return fmt.Errorf("network namespace %s not found in %v", netns, cfg.Netns.RunDirs)
		}
	}
	return nsenter.Do(path, fn)
}

// printHost writes one line per address, like getent hosts.
func printHost(h hosts.Host) {
	for _, a := range h.Addrs {
		fields := append([]string{a.String(), h.Name}, h.Aliases...)
		fmt.Println(strings.Join(fields, " "))
	}
}
