package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"nss-netns/config"
	"nss-netns/resolver"
)

const usage = `netns-hosts shows what the netns NSS module answers for the calling
namespace, or for a named one with -netns.`

var (
	cfg *config.Config
	res *resolver.Resolver
)

func main() {
	app := cli.NewApp()
	app.Name = "netns-hosts"
	app.Usage = usage

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "config file, default /etc/nss_netns.*",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "debug logging",
		},
	}

	app.Commands = []cli.Command{
		identifyCommand,
		lookupCommand,
		reverseCommand,
		listCommand,
	}

	app.Before = func(context *cli.Context) error {
		log.SetFormatter(&log.JSONFormatter{})
		log.SetOutput(os.Stderr)
		var err error
		cfg, err = config.Load(context.GlobalString("config"))
		if err != nil {
			return err
		}
		if context.GlobalBool("debug") {
			cfg.Logging.Level = "debug"
		}
		if err := config.SetupLogging(cfg.Logging, os.Stderr); err != nil {
			return err
		}
		res = cfg.Resolver()
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
