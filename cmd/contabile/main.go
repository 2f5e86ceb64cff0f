package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

var version = "0.0.1-dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "contabile: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "contabile"
	app.Usage = "generate a static, offline-capable convention programme from a CSV"
	app.Version = version
	app.UsageText = "contabile <command> [options] [arguments...]"

	app.Commands = []cli.Command{
		{
			Name:      "build",
			Aliases:   []string{"b"},
			Usage:     "generate the site once and exit",
			ArgsUsage: "<convention-name> <csv> <logo> <dest>",
			Flags:     buildFlags,
			Action:    buildAction,
		},
		{
			Name:      "serve",
			Aliases:   []string{"s"},
			Usage:     "generate the site, serve it over HTTP and rebuild on a schedule",
			ArgsUsage: "<convention-name> <csv> <logo> <dest>",
			Flags:     serveFlags,
			Action:    serveAction,
		},
		{
			Name:      "snapshot",
			Usage:     "capture a PNG screenshot of a served programme page",
			ArgsUsage: "<url> <out.png>",
			Flags:     snapshotFlags,
			Action:    snapshotAction,
		},
	}

	// Bare `contabile <args>` behaves like `contabile build <args>`.
	app.Flags = buildFlags
	app.Action = buildAction

	return app
}
