package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"contabile/internal/capture"
	"contabile/internal/config"
	appLog "contabile/internal/log"
	"contabile/internal/programme"
	"contabile/internal/serve"
	"contabile/internal/site"
)

var buildFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "override",
		Usage: "replace the destination directory if it already exists",
	},
	cli.StringFlag{
		Name:  "config",
		Usage: "path to an optional YAML site config",
	},
	cli.BoolFlag{
		Name:  "debug",
		Usage: "enable debug logging",
	},
}

var serveFlags = append([]cli.Flag{
	cli.StringFlag{
		Name:  "listen",
		Usage: "HTTP listen address (overrides config if set)",
	},
	cli.StringFlag{
		Name:  "refresh",
		Usage: "cron expression for scheduled rebuilds (overrides config if set)",
	},
}, buildFlags...)

var snapshotFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Usage: "viewport width in pixels",
		Value: capture.DefaultWidth,
	},
	cli.IntFlag{
		Name:  "height",
		Usage: "viewport height in pixels",
		Value: capture.DefaultHeight,
	},
	cli.DurationFlag{
		Name:  "timeout",
		Usage: "bound on the whole capture",
		Value: capture.DefaultTimeout,
	},
}

// generationOptions resolves the four positional arguments plus flags into
// site.Options, loading the YAML config when one was given.
func generationOptions(c *cli.Context) (site.Options, *config.Config, error) {
	if c.Bool("debug") {
		appLog.SetLevel(appLog.LevelDebug)
	}

	if c.NArg() != 4 {
		return site.Options{}, nil, fmt.Errorf(
			"expected 4 arguments (<convention-name> <csv> <logo> <dest>), got %d", c.NArg())
	}
	args := c.Args()

	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return site.Options{}, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	opts := site.Options{
		Convention: args.Get(0),
		CSVPath:    args.Get(1),
		LogoPath:   args.Get(2),
		Dest:       args.Get(3),
		Override:   c.Bool("override"),
		Config:     cfg,
	}
	return opts, cfg, nil
}

func buildAction(c *cli.Context) error {
	opts, _, err := generationOptions(c)
	if err != nil {
		return err
	}
	return runGenerate(opts)
}

// runGenerate runs one generation pass, printing every collected row error
// rather than just the first so the CSV can be fixed in one pass.
func runGenerate(opts site.Options) error {
	err := site.Generate(afero.NewOsFs(), opts)
	if err == nil {
		return nil
	}
	var verrs programme.ValidationErrors
	if errors.As(err, &verrs) {
		for _, rowErr := range verrs {
			fmt.Fprintf(os.Stderr, "error: %s\n", rowErr)
		}
		return fmt.Errorf("%d validation error(s); no output was written", len(verrs))
	}
	return err
}

func serveAction(c *cli.Context) error {
	opts, cfg, err := generationOptions(c)
	if err != nil {
		return err
	}
	if listen := c.String("listen"); listen != "" {
		cfg.Listen = listen
	}
	if refresh := c.String("refresh"); refresh != "" {
		cfg.Refresh = refresh
	}

	// The initial build must succeed; scheduled rebuilds may fail and keep
	// the previous output.
	if err := runGenerate(opts); err != nil {
		return err
	}
	// The destination now exists, so every rebuild replaces it.
	rebuildOpts := opts
	rebuildOpts.Override = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	return serve.Run(ctx, serve.Options{
		Listen:  cfg.Listen,
		Refresh: cfg.Refresh,
		Rebuild: func() error { return runGenerate(rebuildOpts) },
		Fs:      afero.NewOsFs(),
		Dest:    opts.Dest,
	})
}

func snapshotAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("expected 2 arguments (<url> <out.png>), got %d", c.NArg())
	}
	args := c.Args()

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout")+5*time.Second)
	defer cancel()

	opts := capture.Options{
		URL:        args.Get(0),
		OutputPath: args.Get(1),
		Width:      c.Int("width"),
		Height:     c.Int("height"),
		Timeout:    c.Duration("timeout"),
	}
	if err := capture.Snapshot(ctx, opts); err != nil {
		return err
	}
	appLog.Info("snapshot written", "url", opts.URL, "out", opts.OutputPath)
	return nil
}
