// Package serve hosts the generated site locally for previewing, with a
// cron-scheduled rebuild so CSV edits show up without restarting.
package serve

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"

	appLog "contabile/internal/log"
)

// Options configures the preview server.
type Options struct {
	// Listen is the HTTP listen address.
	Listen string

	// Refresh is a cron expression for periodic regeneration; empty
	// disables scheduled rebuilds.
	Refresh string

	// Rebuild regenerates the site. A failing rebuild is logged and the
	// previously generated output keeps being served.
	Rebuild func() error

	// Fs / Dest locate the generated site to serve.
	Fs   afero.Fs
	Dest string
}

// Handler returns the HTTP handler serving the generated site plus a
// /health endpoint.
func Handler(fsys afero.Fs, dest string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	siteFs := afero.NewHttpFs(afero.NewBasePathFs(fsys, dest))
	mux.Handle("/", http.FileServer(siteFs))
	return mux
}

// Run serves until ctx is canceled. Scheduled rebuilds run on the cron
// expression in opts.Refresh.
func Run(ctx context.Context, opts Options) error {
	if opts.Refresh != "" && opts.Rebuild != nil {
		c := cron.New()
		if _, err := c.AddFunc(opts.Refresh, func() {
			if err := opts.Rebuild(); err != nil {
				appLog.Error("scheduled rebuild failed; keeping previous output", err)
				return
			}
			appLog.Info("site rebuilt on schedule")
		}); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
	}

	srv := &http.Server{
		Addr:    opts.Listen,
		Handler: Handler(opts.Fs, opts.Dest),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	appLog.Info("serving programme preview", "listen", "http://"+opts.Listen, "refresh", opts.Refresh)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
