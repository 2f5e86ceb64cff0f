// Package site renders the validated programme into a self-contained
// static site: index.html, PWA manifest, icons, iCalendar export and a
// content-hash-versioned service worker.
package site

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"contabile/internal/config"
	"contabile/internal/ical"
	"contabile/internal/icon"
	appLog "contabile/internal/log"
	"contabile/internal/programme"
	"contabile/internal/schedule"
)

// Options describes one generation run.
type Options struct {
	Convention string
	CSVPath    string
	LogoPath   string
	Dest       string

	// Override allows replacing an existing destination directory. The
	// directory is deleted and recreated, never merged.
	Override bool

	// Config carries presentation settings; nil means defaults.
	Config *config.Config
}

// Generate runs the full pipeline: parse CSV, build the schedule, prepare
// the destination and write every output file.
//
// All inputs are validated before the destination is touched: a CSV with
// row errors (returned as programme.ValidationErrors) or an unreadable
// logo produces no output at all.
func Generate(fsys afero.Fs, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Normalize()
	loc := cfg.Location()

	csvData, err := afero.ReadFile(fsys, opts.CSVPath)
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}
	items, err := programme.Parse(bytes.NewReader(csvData), loc)
	if err != nil {
		return err
	}

	logo, err := icon.Load(fsys, opts.LogoPath)
	if err != nil {
		return err
	}

	sched := schedule.Build(opts.Convention, items, schedule.Options{
		Location:  loc,
		Highlight: cfg.Highlight,
	})
	page := newPageView(sched)

	if err := prepareDest(fsys, opts.Dest, opts.Override); err != nil {
		return err
	}

	if err := copyStatic(fsys, opts.Dest); err != nil {
		return err
	}
	if err := icon.Write(fsys, opts.Dest, logo); err != nil {
		return err
	}
	if err := writeRendered(fsys, opts.Dest, "index.html", func() ([]byte, error) {
		return renderIndex(page)
	}); err != nil {
		return err
	}
	if err := writeRendered(fsys, opts.Dest, "manifest.json", func() ([]byte, error) {
		return renderManifest(opts.Convention, cfg.ThemeColor, cfg.BackgroundColor)
	}); err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, filepath.Join(opts.Dest, "programme.ics"), ical.Export(sched), 0o644); err != nil {
		return err
	}

	// The service worker is written last so the precache list covers every
	// other file in the destination (and never the worker itself).
	files, err := listFiles(fsys, opts.Dest)
	if err != nil {
		return err
	}
	hash, err := hashFiles(fsys, opts.Dest, files)
	if err != nil {
		return err
	}
	if err := writeRendered(fsys, opts.Dest, "sw.js", func() ([]byte, error) {
		return renderServiceWorker(hash, files)
	}); err != nil {
		return err
	}

	appLog.Info("site generated",
		"convention", opts.Convention,
		"dest", opts.Dest,
		"days", len(sched.Days),
		"items", sched.NumItems(),
		"content_hash", hash,
	)
	return nil
}

// prepareDest enforces the destructive-overwrite contract: an existing
// destination is an error unless Override is set, in which case it is
// removed wholesale before being recreated.
func prepareDest(fsys afero.Fs, dest string, override bool) error {
	exists, err := afero.DirExists(fsys, dest)
	if err != nil {
		return err
	}
	if !exists {
		// A plain file in the way is also an obstruction.
		if ok, _ := afero.Exists(fsys, dest); ok {
			return fmt.Errorf("destination %q exists and is not a directory", dest)
		}
	}
	if exists {
		if !override {
			return fmt.Errorf("destination directory already exists: %s (use --override to replace it)", dest)
		}
		if err := fsys.RemoveAll(dest); err != nil {
			return fmt.Errorf("failed to remove destination: %w", err)
		}
	}
	if err := fsys.MkdirAll(filepath.Join(dest, "images"), 0o755); err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	return nil
}

// copyStatic copies the embedded static assets (stylesheet, client script,
// offline fallback) into the destination root.
func copyStatic(fsys afero.Fs, dest string) error {
	return fs.WalkDir(staticFS, "static", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := staticFS.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("static", path)
		if err != nil {
			return err
		}
		return afero.WriteFile(fsys, filepath.Join(dest, rel), data, 0o644)
	})
}

func writeRendered(fsys afero.Fs, dest, name string, render func() ([]byte, error)) error {
	data, err := render()
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return afero.WriteFile(fsys, filepath.Join(dest, name), data, 0o644)
}

// listFiles returns every file under dest as a sorted slash-separated path
// relative to dest. Called before the service worker is written, so the
// result is exactly the precache list.
func listFiles(fsys afero.Fs, dest string) ([]string, error) {
	var files []string
	err := afero.Walk(fsys, dest, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dest, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// hashFiles derives the short identifier that versions the offline cache:
// blake3 over every generated file's path and content, first 8 hex
// characters. Regenerating from unchanged inputs yields the same hash, so
// clients re-download assets exactly when some asset's content changes.
func hashFiles(fsys afero.Fs, dest string, files []string) (string, error) {
	hasher := blake3.New()
	for _, rel := range files {
		data, err := afero.ReadFile(fsys, filepath.Join(dest, rel))
		if err != nil {
			return "", err
		}
		hasher.Write([]byte(rel))
		hasher.Write([]byte{0})
		hasher.Write(data)
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:8], nil
}
