package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	appLog "contabile/internal/log"
)

// Config is the optional site configuration. Everything required for a
// generation run comes from the command line; the config file only carries
// presentation and serve-mode settings.
type Config struct {
	// Timezone is the IANA timezone the programme is grouped and displayed
	// in (e.g. "Europe/Rome"). Empty means the machine's local timezone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Listen is the HTTP listen address for `contabile serve`.
	Listen string `yaml:"listen" json:"listen"`

	// Refresh is a cron expression controlling how often serve mode
	// regenerates the site from the CSV.
	Refresh string `yaml:"refresh" json:"refresh"`

	// Highlight lists keywords; items whose title contains one
	// (case-insensitive) get a highlighted rendering.
	Highlight []string `yaml:"highlight" json:"highlight"`

	// ThemeColor / BackgroundColor feed the web app manifest.
	ThemeColor      string `yaml:"theme_color" json:"theme_color"`
	BackgroundColor string `yaml:"background_color" json:"background_color"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:        "",
		Listen:          "127.0.0.1:8080",
		Refresh:         "*/5 * * * *",
		Highlight:       []string{},
		ThemeColor:      "#1a1a2e",
		BackgroundColor: "#ffffff",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Refresh == "" {
		c.Refresh = "*/5 * * * *"
	}
	if c.Highlight == nil {
		c.Highlight = []string{}
	}
	if c.ThemeColor == "" {
		c.ThemeColor = "#1a1a2e"
	}
	if c.BackgroundColor == "" {
		c.BackgroundColor = "#ffffff"
	}
}

// Location resolves the configured timezone, falling back to time.Local
// when unset or unknown.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: write a default config there (creating
//     the parent directory) and return the defaults.
//   - If the file exists: unmarshal and normalize.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename, 0600 perms).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".contabile-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
