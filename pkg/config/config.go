// Package config handles loading and saving ems configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/ems/config.yaml
//   - Data:    ~/.local/share/ems/ (register database, bookmarks)
//   - State:   ~/.local/state/ems/ (debug logs)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// UIConfig holds UI preference settings.
type UIConfig struct {
	Theme      string  `yaml:"theme,omitempty"`       // neutral, warm
	SplitRatio float64 `yaml:"split_ratio,omitempty"` // upper/lower tree ratio (0.2-0.8)
}

// WatcherConfig controls the external-change watcher.
type WatcherConfig struct {
	Enabled  *bool `yaml:"enabled,omitempty"`
	PollOnly bool  `yaml:"poll_only,omitempty"` // skip inotify, poll mtimes
}

// ScannerConfig points at the barcode scanner feed.
type ScannerConfig struct {
	Device string `yaml:"device,omitempty"` // line-oriented device or FIFO path
}

// Config is the top-level configuration for ems.
type Config struct {
	Database     string        `yaml:"database,omitempty"`      // register sqlite path
	Schema       string        `yaml:"schema,omitempty"`        // category schema yaml path
	Bookmarks    string        `yaml:"bookmarks,omitempty"`     // bookmarks json path
	BaseCategory string        `yaml:"base_category,omitempty"` // root category of the register
	UI           UIConfig      `yaml:"ui,omitempty"`
	Watcher      WatcherConfig `yaml:"watcher,omitempty"`
	Scanner      ScannerConfig `yaml:"scanner,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	data := DataDir()
	return Config{
		Database:     filepath.Join(data, "register.db"),
		Bookmarks:    filepath.Join(data, "bookmarks.json"),
		BaseCategory: "evacuation",
		UI: UIConfig{
			Theme:      "neutral",
			SplitRatio: 0.5,
		},
	}
}

// WatcherEnabled reports whether the external-change watcher should
// run. Defaults to on when the config is silent.
func (c Config) WatcherEnabled() bool {
	if c.Watcher.Enabled == nil {
		return true
	}
	return *c.Watcher.Enabled
}

// ConfigDir returns the XDG config directory for ems.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "ems")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ems")
}

// DataDir returns the XDG data directory for ems.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "ems")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "ems")
}

// StateDir returns the XDG state directory for ems.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "ems")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "ems")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Database = expandHome(cfg.Database)
	cfg.Schema = expandHome(cfg.Schema)
	cfg.Bookmarks = expandHome(cfg.Bookmarks)
	cfg.Scanner.Device = expandHome(cfg.Scanner.Device)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
