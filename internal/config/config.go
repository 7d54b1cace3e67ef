// Package config holds the tool-level settings file. Session
// credentials live elsewhere; this file only carries preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Output     string `yaml:"output" env:"MANGETSU_OUTPUT"`
	SessionDir string `yaml:"session_dir" env:"MANGETSU_SESSION_DIR"`
	Quality    string `yaml:"quality" env:"MANGETSU_QUALITY"`
	Debug      bool   `yaml:"debug" env:"MANGETSU_DEBUG"`
	CBZ        bool   `yaml:"cbz" env:"MANGETSU_CBZ"`
	UserAgent  string `yaml:"user_agent" env:"MANGETSU_USER_AGENT"`
}

// Options are the CLI flag values layered on top of the file and the
// environment. Zero values leave the underlying setting alone.
type Options struct {
	IgnoreConfig bool
	Debug        bool
	Output       string
	SessionDir   string
	Quality      string
	CBZ          bool
	UserAgent    string
}

func DefaultConfig() *Config {
	return &Config{
		Output:  ".",
		Quality: "high",
	}
}

// Root is the per-user directory for the settings file.
func Root() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "mangetsu")
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mangetsu")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mangetsu")
}

func Path() string {
	return filepath.Join(Root(), "config.yaml")
}

func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadMerged resolves the effective config: defaults, then the yaml
// file when present, then MANGETSU_* environment variables, then flags.
// The returned string names the file that was read, for diagnostics.
func LoadMerged(opts Options) (*Config, string, error) {
	cfg := DefaultConfig()
	usedPath := "(built-in defaults)"

	if !opts.IgnoreConfig {
		path := Path()
		if loaded, err := loadYAML(path); err == nil {
			cfg = loaded
			usedPath = path
		} else if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, "", fmt.Errorf("parse environment: %w", err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, usedPath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.SessionDir != "" {
		c.SessionDir = o.SessionDir
	}
	if o.Quality != "" {
		c.Quality = o.Quality
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Debug {
		c.Debug = true
	}
	if o.CBZ {
		c.CBZ = true
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.Quality != "middle" && c.Quality != "high" {
		c.Quality = "high"
	}
}
