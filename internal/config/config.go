package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
//
// All values can come from an optional YAML file; the environment variables
// INDICO_BASE_URL, INDICO_API_TOKEN and INDIGO_LOG override the file. The
// API token is the only required value.
type Config struct {
	// BaseURL is the root of the Indico instance, without trailing slash.
	BaseURL string `yaml:"base_url"`

	// Token is the personal API bearer token. Required.
	Token string `yaml:"token"`

	// FavoritesLimit caps how many upcoming favorited events are requested.
	FavoritesLimit int `yaml:"favorites_limit"`

	// CategoryFrom / CategoryTo bound the date window for category event
	// listings, in the Export API's relative form (e.g. "-30d", "+30d").
	CategoryFrom string `yaml:"category_from"`
	CategoryTo   string `yaml:"category_to"`

	// CategoryLimit caps how many events are requested per category.
	CategoryLimit int `yaml:"category_limit"`

	// LogPath, if set, enables diagnostic logging to that file.
	LogPath string `yaml:"log_path"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://indico.cern.ch",
		FavoritesLimit: 100,
		CategoryFrom:   "-30d",
		CategoryTo:     "+30d",
		CategoryLimit:  200,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.BaseURL == "" {
		c.BaseURL = "https://indico.cern.ch"
	}
	if c.FavoritesLimit <= 0 {
		c.FavoritesLimit = 100
	}
	if c.CategoryFrom == "" {
		c.CategoryFrom = "-30d"
	}
	if c.CategoryTo == "" {
		c.CategoryTo = "+30d"
	}
	if c.CategoryLimit <= 0 {
		c.CategoryLimit = 200
	}
}

// ErrMissingToken is returned by Validate when no API token is configured.
// It is the only fatal startup condition.
var ErrMissingToken = errors.New(
	"INDICO_API_TOKEN not set (create a token under your Indico profile and export it)")

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// DefaultPath returns the conventional config file location,
// ~/.config/indigo/config.yaml. The file is optional.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "indigo", "config.yaml")
}

// Load loads configuration from the given YAML path, then applies
// environment overrides.
//
// Behavior:
//   - A missing file is not an error: defaults plus environment are used.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
//   - INDICO_BASE_URL / INDICO_API_TOKEN / INDIGO_LOG always win over the
//     file when set.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if uerr := yaml.Unmarshal(data, cfg); uerr != nil {
				return nil, uerr
			}
		case errors.Is(err, fs.ErrNotExist):
			// Optional file; fall through to env.
		default:
			return nil, err
		}
	}

	applyEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("INDICO_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("INDICO_API_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("INDIGO_LOG"); v != "" {
		cfg.LogPath = v
	}
}
