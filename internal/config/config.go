// Package config loads, normalizes, and validates the studio configuration.
//
// Settings come from built-in defaults, an optional TOML file, and the
// FACERESTORE_API_URL environment variable, in that order. Command line flags
// are applied by the caller after Load returns.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvAPIURL overrides service.base_url when set.
const EnvAPIURL = "FACERESTORE_API_URL"

// Service describes the remote restoration endpoint.
type Service struct {
	BaseURL        string `toml:"base_url"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Intake describes the local file acceptance policy.
type Intake struct {
	MaxUploadMB int `toml:"max_upload_mb"`
}

// Output describes where downloaded results are written.
type Output struct {
	DownloadDir string `toml:"download_dir"`
}

// App holds process level switches.
type App struct {
	Debug bool `toml:"debug"`
}

// Config is the full studio configuration.
type Config struct {
	Service Service `toml:"service"`
	Intake  Intake  `toml:"intake"`
	Output  Output  `toml:"output"`
	App     App     `toml:"app"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "facerestore", "config.toml"), nil
}

// Load reads the configuration at path (or the default location when path is
// empty). A missing file yields the defaults. The second return value is the
// resolved path and the third reports whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if env := strings.TrimSpace(os.Getenv(EnvAPIURL)); env != "" {
		cfg.Service.BaseURL = env
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		def, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = def
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// RequestTimeout is the upper bound for a single enhancement request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Service.TimeoutSeconds) * time.Second
}

// MaxUploadBytes converts the intake ceiling to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Intake.MaxUploadMB) * 1024 * 1024
}

// EnhanceURL joins the base URL and endpoint.
func (c *Config) EnhanceURL() string {
	return strings.TrimRight(c.Service.BaseURL, "/") + "/" + strings.TrimLeft(c.Service.Endpoint, "/")
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
