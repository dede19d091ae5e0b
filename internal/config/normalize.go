package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.Service.BaseURL = strings.TrimSpace(c.Service.BaseURL)
	c.Service.Endpoint = strings.TrimSpace(c.Service.Endpoint)
	if c.Service.Endpoint == "" {
		c.Service.Endpoint = defaultEndpoint
	}

	dir := strings.TrimSpace(c.Output.DownloadDir)
	if dir == "" {
		c.Output.DownloadDir = ""
		return nil
	}
	expanded, err := expandPath(dir)
	if err != nil {
		return fmt.Errorf("output.download_dir: %w", err)
	}
	c.Output.DownloadDir = expanded
	return nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
