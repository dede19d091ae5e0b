package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if c.Intake.MaxUploadMB <= 0 {
		return errors.New("intake.max_upload_mb must be positive")
	}
	return nil
}

func (c *Config) validateService() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url is required (or set %s)", EnvAPIURL)
	}
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service.base_url must use http or https, got %q", c.Service.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("service.base_url has no host: %q", c.Service.BaseURL)
	}
	if c.Service.TimeoutSeconds <= 0 {
		return errors.New("service.timeout_seconds must be positive")
	}
	return nil
}
