package main

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"face-restore-studio/internal/api"
	"face-restore-studio/internal/config"
	"face-restore-studio/internal/intake"
	"face-restore-studio/internal/logging"
	"face-restore-studio/internal/preview"
	"face-restore-studio/internal/workflow"
)

type rootFlags struct {
	config string
	debug  bool
	apiURL string
}

type commandContext struct {
	flags *rootFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	log        *logrus.Logger

	// replaced in tests; OpenCV decoding needs the native library
	newOpener func(logrus.FieldLogger) preview.Opener
}

func newCommandContext(flags *rootFlags) *commandContext {
	return &commandContext{
		flags: flags,
		newOpener: func(logger logrus.FieldLogger) preview.Opener {
			return preview.NewMatOpener(logger)
		},
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, resolved, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if url := strings.TrimSpace(c.flags.apiURL); url != "" {
			cfg.Service.BaseURL = url
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *logrus.Logger {
	c.loggerOnce.Do(func() {
		debug := c.flags.debug
		if c.config != nil && c.config.App.Debug {
			debug = true
		}
		c.log = logging.New(logging.Options{Debug: debug, Output: os.Stderr})
	})
	return c.log
}

func (c *commandContext) policy() intake.Policy {
	policy := intake.DefaultPolicy()
	if c.config != nil {
		policy.MaxBytes = c.config.MaxUploadBytes()
	}
	return policy
}

func (c *commandContext) newController(opts ...workflow.Option) *workflow.Controller {
	cfg := c.config
	logger := c.logger()

	client := api.NewClient(api.Config{
		URL:     cfg.EnhanceURL(),
		Timeout: cfg.RequestTimeout(),
	}, api.WithLogger(logger))

	opts = append([]workflow.Option{
		workflow.WithTimeout(client.Timeout()),
		workflow.WithLogger(logger),
	}, opts...)
	return workflow.NewController(client, c.newOpener(logger), opts...)
}
