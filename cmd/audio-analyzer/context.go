package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"audio-analyzer/internal/config"
	"audio-analyzer/internal/logging"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool
	quietFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verboseFlag, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
		quietFlag:   quietFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.verbose() {
			cfg.Logging.Level = "debug"
		}
		if c.quiet() {
			cfg.Logging.Level = "error"
			cfg.Analyzer.ShowProgress = false
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) verbose() bool {
	return c.verboseFlag != nil && *c.verboseFlag
}

func (c *commandContext) quiet() bool {
	return c.quietFlag != nil && *c.quietFlag
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
