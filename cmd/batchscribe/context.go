package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"batchscribe/internal/config"
	"batchscribe/internal/logging"
	"batchscribe/internal/services"
)

type commandFlags struct {
	config   string
	input    string
	language string
	engine   string
	noTitle  bool
}

type commandContext struct {
	flags *commandFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *commandFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := applyOverrides(cfg, c.flags); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "apply flags", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = path
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
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
			Dir:     cfg.Paths.LogDir,
			Pattern: "*.log",
			Exclude: []string{cfg.LogPath()},
		})
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// applyOverrides layers command-line flags over the loaded file and
// revalidates the result.
func applyOverrides(cfg *config.Config, flags *commandFlags) error {
	if value := strings.TrimSpace(flags.input); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return fmt.Errorf("--input: %w", err)
		}
		cfg.Paths.InputDir = expanded
	}
	if value := strings.TrimSpace(flags.language); value != "" {
		lang, err := config.NormalizeLanguage(value)
		if err != nil {
			return fmt.Errorf("--language: %w", err)
		}
		cfg.Transcription.Language = lang
	}
	if value := strings.TrimSpace(flags.engine); value != "" {
		cfg.Transcription.Engine = strings.ToLower(value)
	}
	return cfg.Validate()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
