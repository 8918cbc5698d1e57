package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"subforge/internal/config"
	"subforge/internal/logging"
)

// commandContext shares configuration and logger resolution across commands.
type commandContext struct {
	configFlag *string

	cfg    *config.Config
	logger *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads and caches the configuration named by --config, or the
// default location.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// ensureLogger builds the logger once, honoring the configured format and
// level.
func (c *commandContext) ensureLogger(cfg *config.Config) (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	var writer io.Writer = os.Stderr
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: writer,
	})
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

// stdoutIsTerminal gates summary table styling.
func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
