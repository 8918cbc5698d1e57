package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Missing provider credentials
// are not an error: they disable the provider for the run.
func (c *Config) Validate() error {
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLanguages() error {
	if len(c.Languages.Targets) != 2 {
		return fmt.Errorf("languages.targets must name exactly two languages, got %d", len(c.Languages.Targets))
	}
	for _, code := range c.Languages.Targets {
		if len(code) != 2 {
			return fmt.Errorf("languages.targets entries must be ISO 639-1 codes, got %q", code)
		}
	}
	if c.Languages.Targets[0] == c.Languages.Targets[1] {
		return errors.New("languages.targets must name two distinct languages")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers > 16 {
		return errors.New("workflow.workers must be 16 or fewer (provider rate limits)")
	}
	if c.Workflow.ProviderRetryAttempts > 10 {
		return errors.New("workflow.provider_retry_attempts must be 10 or fewer")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
