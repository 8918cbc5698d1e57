package config

import (
	"os"
	"strings"

	"subforge/internal/language"
)

// normalize expands paths, applies environment fallbacks for credentials, and
// canonicalizes the language list.
func (c *Config) normalize() error {
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	applyEnvFallback(&c.OpenSubtitles.APIKey, "OPENSUBTITLES_API_KEY")
	applyEnvFallback(&c.OpenSubtitles.Username, "OPENSUBTITLES_USERNAME")
	applyEnvFallback(&c.OpenSubtitles.Password, "OPENSUBTITLES_PASSWORD")
	applyEnvFallback(&c.Addic7ed.Username, "ADDIC7ED_USERNAME")
	applyEnvFallback(&c.Addic7ed.Password, "ADDIC7ED_PASSWORD")

	c.Languages.Targets = language.NormalizeList(c.Languages.Targets)
	if len(c.Languages.Targets) == 0 {
		c.Languages.Targets = Default().Languages.Targets
	}

	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
	if c.Workflow.ProviderRetryAttempts <= 0 {
		c.Workflow.ProviderRetryAttempts = defaultProviderRetryAttempts
	}
	if c.Workflow.RetryInitialMillis <= 0 {
		c.Workflow.RetryInitialMillis = defaultRetryInitialMillis
	}
	if c.Workflow.RetryMaxMillis < c.Workflow.RetryInitialMillis {
		c.Workflow.RetryMaxMillis = defaultRetryMaxMillis
	}
	if c.Remux.DurationToleranceSeconds <= 0 {
		c.Remux.DurationToleranceSeconds = defaultDurationToleranceSeconds
	}
	if c.Sync.TimeoutSeconds <= 0 {
		c.Sync.TimeoutSeconds = defaultSyncTimeoutSeconds
	}
	if strings.TrimSpace(c.OpenSubtitles.BaseURL) == "" {
		c.OpenSubtitles.BaseURL = defaultOpenSubtitlesBaseURL
	}
	if strings.TrimSpace(c.Addic7ed.BaseURL) == "" {
		c.Addic7ed.BaseURL = defaultAddic7edBaseURL
	}
	if strings.TrimSpace(c.OpenSubtitles.UserAgent) == "" {
		c.OpenSubtitles.UserAgent = defaultOpenSubtitlesUserAgent
	}
	return nil
}

func applyEnvFallback(target *string, key string) {
	if strings.TrimSpace(*target) != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok {
		*target = strings.TrimSpace(value)
	}
}
