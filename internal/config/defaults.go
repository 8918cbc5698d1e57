package config

const (
	defaultCacheDir                 = "~/.cache/subforge"
	defaultLogDir                   = "~/.local/share/subforge/logs"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultOpenSubtitlesUserAgent   = "subforge/dev"
	defaultOpenSubtitlesBaseURL     = "https://api.opensubtitles.com/api/v1"
	defaultAddic7edBaseURL          = "https://api.gestdown.info"
	defaultSyncTimeoutSeconds       = 600
	defaultDurationToleranceSeconds = 2.0
	defaultWorkers                  = 2
	defaultProviderRetryAttempts    = 3
	defaultRetryInitialMillis       = 500
	defaultRetryMaxMillis           = 8000
	defaultMinFreeSpaceGiB          = 1
	defaultNotifyRequestTimeout     = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Languages: Languages{
			// Spanish first: it is always embedded ahead of English.
			Targets: []string{"es", "en"},
		},
		OpenSubtitles: OpenSubtitles{
			UserAgent: defaultOpenSubtitlesUserAgent,
			BaseURL:   defaultOpenSubtitlesBaseURL,
		},
		Addic7ed: Addic7ed{
			BaseURL: defaultAddic7edBaseURL,
		},
		Sync: Sync{
			TimeoutSeconds: defaultSyncTimeoutSeconds,
		},
		Remux: Remux{
			DurationToleranceSeconds: defaultDurationToleranceSeconds,
		},
		Workflow: Workflow{
			Workers:               defaultWorkers,
			ProviderRetryAttempts: defaultProviderRetryAttempts,
			RetryInitialMillis:    defaultRetryInitialMillis,
			RetryMaxMillis:        defaultRetryMaxMillis,
			MinFreeSpaceGiB:       defaultMinFreeSpaceGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completion:     true,
			Errors:         true,
		},
	}
}
