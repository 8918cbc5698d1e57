package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Languages configures the target subtitle language set. Order matters: the
// first entry is embedded first and becomes the default track.
type Languages struct {
	Targets []string `toml:"targets"`
}

// OpenSubtitles contains credentials for the primary subtitle provider.
// The provider is disabled when the API key is absent.
type OpenSubtitles struct {
	APIKey    string `toml:"api_key"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	UserAgent string `toml:"user_agent"`
	BaseURL   string `toml:"base_url"`
}

// Addic7ed contains credentials for the fallback subtitle provider.
// The provider is disabled when the username/password pair is absent.
type Addic7ed struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	BaseURL  string `toml:"base_url"`
}

// Sync configures the external subtitle alignment tool.
type Sync struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Remux configures the ffmpeg remux and its verification gate.
type Remux struct {
	FFmpegBinary             string  `toml:"ffmpeg_binary"`
	FFprobeBinary            string  `toml:"ffprobe_binary"`
	DurationToleranceSeconds float64 `toml:"duration_tolerance_seconds"`
}

// Workflow contains batch scheduling and retry settings.
type Workflow struct {
	Workers               int `toml:"workers"`
	ProviderRetryAttempts int `toml:"provider_retry_attempts"`
	RetryInitialMillis    int `toml:"retry_initial_millis"`
	RetryMaxMillis        int `toml:"retry_max_millis"`
	MinFreeSpaceGiB       int `toml:"min_free_space_gib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completion     bool   `toml:"completion"`
	Errors         bool   `toml:"errors"`
}

// Config encapsulates all configuration values for subforge.
//
// Sections by subsystem:
//   - Paths: provider cache and log directories
//   - Languages: target subtitle languages in embed order
//   - OpenSubtitles / Addic7ed: provider credentials (absent = disabled)
//   - Sync: ffsubsync alignment settings
//   - Remux: ffmpeg/ffprobe binaries and the duration verification tolerance
//   - Workflow: worker count, provider retry/backoff, disk space floor
//   - Logging: log format and level
//   - Notifications: optional ntfy push settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Languages     Languages     `toml:"languages"`
	OpenSubtitles OpenSubtitles `toml:"opensubtitles"`
	Addic7ed      Addic7ed      `toml:"addic7ed"`
	Sync          Sync          `toml:"sync"`
	Remux         Remux         `toml:"remux"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for remuxing.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Remux.FFmpegBinary); v != "" {
		return v
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Remux.FFprobeBinary); v != "" {
		return v
	}
	return "ffprobe"
}

// FFsubsyncBinary returns the subtitle alignment executable.
func (c *Config) FFsubsyncBinary() string {
	if v := strings.TrimSpace(c.Sync.Binary); v != "" {
		return v
	}
	return "ffsubsync"
}

// TargetLanguages returns the normalized ISO 639-1 target set in embed order.
func (c *Config) TargetLanguages() []string {
	return append([]string(nil), c.Languages.Targets...)
}

// OpenSubtitlesEnabled reports whether the primary provider has credentials.
func (c *Config) OpenSubtitlesEnabled() bool {
	return strings.TrimSpace(c.OpenSubtitles.APIKey) != ""
}

// Addic7edEnabled reports whether the fallback provider has credentials.
func (c *Config) Addic7edEnabled() bool {
	return strings.TrimSpace(c.Addic7ed.Username) != "" && strings.TrimSpace(c.Addic7ed.Password) != ""
}

// ExpandPath expands a leading ~ and resolves the path to absolute form.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
