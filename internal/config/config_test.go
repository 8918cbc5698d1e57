package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, path, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing default config")
	}
	if path == "" {
		t.Fatal("expected resolved default path")
	}
	if got := cfg.TargetLanguages(); len(got) != 2 || got[0] != "es" || got[1] != "en" {
		t.Fatalf("default targets = %v", got)
	}
	if cfg.Workflow.Workers != defaultWorkers {
		t.Fatalf("workers = %d", cfg.Workflow.Workers)
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" || cfg.FFsubsyncBinary() != "ffsubsync" {
		t.Fatal("expected bare binary defaults")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
cache_dir = "~/cache"

[languages]
targets = ["SPA", "eng"]

[opensubtitles]
api_key = "key123"

[workflow]
workers = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatal("expected config file found")
	}
	if cfg.Paths.CacheDir != filepath.Join(home, "cache") {
		t.Fatalf("cache dir = %q", cfg.Paths.CacheDir)
	}
	if got := cfg.TargetLanguages(); got[0] != "es" || got[1] != "en" {
		t.Fatalf("normalized targets = %v", got)
	}
	if cfg.Workflow.Workers != 4 {
		t.Fatalf("workers = %d", cfg.Workflow.Workers)
	}
	if !cfg.OpenSubtitlesEnabled() {
		t.Fatal("expected opensubtitles enabled with api key")
	}
	if cfg.Addic7edEnabled() {
		t.Fatal("expected addic7ed disabled without credentials")
	}
}

func TestLoadCredentialEnvFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENSUBTITLES_API_KEY", "env-key")
	t.Setenv("ADDIC7ED_USERNAME", "alice")
	t.Setenv("ADDIC7ED_PASSWORD", "secret")

	cfg, _, _, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenSubtitles.APIKey != "env-key" {
		t.Fatalf("api key = %q", cfg.OpenSubtitles.APIKey)
	}
	if !cfg.Addic7edEnabled() {
		t.Fatal("expected addic7ed enabled from environment")
	}
}

func TestValidateRejectsBadLanguages(t *testing.T) {
	cfg := Default()
	cfg.Languages.Targets = []string{"es"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for single language")
	}

	cfg.Languages.Targets = []string{"es", "es"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate languages")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging format error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[opensubtitles]") {
		t.Fatal("sample missing opensubtitles section")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}
