// Package testsupport provides small helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subforge/internal/config"
)

// Config returns a validated default configuration with temp directories and
// provider credentials suitable for tests.
func Config(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.OpenSubtitles.APIKey = "test-key"
	cfg.Workflow.MinFreeSpaceGiB = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// StubBinary drops an executable shell stub into dir so exec.LookPath finds
// it once dir is on PATH.
func StubBinary(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

// WriteFile creates path with content, making parent directories as needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
