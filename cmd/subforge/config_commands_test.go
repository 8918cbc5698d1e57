package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommandLine(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommandLine(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output = %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[languages]") {
		t.Fatal("sample missing languages section")
	}

	// refuses to clobber without --overwrite
	if _, err := runCommandLine(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error for existing file")
	}
	if _, err := runCommandLine(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENSUBTITLES_API_KEY", "super-secret-key")

	out, err := runCommandLine(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "super-secret-key") {
		t.Fatal("api key leaked into output")
	}
	if !strings.Contains(out, "<redacted>") {
		t.Fatalf("expected redaction marker:\n%s", out)
	}
}

func TestInspectRejectsNonVideo(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := runCommandLine(t, "inspect", path); err == nil {
		t.Fatal("expected error for non-video input")
	}
}
