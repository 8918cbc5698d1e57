package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"subforge/internal/fileutil"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.srt")
	dst := filepath.Join(dir, "dst.srt")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected copy contents %q", data)
	}
}

func TestMoveFileCreatesDestinationDirs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movie.mkv")
	dst := filepath.Join(dir, "Originals", "season", "movie.mkv")
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err = %v", err)
	}
	if !fileutil.NonEmptyFile(dst) {
		t.Fatal("expected destination to exist and be non-empty")
	}
}

func TestMirroredPath(t *testing.T) {
	root := filepath.Join("/", "library")
	got, err := fileutil.MirroredPath(root, "Originals", filepath.Join(root, "shows", "ep1.mkv"))
	if err != nil {
		t.Fatalf("MirroredPath: %v", err)
	}
	want := filepath.Join(root, "Originals", "shows", "ep1.mkv")
	if got != want {
		t.Fatalf("MirroredPath = %q, want %q", got, want)
	}
}

func TestMirroredPathRejectsEscapes(t *testing.T) {
	if _, err := fileutil.MirroredPath("/library", "Originals", "/etc/passwd"); err == nil {
		t.Fatal("expected error for path outside root")
	}
}
