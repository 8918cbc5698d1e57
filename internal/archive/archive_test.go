package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subforge/internal/asset"
	"subforge/internal/services"
	"subforge/internal/subtitle"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestArchivePromotesRemuxedOutput(t *testing.T) {
	root := t.TempDir()
	videoPath := filepath.Join(root, "Show", "ep.mkv")
	write(t, videoPath, "original")
	rawSidecar := filepath.Join(root, "Show", "ep.es.srt")
	write(t, rawSidecar, "raw subtitle")
	alignedSidecar := filepath.Join(root, "Show", "ep.es.synced.srt")
	write(t, alignedSidecar, "aligned subtitle")
	remuxed := filepath.Join(root, "Show", ".ep.subforge.tmp.mkv")
	write(t, remuxed, "remuxed")

	a := asset.VideoAsset{Path: videoPath, RelPath: filepath.Join("Show", "ep.mkv")}
	ar := &Archiver{Root: root}

	result, err := ar.Archive(a, []subtitle.Sidecar{
		{Path: rawSidecar, Language: "es"},
		{Path: alignedSidecar, Language: "es", Aligned: true},
	}, remuxed)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	// remuxed output now sits at the original path
	data, err := os.ReadFile(videoPath)
	if err != nil || string(data) != "remuxed" {
		t.Fatalf("promoted content = %q err=%v", data, err)
	}

	// original video mirrored under Originals/
	wantVideo := filepath.Join(root, "Originals", "Show", "ep.mkv")
	if result.VideoArchivePath != wantVideo {
		t.Fatalf("archive path = %q", result.VideoArchivePath)
	}
	data, err = os.ReadFile(wantVideo)
	if err != nil || string(data) != "original" {
		t.Fatalf("archived content = %q err=%v", data, err)
	}

	// raw sidecar archived, aligned intermediate discarded
	wantSidecar := filepath.Join(root, "Originals", "Show", "ep.es.srt")
	if len(result.SidecarArchivePaths) != 1 || result.SidecarArchivePaths[0] != wantSidecar {
		t.Fatalf("sidecar archives = %v", result.SidecarArchivePaths)
	}
	if _, err := os.Stat(alignedSidecar); !os.IsNotExist(err) {
		t.Fatal("aligned intermediate not removed")
	}
	if _, err := os.Stat(rawSidecar); !os.IsNotExist(err) {
		t.Fatal("raw sidecar still at original location")
	}
}

func TestArchiveRestoresVideoOnPromotionFailure(t *testing.T) {
	root := t.TempDir()
	videoPath := filepath.Join(root, "ep.mkv")
	write(t, videoPath, "original")

	a := asset.VideoAsset{Path: videoPath, RelPath: "ep.mkv"}
	ar := &Archiver{Root: root}

	// remuxed path does not exist, promotion must fail
	_, err := ar.Archive(a, nil, filepath.Join(root, "missing.tmp.mkv"))
	if !errors.Is(err, services.ErrArchivalFailure) {
		t.Fatalf("err = %v", err)
	}

	// the original is back in place
	data, readErr := os.ReadFile(videoPath)
	if readErr != nil || string(data) != "original" {
		t.Fatalf("original not restored: %q err=%v", data, readErr)
	}
}

func TestArchiveMissingVideoFails(t *testing.T) {
	root := t.TempDir()
	a := asset.VideoAsset{Path: filepath.Join(root, "gone.mkv"), RelPath: "gone.mkv"}
	ar := &Archiver{Root: root}

	_, err := ar.Archive(a, nil, filepath.Join(root, "out.mkv"))
	if !errors.Is(err, services.ErrArchivalFailure) {
		t.Fatalf("err = %v", err)
	}
}
