package align

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subforge/internal/asset"
	"subforge/internal/subtitle"
)

const goodSRT = "1\n00:00:01,000 --> 00:00:02,000\nHola.\n"

func testFixture(t *testing.T) (asset.VideoAsset, subtitle.Sidecar) {
	t.Helper()
	dir := t.TempDir()
	video := filepath.Join(dir, "ep.mkv")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	raw := filepath.Join(dir, "ep.es.srt")
	if err := os.WriteFile(raw, []byte(goodSRT), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	return asset.VideoAsset{Path: video, RelPath: "ep.mkv"},
		subtitle.Sidecar{Path: raw, Language: "es"}
}

func TestAlignSuccess(t *testing.T) {
	a, sc := testFixture(t)
	var gotArgs []string
	aligner := &Aligner{
		Runner: func(_ context.Context, binary string, args []string) error {
			if binary != "ffsubsync" {
				t.Fatalf("binary = %q", binary)
			}
			gotArgs = args
			// tool writes the aligned output
			return os.WriteFile(args[len(args)-1], []byte(goodSRT), 0o644)
		},
	}

	result, err := aligner.Align(context.Background(), a, sc)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if result.Degraded {
		t.Fatal("expected successful alignment")
	}
	if !result.Sidecar.Aligned || result.Sidecar.Path != a.AlignedSidecarPath("es") {
		t.Fatalf("sidecar = %+v", result.Sidecar)
	}
	if len(gotArgs) != 5 || gotArgs[0] != a.Path || gotArgs[1] != "-i" || gotArgs[2] != sc.Path {
		t.Fatalf("args = %v", gotArgs)
	}
	// raw sidecar stays untouched
	if data, _ := os.ReadFile(sc.Path); string(data) != goodSRT {
		t.Fatal("raw sidecar modified")
	}
}

func TestAlignToolFailureDegrades(t *testing.T) {
	a, sc := testFixture(t)
	aligner := &Aligner{
		Runner: func(context.Context, string, []string) error {
			return errors.New("no audio track")
		},
	}

	result, err := aligner.Align(context.Background(), a, sc)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if !result.Degraded {
		t.Fatal("expected degraded result")
	}
	if result.Sidecar.Path != sc.Path || result.Sidecar.Aligned {
		t.Fatalf("sidecar = %+v", result.Sidecar)
	}
}

func TestAlignEmptyOutputDegrades(t *testing.T) {
	a, sc := testFixture(t)
	aligner := &Aligner{
		Runner: func(_ context.Context, _ string, args []string) error {
			return os.WriteFile(args[len(args)-1], nil, 0o644)
		},
	}

	result, err := aligner.Align(context.Background(), a, sc)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if !result.Degraded {
		t.Fatal("expected degraded result for empty output")
	}
	if _, statErr := os.Stat(a.AlignedSidecarPath("es")); !os.IsNotExist(statErr) {
		t.Fatal("unusable output not cleaned up")
	}
}

func TestAlignSkipsAlreadyAligned(t *testing.T) {
	a, sc := testFixture(t)
	sc.Aligned = true
	called := false
	aligner := &Aligner{
		Runner: func(context.Context, string, []string) error {
			called = true
			return nil
		},
	}

	result, err := aligner.Align(context.Background(), a, sc)
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if called {
		t.Fatal("tool must not run for aligned sidecars")
	}
	if result.Degraded || result.Sidecar != sc {
		t.Fatalf("result = %+v", result)
	}
}

func TestAlignCanceledContext(t *testing.T) {
	a, sc := testFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	aligner := &Aligner{Runner: func(context.Context, string, []string) error { return nil }}
	if _, err := aligner.Align(ctx, a, sc); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
