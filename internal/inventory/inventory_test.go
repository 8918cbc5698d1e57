package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"subforge/internal/asset"
	"subforge/internal/media/ffprobe"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHola.\n"

func fakeInspect(result ffprobe.Result) ffprobe.InspectFunc {
	return func(context.Context, string, string) (ffprobe.Result, error) {
		return result, nil
	}
}

func probeWithSubtitleLangs(langs ...string) ffprobe.Result {
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: "h264"},
			{Index: 1, CodecType: "audio", CodecName: "aac"},
		},
	}
	for i, lang := range langs {
		result.Streams = append(result.Streams, ffprobe.Stream{
			Index:     2 + i,
			CodecType: "subtitle",
			CodecName: "subrip",
			Tags:      map[string]string{"language": lang},
		})
	}
	return result
}

func testAsset(t *testing.T) asset.VideoAsset {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ep.mkv")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return asset.VideoAsset{Path: path, RelPath: "ep.mkv", Size: 5}
}

func TestTakeReportsMissingLanguages(t *testing.T) {
	a := testAsset(t)
	taker := Taker{FFprobeBinary: "ffprobe", Inspect: fakeInspect(probeWithSubtitleLangs("eng"))}

	result, err := taker.Take(context.Background(), a, []string{"es", "en"})
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if got := result.Missing(); len(got) != 1 || got[0] != "es" {
		t.Fatalf("missing = %v", got)
	}
	if result.Complete() {
		t.Fatal("expected incomplete inventory")
	}
}

func TestTakeCountsSidecars(t *testing.T) {
	a := testAsset(t)
	sidecar := filepath.Join(filepath.Dir(a.Path), "ep.es.srt")
	if err := os.WriteFile(sidecar, []byte(sampleSRT), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	taker := Taker{FFprobeBinary: "ffprobe", Inspect: fakeInspect(probeWithSubtitleLangs())}

	result, err := taker.Take(context.Background(), a, []string{"es", "en"})
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if got := result.Missing(); len(got) != 1 || got[0] != "en" {
		t.Fatalf("missing = %v", got)
	}
	sc := result.SidecarFor("es")
	if sc == nil || sc.Path != sidecar {
		t.Fatalf("sidecar = %+v", sc)
	}
	if result.Complete() {
		t.Fatal("sidecar alone must not mark the asset complete")
	}
}

func TestTakeCompleteWhenAllEmbedded(t *testing.T) {
	a := testAsset(t)
	taker := Taker{FFprobeBinary: "ffprobe", Inspect: fakeInspect(probeWithSubtitleLangs("spa", "eng"))}

	result, err := taker.Take(context.Background(), a, []string{"es", "en"})
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if !result.Complete() {
		t.Fatal("expected complete inventory")
	}
	if got := result.Missing(); len(got) != 0 {
		t.Fatalf("missing = %v", got)
	}
}
