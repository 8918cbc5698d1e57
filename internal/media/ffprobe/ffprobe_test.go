package ffprobe

import (
	"encoding/json"
	"testing"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "channels": 6},
    {"index": 2, "codec_name": "subrip", "codec_type": "subtitle", "tags": {"language": "spa"}, "disposition": {"default": 1, "forced": 0}},
    {"index": 3, "codec_name": "subrip", "codec_type": "subtitle", "tags": {"language": "eng"}}
  ],
  "format": {"filename": "movie.mkv", "nb_streams": 4, "duration": "5400.120000", "size": "734003200", "format_name": "matroska,webm"}
}`

func TestResultParsing(t *testing.T) {
	var result Result
	if err := json.Unmarshal([]byte(sampleOutput), &result); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if got := result.VideoStreamCount(); got != 1 {
		t.Fatalf("video count = %d", got)
	}
	if got := result.AudioStreamCount(); got != 1 {
		t.Fatalf("audio count = %d", got)
	}
	subs := result.SubtitleStreams()
	if len(subs) != 2 {
		t.Fatalf("subtitle count = %d", len(subs))
	}
	if subs[0].Tags["language"] != "spa" {
		t.Fatalf("first subtitle language = %q", subs[0].Tags["language"])
	}
	if subs[0].Disposition.Default != 1 {
		t.Fatal("expected first subtitle marked default")
	}
	if got := result.DurationSeconds(); got < 5400.11 || got > 5400.13 {
		t.Fatalf("duration = %f", got)
	}
}

func TestDurationSecondsMissing(t *testing.T) {
	if got := (Result{}).DurationSeconds(); got != 0 {
		t.Fatalf("expected 0 duration, got %f", got)
	}
	if got := (Result{Format: Format{Duration: "bogus"}}).DurationSeconds(); got != 0 {
		t.Fatalf("expected 0 for unparsable duration, got %f", got)
	}
}
