// Package mux embeds subtitle sidecars into the video container with a
// stream-copy remux. Video and audio are never transcoded; subtitles are
// converted to the container's native text codec.
package mux

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subforge/internal/asset"
	"subforge/internal/fileutil"
	"subforge/internal/language"
	"subforge/internal/logging"
	"subforge/internal/media/ffprobe"
	"subforge/internal/services"
	"subforge/internal/subtitle"
)

// RunFunc executes ffmpeg. Injected so tests can inspect the argument list
// without media tooling installed.
type RunFunc func(ctx context.Context, binary string, args []string) error

// Run shells out to ffmpeg and surfaces trailing stderr on failure.
func Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		lines := strings.Split(strings.TrimSpace(string(output)), "\n")
		if len(lines) > 8 {
			lines = lines[len(lines)-8:]
		}
		return fmt.Errorf("%s: %w: %s", binary, err, strings.Join(lines, "\n"))
	}
	return nil
}

// Muxer performs the remux and verifies the result before handing the
// output back for promotion.
type Muxer struct {
	FFmpegBinary  string
	FFprobeBinary string
	// DurationTolerance is the maximum seconds the output duration may
	// drift from the input before the remux is rejected.
	DurationTolerance float64
	Runner            RunFunc
	Inspect           ffprobe.InspectFunc
	Logger            *slog.Logger
}

// Plan describes one remux invocation.
type Plan struct {
	// Sidecars are the subtitle files to embed, in output track order.
	Sidecars []subtitle.Sidecar
	// OutputPath is the temporary output the remux writes to. The caller
	// promotes it over the original after archival succeeds.
	OutputPath string
	// Args is the full ffmpeg argument list.
	Args []string
	// KeptStreams counts existing embedded subtitle streams carried over.
	KeptStreams int
}

// BuildPlan computes the ffmpeg invocation that embeds sidecars into the
// asset. Output subtitle track order follows targets: a target language's
// new sidecar, or its existing embedded stream, in configured order, then
// any remaining embedded streams. Existing streams are dropped only when a
// new sidecar for the same language supersedes them.
func BuildPlan(a asset.VideoAsset, probe ffprobe.Result, sidecars map[string]subtitle.Sidecar, targets []string) (Plan, error) {
	if len(sidecars) == 0 {
		return Plan{}, fmt.Errorf("nothing to embed for %s", a.Name())
	}

	container := a.Container()
	outputPath := filepath.Join(filepath.Dir(a.Path), "."+a.BaseName()+".subforge.tmp"+container)

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", a.Path}

	// input indexes for sidecars, ordered by target language
	var ordered []subtitle.Sidecar
	sidecarInput := make(map[string]int)
	for _, lang := range targets {
		sc, ok := sidecars[lang]
		if !ok {
			continue
		}
		sidecarInput[lang] = len(ordered) + 1
		ordered = append(ordered, sc)
		args = append(args, "-i", sc.Path)
	}

	args = append(args, "-map", "0:v", "-map", "0:a?")

	existing := probe.SubtitleStreams()
	type outputTrack struct {
		lang     string
		fromSide bool
	}
	var tracks []outputTrack

	embeddedIndex := func(lang string) (int, bool) {
		for i, stream := range existing {
			if language.ToISO2(language.ExtractFromTags(stream.Tags)) == lang {
				return i, true
			}
		}
		return 0, false
	}

	kept := 0
	used := make(map[int]bool)
	for _, lang := range targets {
		if input, ok := sidecarInput[lang]; ok {
			args = append(args, "-map", fmt.Sprintf("%d:0", input))
			tracks = append(tracks, outputTrack{lang: lang, fromSide: true})
			// superseded embedded stream of the same language is dropped
			if idx, found := embeddedIndex(lang); found {
				used[idx] = true
			}
			continue
		}
		if idx, found := embeddedIndex(lang); found && !used[idx] {
			args = append(args, "-map", fmt.Sprintf("0:s:%d", idx))
			tracks = append(tracks, outputTrack{lang: lang})
			used[idx] = true
			kept++
		}
	}
	for idx, stream := range existing {
		if used[idx] {
			continue
		}
		lang := language.ToISO2(language.ExtractFromTags(stream.Tags))
		args = append(args, "-map", fmt.Sprintf("0:s:%d", idx))
		tracks = append(tracks, outputTrack{lang: lang})
		used[idx] = true
		kept++
	}

	args = append(args, "-c:v", "copy", "-c:a", "copy")

	// New sidecars are converted to the container's text codec; carried-over
	// embedded streams are stream-copied since they may be bitmap formats
	// like PGS that have no text representation.
	textCodec := "srt"
	if container == ".mp4" {
		textCodec = "mov_text"
	}
	for i, track := range tracks {
		if track.fromSide {
			args = append(args, fmt.Sprintf("-c:s:%d", i), textCodec)
		} else {
			args = append(args, fmt.Sprintf("-c:s:%d", i), "copy")
		}
	}

	for i, track := range tracks {
		if track.lang == "" {
			continue
		}
		args = append(args, fmt.Sprintf("-metadata:s:s:%d", i), "language="+language.ToISO3(track.lang))
	}
	// the first target language track becomes the default subtitle
	if len(tracks) > 0 && len(targets) > 0 && tracks[0].lang == targets[0] {
		args = append(args, "-disposition:s:0", "default")
	}

	args = append(args, outputPath)

	return Plan{
		Sidecars:    ordered,
		OutputPath:  outputPath,
		Args:        args,
		KeptStreams: kept,
	}, nil
}

// Remux executes the plan and verifies the output. The ffmpeg run is
// detached from cancellation so an interrupt cannot leave a truncated file
// looking like a finished one; the temp output is removed on any failure.
func (m *Muxer) Remux(ctx context.Context, a asset.VideoAsset, probe ffprobe.Result, plan Plan) (string, error) {
	log := m.logger().With(logging.String(logging.FieldAsset, a.Name()))

	runCtx := context.WithoutCancel(ctx)
	if err := m.runner()(runCtx, m.ffmpeg(), plan.Args); err != nil {
		os.Remove(plan.OutputPath)
		return "", services.Wrap(services.ErrEmbedFailure, "embedding", "remux", "ffmpeg remux failed", err)
	}

	if err := m.verify(runCtx, probe, plan); err != nil {
		os.Remove(plan.OutputPath)
		return "", services.Wrap(services.ErrEmbedFailure, "embedding", "verify", "remuxed output failed verification", err)
	}

	log.Info("subtitles embedded",
		logging.Int("new_tracks", len(plan.Sidecars)),
		logging.Int("kept_tracks", plan.KeptStreams),
		logging.String("output", plan.OutputPath))
	return plan.OutputPath, nil
}

func (m *Muxer) verify(ctx context.Context, input ffprobe.Result, plan Plan) error {
	if !fileutil.NonEmptyFile(plan.OutputPath) {
		return fmt.Errorf("output missing or empty")
	}
	inspect := m.Inspect
	if inspect == nil {
		inspect = ffprobe.Inspect
	}
	out, err := inspect(ctx, m.ffprobe(), plan.OutputPath)
	if err != nil {
		return err
	}
	wantSubs := len(plan.Sidecars) + plan.KeptStreams
	if got := len(out.SubtitleStreams()); got < wantSubs {
		return fmt.Errorf("output has %d subtitle streams, want %d", got, wantSubs)
	}
	inDur := input.DurationSeconds()
	outDur := out.DurationSeconds()
	if inDur > 0 && outDur > 0 {
		if drift := math.Abs(inDur - outDur); drift > m.tolerance() {
			return fmt.Errorf("duration drift %.2fs exceeds tolerance %.2fs", drift, m.tolerance())
		}
	}
	return nil
}

func (m *Muxer) ffmpeg() string {
	if strings.TrimSpace(m.FFmpegBinary) != "" {
		return m.FFmpegBinary
	}
	return "ffmpeg"
}

func (m *Muxer) ffprobe() string {
	if strings.TrimSpace(m.FFprobeBinary) != "" {
		return m.FFprobeBinary
	}
	return "ffprobe"
}

func (m *Muxer) tolerance() float64 {
	if m.DurationTolerance > 0 {
		return m.DurationTolerance
	}
	return 2.0
}

func (m *Muxer) runner() RunFunc {
	if m.Runner != nil {
		return m.Runner
	}
	return Run
}

func (m *Muxer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return logging.NewNop()
}
