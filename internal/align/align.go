// Package align adjusts subtitle timing against the video's audio track
// using an external alignment tool. Alignment is best effort: failures
// degrade the sidecar to unsynchronized instead of failing the asset.
package align

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"subforge/internal/asset"
	"subforge/internal/fileutil"
	"subforge/internal/logging"
	"subforge/internal/subtitle"
)

// RunFunc executes the alignment binary. Split out so tests can fake the
// tool without having it installed.
type RunFunc func(ctx context.Context, binary string, args []string) error

// Run shells out to the alignment tool and surfaces its stderr on failure.
func Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", binary, err, strings.TrimSpace(lastLines(string(output), 5)))
	}
	return nil
}

// Aligner synchronizes sidecar subtitles to a video file.
type Aligner struct {
	Binary  string
	Timeout time.Duration
	Runner  RunFunc
	Logger  *slog.Logger
}

// Result reports what alignment produced for one sidecar.
type Result struct {
	// Sidecar is the file to embed: the aligned output on success, the
	// original input when alignment degraded.
	Sidecar subtitle.Sidecar
	// Degraded is set when the tool failed or produced unusable output and
	// the unsynchronized sidecar is carried forward.
	Degraded bool
}

// Align synchronizes one sidecar against the video. The tool writes to a
// separate .synced.srt path; the input sidecar is never modified, so a
// failed or interrupted run leaves the raw sidecar intact.
func (al *Aligner) Align(ctx context.Context, a asset.VideoAsset, sc subtitle.Sidecar) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	log := al.logger().With(
		logging.String(logging.FieldAsset, a.Name()),
		logging.String(logging.FieldLanguage, sc.Language),
	)
	if sc.Aligned {
		// a previous run already aligned this sidecar
		return Result{Sidecar: sc}, nil
	}

	outPath := a.AlignedSidecarPath(sc.Language)
	runCtx := ctx
	if al.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, al.Timeout)
		defer cancel()
	}

	args := []string{a.Path, "-i", sc.Path, "-o", outPath}
	err := al.runner()(runCtx, al.binary(), args)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Warn("alignment failed, keeping unsynchronized subtitle", logging.Error(err))
		os.Remove(outPath)
		return Result{Sidecar: sc, Degraded: true}, nil
	}

	if !usableOutput(outPath) {
		log.Warn("alignment produced unusable output, keeping unsynchronized subtitle")
		os.Remove(outPath)
		return Result{Sidecar: sc, Degraded: true}, nil
	}

	log.Info("subtitle aligned", logging.String("output", outPath))
	return Result{
		Sidecar: subtitle.Sidecar{Path: outPath, Language: sc.Language, Aligned: true},
	}, nil
}

func usableOutput(path string) bool {
	if !fileutil.NonEmptyFile(path) {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	content, err := subtitle.DecodeToUTF8(data)
	if err != nil {
		return false
	}
	return subtitle.CueCount(content) > 0
}

func (al *Aligner) binary() string {
	if strings.TrimSpace(al.Binary) != "" {
		return al.Binary
	}
	return "ffsubsync"
}

func (al *Aligner) runner() RunFunc {
	if al.Runner != nil {
		return al.Runner
	}
	return Run
}

func (al *Aligner) logger() *slog.Logger {
	if al.Logger != nil {
		return al.Logger
	}
	return logging.NewNop()
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
