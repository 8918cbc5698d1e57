package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"subforge/internal/acquire"
	"subforge/internal/align"
	"subforge/internal/archive"
	"subforge/internal/asset"
	"subforge/internal/config"
	"subforge/internal/inventory"
	"subforge/internal/logging"
	"subforge/internal/mux"
	"subforge/internal/notifications"
	"subforge/internal/services"
	"subforge/internal/subtitle"
)

// lockFileName is the run-scoped lock at the library root. Two concurrent
// runs over the same tree would race on archival and promotion.
const lockFileName = ".subforge.lock"

// Orchestrator wires the stage implementations into the per-asset workflow.
type Orchestrator struct {
	Config  *config.Config
	Logger  *slog.Logger
	Taker   inventory.Taker
	Engine  *acquire.Engine
	Aligner *align.Aligner
	// AlignmentAvailable is false when the alignment binary is missing;
	// every sidecar then embeds unsynchronized.
	AlignmentAvailable bool
	Muxer              *mux.Muxer
	Notifier           *notifications.Notifier
	// DryRun stops each asset after inventory and reports planned work.
	DryRun bool
}

// Run processes every video asset under root. The returned summary covers
// all assets; the error is non-nil only when the run itself could not
// proceed. Individual asset failures are contained in the summary.
func (o *Orchestrator) Run(ctx context.Context, root string) (*Summary, error) {
	runID := uuid.NewString()
	log := o.logger().With(logging.String(logging.FieldRunID, runID))
	ctx = logging.WithRunID(ctx, runID)

	started := time.Now()

	// a dry run mutates nothing, so it takes no lock and leaves no file
	if !o.DryRun {
		runLock := flock.New(filepath.Join(root, lockFileName))
		locked, err := runLock.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "run", "lock", "acquire run lock", err)
		}
		if !locked {
			return nil, services.Wrap(services.ErrConfiguration, "run", "lock", "another run is already processing this tree", nil)
		}
		defer func() {
			runLock.Unlock()
			os.Remove(runLock.Path())
		}()
	}

	assets, err := asset.Scan(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "run", "scan", "scan library root", err)
	}
	log.Info("library scanned",
		logging.String("root", root),
		logging.Int("assets", len(assets)),
		logging.Bool("dry_run", o.DryRun))

	states := make([]*AssetState, len(assets))
	locks := newPathLocks()

	workers := o.Config.Workflow.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, a := range assets {
		wg.Add(1)
		go func(i int, a asset.VideoAsset) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			unlock := locks.lock(a.Path)
			defer unlock()

			states[i] = o.processAsset(logging.WithAsset(ctx, a.Name()), a)
		}(i, a)
	}
	wg.Wait()

	summary := buildSummary(runID, root, o.primaryLanguage(), states, time.Since(started))
	log.Info("run finished",
		logging.Int("processed", summary.Processed),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Elapsed))

	if !o.DryRun {
		o.Notifier.RunCompleted(ctx, summary.Processed, summary.Failed, summary.Skipped)
	}
	return summary, nil
}

// processAsset runs the full stage sequence for one asset. Every error path
// is contained here: the return value always carries a terminal stage.
func (o *Orchestrator) processAsset(ctx context.Context, a asset.VideoAsset) *AssetState {
	state := &AssetState{Asset: a, Stage: StageDiscovered}
	log := o.logger().With(logging.Args(logging.ContextFields(ctx)...)...)

	fail := func(err error) *AssetState {
		state.Stage = StageFailed
		state.Err = err
		log.Error("asset failed", logging.String(logging.FieldStage, string(state.Stage)), logging.Error(err))
		return state
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	targets := o.Config.TargetLanguages()
	inv, err := o.Taker.Take(ctx, a, targets)
	if err != nil {
		return fail(services.Wrap(services.ErrExternalTool, "inventorying", "probe", "inspect container", err))
	}
	state.Stage = StageInventoried

	if inv.Complete() {
		state.Stage = StageSkipped
		state.SkipReason = "all target languages already embedded"
		log.Debug("asset skipped", logging.String("reason", state.SkipReason))
		return state
	}

	// languages that need embedding: an existing sidecar or a fresh download
	toEmbed := make(map[string]subtitle.Sidecar)
	var missing []string
	for _, status := range inv.Statuses {
		switch {
		case status.Embedded:
		case status.Sidecar != nil:
			toEmbed[status.Language] = *status.Sidecar
		default:
			missing = append(missing, status.Language)
		}
	}

	if o.DryRun {
		state.Stage = StageSkipped
		state.SkipReason = fmt.Sprintf("dry run: would acquire %d, embed %d", len(missing), len(missing)+len(toEmbed))
		state.UnresolvedLanguages = missing
		return state
	}

	// raw files to archive alongside the video; an aligned sidecar left by a
	// prior interrupted run still points at its raw counterpart
	var rawSidecars []subtitle.Sidecar
	for lang, sc := range toEmbed {
		if !sc.Aligned {
			rawSidecars = append(rawSidecars, sc)
			continue
		}
		if sc.RawPath != "" {
			rawSidecars = append(rawSidecars, subtitle.Sidecar{Path: sc.RawPath, Language: lang})
		}
	}

	if len(missing) > 0 {
		state.Stage = StageAcquiring
		fp, err := asset.ComputeFingerprint(a.Path)
		if err != nil {
			return fail(services.Wrap(services.ErrExternalTool, "acquiring", "fingerprint", "hash video", err))
		}
		for _, lang := range missing {
			acquired, err := o.Engine.AcquireLanguage(ctx, a, fp, lang)
			if err != nil {
				if ctx.Err() != nil {
					return fail(ctx.Err())
				}
				if errors.Is(err, services.ErrNoCandidate) {
					state.UnresolvedLanguages = append(state.UnresolvedLanguages, lang)
					log.Warn("language unresolved",
						logging.String(logging.FieldLanguage, lang),
						logging.Error(err))
					continue
				}
				return fail(err)
			}
			toEmbed[lang] = acquired.Sidecar
			rawSidecars = append(rawSidecars, acquired.Sidecar)
		}
	}

	if len(toEmbed) == 0 {
		state.Stage = StageSkipped
		state.SkipReason = "no subtitles available to embed"
		return state
	}

	state.Stage = StageSynchronizing
	for lang, sc := range toEmbed {
		if !o.AlignmentAvailable {
			state.DegradedLanguages = append(state.DegradedLanguages, lang)
			continue
		}
		result, err := o.Aligner.Align(ctx, a, sc)
		if err != nil {
			return fail(err)
		}
		toEmbed[lang] = result.Sidecar
		if result.Degraded {
			state.DegradedLanguages = append(state.DegradedLanguages, lang)
		}
	}

	state.Stage = StageEmbedding
	plan, err := mux.BuildPlan(a, inv.Probe, toEmbed, targets)
	if err != nil {
		return fail(services.Wrap(services.ErrEmbedFailure, "embedding", "plan", "build remux plan", err))
	}
	remuxed, err := o.Muxer.Remux(ctx, a, inv.Probe, plan)
	if err != nil {
		return fail(err)
	}

	// archive raw sidecars and discard aligned intermediates
	archiveList := append([]subtitle.Sidecar(nil), rawSidecars...)
	for _, sc := range toEmbed {
		if sc.Aligned {
			archiveList = append(archiveList, sc)
		}
	}
	archiver := &archive.Archiver{Root: rootOf(a), Logger: o.Logger}
	if _, err := archiver.Archive(a, archiveList, remuxed); err != nil {
		return fail(err)
	}

	state.Stage = StageArchived
	for lang := range toEmbed {
		state.EmbeddedLanguages = append(state.EmbeddedLanguages, lang)
	}
	log.Info("asset complete",
		logging.Int("embedded", len(state.EmbeddedLanguages)),
		logging.Int("degraded", len(state.DegradedLanguages)),
		logging.Int("unresolved", len(state.UnresolvedLanguages)))
	return state
}

func (o *Orchestrator) primaryLanguage() string {
	targets := o.Config.TargetLanguages()
	if len(targets) == 0 {
		return "es"
	}
	return targets[0]
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.NewNop()
}

// rootOf recovers the library root from the asset's relative path.
func rootOf(a asset.VideoAsset) string {
	root := a.Path
	rel := a.RelPath
	for rel != "." && rel != "" {
		root = filepath.Dir(root)
		rel = filepath.Dir(rel)
	}
	return root
}
