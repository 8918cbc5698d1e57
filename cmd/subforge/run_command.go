package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"subforge/internal/acquire"
	"subforge/internal/align"
	"subforge/internal/config"
	"subforge/internal/inventory"
	"subforge/internal/logging"
	"subforge/internal/media/ffprobe"
	"subforge/internal/mux"
	"subforge/internal/notifications"
	"subforge/internal/pipeline"
	"subforge/internal/preflight"
	"subforge/internal/providers"
	"subforge/internal/providers/addic7ed"
	"subforge/internal/providers/opensubtitles"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <library-root>",
		Short: "Process every video under a directory tree",
		Long: `Scans the tree for video files, downloads missing Spanish and English
subtitles, aligns their timing, embeds them with a stream-copy remux, and
archives the originals under Originals/. Reruns are idempotent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cfg)
			if err != nil {
				return err
			}
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			report, err := preflight.Check(cfg, root, logger)
			if err != nil {
				notifier := buildNotifier(cfg, logger)
				notifier.RunFailed(cmd.Context(), err.Error())
				return err
			}

			orchestrator, cleanup, err := buildOrchestrator(cfg, logger, report, dryRun)
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := orchestrator.Run(runCtx, root)
			if err != nil {
				return err
			}
			summary.Render(cmd.OutOrStdout(), stdoutIsTerminal())
			if summary.Failed > 0 {
				return fmt.Errorf("%w: %d of %d", failedAssetsError, summary.Failed, len(summary.States))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Inventory only, report planned work without touching files")
	return cmd
}

func buildOrchestrator(cfg *config.Config, logger *slog.Logger, report preflight.Report, dryRun bool) (*pipeline.Orchestrator, func(), error) {
	cache, err := providers.OpenCache(cfg.Paths.CacheDir)
	if err != nil {
		logger.Warn("provider cache unavailable, continuing without it", logging.Error(err))
		cache = nil
	}
	cleanup := func() {
		if cache != nil {
			cache.Close()
		}
	}

	providerList, err := buildProviders(cfg, cache)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	retry := providers.RetryPolicy{
		Attempts: cfg.Workflow.ProviderRetryAttempts,
		Initial:  time.Duration(cfg.Workflow.RetryInitialMillis) * time.Millisecond,
		Max:      time.Duration(cfg.Workflow.RetryMaxMillis) * time.Millisecond,
	}

	orchestrator := &pipeline.Orchestrator{
		Config: cfg,
		Logger: logger,
		Taker: inventory.Taker{
			FFprobeBinary: cfg.FFprobeBinary(),
			Inspect:       ffprobe.Inspect,
		},
		Engine: &acquire.Engine{
			Providers: providerList,
			Retry:     retry,
			Logger:    logging.NewComponentLogger(logger, "acquire"),
		},
		Aligner: &align.Aligner{
			Binary:  cfg.FFsubsyncBinary(),
			Timeout: time.Duration(cfg.Sync.TimeoutSeconds) * time.Second,
			Logger:  logging.NewComponentLogger(logger, "align"),
		},
		AlignmentAvailable: report.FFsubsyncAvailable,
		Muxer: &mux.Muxer{
			FFmpegBinary:      cfg.FFmpegBinary(),
			FFprobeBinary:     cfg.FFprobeBinary(),
			DurationTolerance: cfg.Remux.DurationToleranceSeconds,
			Logger:            logging.NewComponentLogger(logger, "mux"),
		},
		Notifier: buildNotifier(cfg, logger),
		DryRun:   dryRun,
	}
	return orchestrator, cleanup, nil
}

// buildProviders wires the enabled providers in priority order: opensubtitles
// first, addic7ed as the fallback.
func buildProviders(cfg *config.Config, cache *providers.Cache) ([]providers.Provider, error) {
	var list []providers.Provider
	if cfg.OpenSubtitlesEnabled() {
		client, err := opensubtitles.New(opensubtitles.Config{
			APIKey:    cfg.OpenSubtitles.APIKey,
			Username:  cfg.OpenSubtitles.Username,
			Password:  cfg.OpenSubtitles.Password,
			UserAgent: cfg.OpenSubtitles.UserAgent,
			BaseURL:   cfg.OpenSubtitles.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		list = append(list, opensubtitles.NewProvider(client, cache))
	}
	if cfg.Addic7edEnabled() {
		client, err := addic7ed.New(addic7ed.Config{BaseURL: cfg.Addic7ed.BaseURL})
		if err != nil {
			return nil, err
		}
		list = append(list, addic7ed.NewProvider(client, cache))
	}
	return list, nil
}

func buildNotifier(cfg *config.Config, logger *slog.Logger) *notifications.Notifier {
	return &notifications.Notifier{
		Topic:      cfg.Notifications.NtfyTopic,
		Timeout:    time.Duration(cfg.Notifications.RequestTimeout) * time.Second,
		Completion: cfg.Notifications.Completion,
		Errors:     cfg.Notifications.Errors,
		HTTPClient: http.DefaultClient,
		Logger:     logging.NewComponentLogger(logger, "notify"),
	}
}
