// Package preflight checks the environment before a run starts: required
// binaries, provider credentials, and free disk space at the library root.
package preflight

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sys/unix"

	"subforge/internal/config"
	"subforge/internal/deps"
	"subforge/internal/logging"
	"subforge/internal/services"
)

// Report summarizes the preflight outcome.
type Report struct {
	Binaries []deps.Status
	// FFsubsyncAvailable gates the alignment step; its absence degrades
	// every sidecar to unsynchronized instead of failing the run.
	FFsubsyncAvailable bool
	FreeSpaceBytes     uint64
	ProvidersEnabled   []string
}

// Check runs all preflight probes against the library root. Missing required
// binaries or insufficient disk space fail the run before any asset is
// touched.
func Check(cfg *config.Config, root string, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	report := Report{}

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	report.Binaries = statuses
	for _, status := range statuses {
		if status.Available {
			logger.Debug("binary found",
				logging.String("name", status.Name),
				logging.String("command", status.Command))
			if status.Name == "ffsubsync" {
				report.FFsubsyncAvailable = true
			}
			continue
		}
		if status.Optional {
			logger.Warn("optional binary missing, subtitles will not be time-aligned",
				logging.String("name", status.Name))
			continue
		}
		return report, services.Wrap(services.ErrConfiguration, "preflight", "binaries",
			fmt.Sprintf("required binary %q not found in PATH", status.Name), nil)
	}

	free, err := freeSpace(root)
	if err != nil {
		return report, services.Wrap(services.ErrConfiguration, "preflight", "disk", "stat filesystem", err)
	}
	report.FreeSpaceBytes = free
	minBytes := uint64(cfg.Workflow.MinFreeSpaceGiB) << 30
	if minBytes > 0 && free < minBytes {
		return report, services.Wrap(services.ErrConfiguration, "preflight", "disk",
			fmt.Sprintf("free space %.1f GiB below floor %d GiB", float64(free)/(1<<30), cfg.Workflow.MinFreeSpaceGiB), nil)
	}

	if cfg.OpenSubtitlesEnabled() {
		report.ProvidersEnabled = append(report.ProvidersEnabled, "opensubtitles")
	}
	if cfg.Addic7edEnabled() {
		report.ProvidersEnabled = append(report.ProvidersEnabled, "addic7ed")
	}
	if len(report.ProvidersEnabled) == 0 {
		return report, services.Wrap(services.ErrConfiguration, "preflight", "providers",
			"no provider has credentials, nothing can be acquired", nil)
	}
	logger.Info("preflight passed",
		logging.String("providers", strings.Join(report.ProvidersEnabled, ",")),
		logging.Bool("alignment", report.FFsubsyncAvailable))
	return report, nil
}

func freeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
