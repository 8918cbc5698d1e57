// Package archive preserves original files under a mirrored Originals/ tree
// and promotes the remuxed output into the original's place. Promotion is
// the last step so an interrupted run never loses the source video.
package archive

import (
	"log/slog"
	"os"
	"path/filepath"

	"subforge/internal/asset"
	"subforge/internal/fileutil"
	"subforge/internal/logging"
	"subforge/internal/services"
	"subforge/internal/subtitle"
)

// Archiver moves originals below Root/Originals/, mirroring the library
// layout.
type Archiver struct {
	// Root is the library root the Originals/ tree lives under.
	Root   string
	Logger *slog.Logger
}

// Result reports what was archived for one asset.
type Result struct {
	// VideoArchivePath is where the original video now lives.
	VideoArchivePath string
	// SidecarArchivePaths are the archived raw subtitle files.
	SidecarArchivePaths []string
}

// Archive moves the original video and its raw sidecars into the mirrored
// archive, discards aligned intermediates, and renames the remuxed output
// onto the original path. Any failure before the final rename leaves the
// output file in place for inspection and is tagged ErrArchivalFailure.
func (ar *Archiver) Archive(a asset.VideoAsset, sidecars []subtitle.Sidecar, remuxedPath string) (Result, error) {
	log := ar.logger().With(logging.String(logging.FieldAsset, a.Name()))

	videoDest, err := fileutil.MirroredPath(ar.Root, asset.OriginalsDirName, a.Path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrArchivalFailure, "archiving", "mirror", "compute archive path", err)
	}

	if err := fileutil.MoveFile(a.Path, videoDest); err != nil {
		return Result{}, services.Wrap(services.ErrArchivalFailure, "archiving", "move", "archive original video", err)
	}

	result := Result{VideoArchivePath: videoDest}
	for _, sc := range sidecars {
		if sc.Aligned {
			// aligned intermediates are derived data, not originals
			os.Remove(sc.Path)
			continue
		}
		dest, err := fileutil.MirroredPath(ar.Root, asset.OriginalsDirName, sc.Path)
		if err == nil {
			err = fileutil.MoveFile(sc.Path, dest)
		}
		if err != nil {
			ar.restoreVideo(videoDest, a.Path)
			return Result{}, services.Wrap(services.ErrArchivalFailure, "archiving", "move", "archive sidecar "+filepath.Base(sc.Path), err)
		}
		result.SidecarArchivePaths = append(result.SidecarArchivePaths, dest)
	}

	if err := os.Rename(remuxedPath, a.Path); err != nil {
		ar.restoreVideo(videoDest, a.Path)
		return Result{}, services.Wrap(services.ErrArchivalFailure, "archiving", "promote", "promote remuxed output", err)
	}

	log.Info("original archived",
		logging.String("archive", videoDest),
		logging.Int("sidecars", len(result.SidecarArchivePaths)))
	return result, nil
}

// restoreVideo undoes the original move after a later step failed. A failed
// restore is logged, never masked over the primary error.
func (ar *Archiver) restoreVideo(archived, original string) {
	if _, err := os.Stat(original); err == nil {
		return
	}
	if err := fileutil.MoveFile(archived, original); err != nil {
		ar.logger().Error("restore of archived original failed",
			logging.String("archive", archived),
			logging.String("original", original),
			logging.Error(err))
	}
}

func (ar *Archiver) logger() *slog.Logger {
	if ar.Logger != nil {
		return ar.Logger
	}
	return logging.NewNop()
}
