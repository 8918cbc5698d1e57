// Package asset discovers video files under a library root and computes the
// fingerprint used for exact provider matching.
package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OriginalsDirName is the archive subdirectory mirrored under the library
// root. Files below it are never treated as processable assets.
const OriginalsDirName = "Originals"

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".webm": true,
}

// VideoAsset is a single video file eligible for subtitle processing.
type VideoAsset struct {
	// Path is the absolute path to the video file.
	Path string
	// RelPath is the path relative to the library root, used to mirror the
	// directory layout under Originals/.
	RelPath string
	// Size is the file size in bytes at discovery time.
	Size int64
}

// Name returns the file name without directory.
func (a VideoAsset) Name() string {
	return filepath.Base(a.Path)
}

// Container returns the lowercased file extension including the dot.
func (a VideoAsset) Container() string {
	return strings.ToLower(filepath.Ext(a.Path))
}

// BaseName returns the file name without the container extension.
func (a VideoAsset) BaseName() string {
	name := a.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// SidecarPath returns the conventional sidecar subtitle path for a language,
// next to the video file: <video>.<lang>.srt.
func (a VideoAsset) SidecarPath(lang string) string {
	dir := filepath.Dir(a.Path)
	return filepath.Join(dir, fmt.Sprintf("%s.%s.srt", a.BaseName(), lang))
}

// AlignedSidecarPath returns the temporary path the alignment step writes to
// before replacing the raw sidecar.
func (a VideoAsset) AlignedSidecarPath(lang string) string {
	dir := filepath.Dir(a.Path)
	return filepath.Join(dir, fmt.Sprintf("%s.%s.synced.srt", a.BaseName(), lang))
}

// IsVideoFile reports whether the path carries a recognized video extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scan walks root recursively and returns every video asset found, sorted by
// path for deterministic processing order. The Originals/ archive tree,
// hidden directories, and hidden files are skipped; the latter covers remux
// temp outputs left by an interrupted run.
func Scan(root string) ([]VideoAsset, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", absRoot)
	}

	var assets []VideoAsset
	err = filepath.WalkDir(absRoot, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			name := entry.Name()
			if path != absRoot && (name == OriginalsDirName || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") || !IsVideoFile(path) {
			return nil
		}
		fi, err := entry.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		assets = append(assets, VideoAsset{Path: path, RelPath: rel, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return assets, nil
}
