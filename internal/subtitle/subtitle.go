// Package subtitle models sidecar subtitle files and provides SRT parsing
// and charset normalization for downloaded payloads.
package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"subforge/internal/language"
)

// Sidecar is an external subtitle file next to a video asset.
type Sidecar struct {
	Path     string
	Language string
	// Aligned marks sidecars produced by the timing alignment step.
	Aligned bool
	// RawPath is the unaligned counterpart an aligned sidecar superseded,
	// when one still exists on disk. It needs archiving too.
	RawPath string
}

var sidecarPattern = regexp.MustCompile(`^(?P<base>.+)\.(?P<lang>[a-z]{2,3})(?P<synced>\.synced)?\.srt$`)

// ParseSidecarName decomposes a subtitle file name into the video base name
// and language code. It returns ok=false for names that do not follow the
// <video>.<lang>.srt convention.
func ParseSidecarName(name string) (base, lang string, aligned, ok bool) {
	m := sidecarPattern.FindStringSubmatch(strings.ToLower(filepath.Base(name)))
	if m == nil {
		return "", "", false, false
	}
	// recover original-case base from the input
	full := filepath.Base(name)
	baseLen := len(m[1])
	return full[:baseLen], m[2], m[3] != "", true
}

// FindSidecars returns the sidecar subtitles in dir that belong to the video
// base name, keyed by ISO 639-1 language code. File names may carry either
// the 2- or 3-letter code; both normalize to the same key. An aligned
// sidecar supersedes the raw one for its language but keeps a pointer to it
// so the raw file is still archived.
func FindSidecars(dir, videoBase string) (map[string]Sidecar, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	type pair struct {
		raw     *Sidecar
		aligned *Sidecar
	}
	byLang := make(map[string]*pair)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base, lang, aligned, ok := ParseSidecarName(entry.Name())
		if !ok || base != videoBase {
			continue
		}
		key := language.ToISO2(lang)
		if key == "" {
			key = lang
		}
		sc := &Sidecar{
			Path:     filepath.Join(dir, entry.Name()),
			Language: key,
			Aligned:  aligned,
		}
		p := byLang[key]
		if p == nil {
			p = &pair{}
			byLang[key] = p
		}
		if aligned {
			p.aligned = sc
		} else {
			p.raw = sc
		}
	}

	found := make(map[string]Sidecar, len(byLang))
	for key, p := range byLang {
		switch {
		case p.aligned != nil:
			sc := *p.aligned
			if p.raw != nil {
				sc.RawPath = p.raw.Path
			}
			found[key] = sc
		default:
			found[key] = *p.raw
		}
	}
	return found, nil
}
