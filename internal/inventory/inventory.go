// Package inventory determines which target subtitle languages a video
// asset already has, either embedded or as sidecar files, and which still
// need to be acquired.
package inventory

import (
	"context"
	"fmt"
	"path/filepath"

	"subforge/internal/asset"
	"subforge/internal/language"
	"subforge/internal/media/ffprobe"
	"subforge/internal/subtitle"
)

// LanguageStatus describes the subtitle coverage for one target language.
type LanguageStatus struct {
	// Language is the ISO 639-1 code.
	Language string
	// Embedded reports a subtitle stream in the container tagged with this
	// language.
	Embedded bool
	// Sidecar is the external subtitle file for this language, if any.
	Sidecar *subtitle.Sidecar
}

// Satisfied reports whether the language needs no acquisition.
func (s LanguageStatus) Satisfied() bool {
	return s.Embedded || s.Sidecar != nil
}

// Result is the full inventory for one asset.
type Result struct {
	// Probe holds the container inspection used downstream by the remux
	// verification gate.
	Probe ffprobe.Result
	// Statuses lists target language coverage in configured order.
	Statuses []LanguageStatus
}

// Missing returns the target languages that have neither an embedded track
// nor a sidecar, in configured order.
func (r Result) Missing() []string {
	var missing []string
	for _, s := range r.Statuses {
		if !s.Satisfied() {
			missing = append(missing, s.Language)
		}
	}
	return missing
}

// Complete reports whether every target language is satisfied by an embedded
// track. Assets in this state require no work at all.
func (r Result) Complete() bool {
	for _, s := range r.Statuses {
		if !s.Embedded {
			return false
		}
	}
	return true
}

// SidecarFor returns the sidecar recorded for a language, or nil.
func (r Result) SidecarFor(lang string) *subtitle.Sidecar {
	for _, s := range r.Statuses {
		if s.Language == lang {
			return s.Sidecar
		}
	}
	return nil
}

// Taker builds inventories. The ffprobe binary and inspection function are
// injected so tests can run without media tooling installed.
type Taker struct {
	FFprobeBinary string
	Inspect       ffprobe.InspectFunc
}

// Take inspects the asset and returns its language coverage for the target
// languages.
func (t Taker) Take(ctx context.Context, a asset.VideoAsset, targets []string) (Result, error) {
	probe, err := t.Inspect(ctx, t.FFprobeBinary, a.Path)
	if err != nil {
		return Result{}, fmt.Errorf("inspect %s: %w", a.Name(), err)
	}

	embedded := make(map[string]bool)
	for _, stream := range probe.SubtitleStreams() {
		code := language.ToISO2(language.ExtractFromTags(stream.Tags))
		if code != "" {
			embedded[code] = true
		}
	}

	sidecars, err := subtitle.FindSidecars(filepath.Dir(a.Path), a.BaseName())
	if err != nil {
		return Result{}, fmt.Errorf("scan sidecars for %s: %w", a.Name(), err)
	}

	result := Result{Probe: probe}
	for _, lang := range targets {
		status := LanguageStatus{Language: lang, Embedded: embedded[lang]}
		if sc, ok := sidecars[lang]; ok {
			copied := sc
			status.Sidecar = &copied
		}
		result.Statuses = append(result.Statuses, status)
	}
	return result, nil
}
