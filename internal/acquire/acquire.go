// Package acquire turns missing-language requirements into sidecar subtitle
// files by querying providers in priority order, ranking candidates, and
// writing validated UTF-8 SRT payloads next to the video.
package acquire

import (
	"context"
	"log/slog"
	"os"

	"subforge/internal/asset"
	"subforge/internal/logging"
	"subforge/internal/providers"
	"subforge/internal/services"
	"subforge/internal/subtitle"
)

// Engine downloads subtitles for one language at a time. Providers are
// consulted in slice order; the first provider is the primary.
type Engine struct {
	Providers []providers.Provider
	Retry     providers.RetryPolicy
	Logger    *slog.Logger
}

// Acquired describes a successfully written sidecar.
type Acquired struct {
	Sidecar   subtitle.Sidecar
	Candidate providers.Candidate
}

// AcquireLanguage fetches a subtitle for one missing language and writes it
// as a raw sidecar. A hash-exact candidate from the primary provider stops
// the provider scan early. Failure to find any usable candidate returns an
// error tagged ErrNoCandidate so the caller degrades the language rather
// than the asset.
func (e *Engine) AcquireLanguage(ctx context.Context, a asset.VideoAsset, fp asset.Fingerprint, lang string) (Acquired, error) {
	log := e.logger().With(
		logging.String(logging.FieldAsset, a.Name()),
		logging.String(logging.FieldLanguage, lang),
	)
	req := providers.Request{
		Hash:     fp.Hash,
		Size:     fp.Size,
		Filename: a.Name(),
		Language: lang,
	}

	var pool []providers.Candidate
	for i, provider := range e.Providers {
		if err := ctx.Err(); err != nil {
			return Acquired{}, err
		}
		var found []providers.Candidate
		err := providers.WithRetry(ctx, e.Retry, func() error {
			var searchErr error
			found, searchErr = provider.Search(ctx, req)
			return searchErr
		})
		if err != nil {
			log.Warn("provider search failed",
				logging.String(logging.FieldProvider, provider.Name()),
				logging.Error(err))
			continue
		}
		log.Debug("provider candidates",
			logging.String(logging.FieldProvider, provider.Name()),
			logging.Int("count", len(found)))
		pool = append(pool, found...)

		// a hash-exact match from the primary provider cannot be beaten,
		// skip the remaining providers
		if i == 0 && hasHashMatch(found) {
			break
		}
	}

	ranked := providers.Rank(req, pool)
	if len(ranked) == 0 {
		return Acquired{}, services.Wrap(services.ErrNoCandidate, "acquiring", "search", "no provider offered a candidate", nil)
	}

	for _, candidate := range ranked {
		acquired, err := e.tryCandidate(ctx, a, lang, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return Acquired{}, ctx.Err()
			}
			log.Warn("candidate rejected",
				logging.String(logging.FieldProvider, candidate.Provider),
				logging.String("file_id", candidate.FileID),
				logging.Error(err))
			continue
		}
		log.Info("subtitle acquired",
			logging.String(logging.FieldProvider, candidate.Provider),
			logging.Bool("hash_match", candidate.HashMatch),
			logging.String("sidecar", acquired.Sidecar.Path))
		return acquired, nil
	}

	return Acquired{}, services.Wrap(services.ErrNoCandidate, "acquiring", "download", "every candidate failed to download or decode", nil)
}

func (e *Engine) tryCandidate(ctx context.Context, a asset.VideoAsset, lang string, candidate providers.Candidate) (Acquired, error) {
	provider := e.providerByName(candidate.Provider)
	if provider == nil {
		return Acquired{}, services.Wrap(services.ErrNoCandidate, "acquiring", "download", "candidate names unknown provider "+candidate.Provider, nil)
	}

	var payload []byte
	err := providers.WithRetry(ctx, e.Retry, func() error {
		var downloadErr error
		payload, downloadErr = provider.Download(ctx, candidate)
		return downloadErr
	})
	if err != nil {
		return Acquired{}, err
	}

	content, err := subtitle.DecodeToUTF8(payload)
	if err != nil {
		return Acquired{}, err
	}
	if err := subtitle.ValidateSRT(content); err != nil {
		return Acquired{}, services.Wrap(services.ErrNoCandidate, "acquiring", "validate", "payload is not usable SRT", err)
	}

	path := a.SidecarPath(lang)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Acquired{}, services.Wrap(services.ErrNoCandidate, "acquiring", "write", "write sidecar", err)
	}
	return Acquired{
		Sidecar:   subtitle.Sidecar{Path: path, Language: lang},
		Candidate: candidate,
	}, nil
}

func (e *Engine) providerByName(name string) providers.Provider {
	for _, p := range e.Providers {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return logging.NewNop()
}

func hasHashMatch(candidates []providers.Candidate) bool {
	for _, c := range candidates {
		if c.HashMatch {
			return true
		}
	}
	return false
}
