package opensubtitles

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"subforge/internal/language"
	"subforge/internal/providers"
	"subforge/internal/services"
)

// ProviderName identifies this provider in logs, scoring, and the cache.
const ProviderName = "opensubtitles"

// Provider adapts the REST client to the provider interface, consulting the
// shared query cache before touching the network.
type Provider struct {
	client    *Client
	cache     *providers.Cache
	loginOnce sync.Once
}

// NewProvider wraps a client. The cache may be nil.
func NewProvider(client *Client, cache *providers.Cache) *Provider {
	return &Provider{client: client, cache: cache}
}

// Name implements providers.Provider.
func (p *Provider) Name() string { return ProviderName }

// Search implements providers.Provider. Transient transport failures are
// tagged retryable so the caller's backoff policy applies.
func (p *Provider) Search(ctx context.Context, req providers.Request) ([]providers.Candidate, error) {
	if cached, ok := p.cache.GetSearch(ProviderName, req.Key()); ok {
		return cached, nil
	}

	// credentials raise the download quota but are not required
	p.loginOnce.Do(func() { _ = p.client.Login(ctx) })

	subs, err := p.client.Search(ctx, SearchRequest{
		MovieHash: req.Hash,
		Query:     req.Filename,
		Languages: []string{req.Language},
	})
	if err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, "acquiring", "search", "opensubtitles query failed", err)
	}

	candidates := make([]providers.Candidate, 0, len(subs))
	for _, sub := range subs {
		if sub.AITranslated {
			continue
		}
		if language.ToISO2(sub.Language) != req.Language {
			continue
		}
		candidates = append(candidates, providers.Candidate{
			Provider:  ProviderName,
			FileID:    strconv.FormatInt(sub.FileID, 10),
			Release:   sub.Release,
			Language:  req.Language,
			HashMatch: sub.MovieHashMatch,
			Downloads: sub.Downloads,
		})
	}

	p.cache.PutSearch(ProviderName, req.Key(), candidates)
	return candidates, nil
}

// Download implements providers.Provider.
func (p *Provider) Download(ctx context.Context, c providers.Candidate) ([]byte, error) {
	if cached, ok := p.cache.GetPayload(ProviderName, c.FileID); ok {
		return cached, nil
	}

	fileID, err := strconv.ParseInt(c.FileID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("opensubtitles: bad file id %q: %w", c.FileID, err)
	}
	data, err := p.client.Download(ctx, fileID)
	if err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, "acquiring", "download", "opensubtitles download failed", err)
	}

	p.cache.PutPayload(ProviderName, c.FileID, data)
	return data, nil
}
