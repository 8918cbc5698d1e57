package addic7ed

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"subforge/internal/language"
	"subforge/internal/providers"
	"subforge/internal/services"
)

// ProviderName identifies this provider in logs, scoring, and the cache.
const ProviderName = "addic7ed"

// Provider adapts the Gestdown client to the provider interface. Addic7ed
// only serves episodic content, so files that do not parse as SxxEyy
// episodes yield no candidates.
type Provider struct {
	client *Client
	cache  *providers.Cache
}

// NewProvider wraps a client. The cache may be nil.
func NewProvider(client *Client, cache *providers.Cache) *Provider {
	return &Provider{client: client, cache: cache}
}

// Name implements providers.Provider.
func (p *Provider) Name() string { return ProviderName }

var episodePattern = regexp.MustCompile(`(?i)^(?P<show>.+?)[. _-]+s(?P<season>\d{1,2})[. _-]?e(?P<episode>\d{1,3})`)

// Episode is the series coordinate parsed from a file name.
type Episode struct {
	Show    string
	Season  int
	Episode int
}

// ParseEpisode extracts series name and episode numbers from a video file
// name. ok is false for movies and unparsable names.
func ParseEpisode(filename string) (Episode, bool) {
	m := episodePattern.FindStringSubmatch(filename)
	if m == nil {
		return Episode{}, false
	}
	show := strings.TrimSpace(strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(m[1]))
	season, _ := strconv.Atoi(m[2])
	episode, _ := strconv.Atoi(m[3])
	if show == "" || season == 0 || episode == 0 {
		return Episode{}, false
	}
	return Episode{Show: show, Season: season, Episode: episode}, true
}

// Search implements providers.Provider.
func (p *Provider) Search(ctx context.Context, req providers.Request) ([]providers.Candidate, error) {
	if cached, ok := p.cache.GetSearch(ProviderName, req.Key()); ok {
		return cached, nil
	}

	ep, ok := ParseEpisode(req.Filename)
	if !ok {
		return nil, nil
	}

	shows, err := p.client.SearchShows(ctx, ep.Show)
	if err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, "acquiring", "search", "addic7ed show lookup failed", err)
	}
	if len(shows) == 0 {
		p.cache.PutSearch(ProviderName, req.Key(), nil)
		return nil, nil
	}

	display := language.DisplayName(req.Language)
	subs, err := p.client.Subtitles(ctx, shows[0].ID, ep.Season, ep.Episode, display)
	if err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, "acquiring", "search", "addic7ed episode lookup failed", err)
	}

	candidates := make([]providers.Candidate, 0, len(subs))
	for _, sub := range subs {
		if sub.HearingImpaired {
			continue
		}
		candidates = append(candidates, providers.Candidate{
			Provider:  ProviderName,
			FileID:    sub.ID,
			Release:   fmt.Sprintf("%s S%02dE%02d %s", ep.Show, ep.Season, ep.Episode, sub.Version),
			Language:  req.Language,
			Downloads: sub.DownloadCount,
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
	data, err := p.client.Download(ctx, c.FileID)
	if err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, "acquiring", "download", "addic7ed download failed", err)
	}
	p.cache.PutPayload(ProviderName, c.FileID, data)
	return data, nil
}
