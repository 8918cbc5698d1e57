// Package providers defines the subtitle provider abstraction, candidate
// scoring, retry policy, and the on-disk query cache shared by provider
// implementations.
package providers

import (
	"context"
	"sort"
	"strings"
)

// Request identifies the subtitle wanted for one asset and language.
type Request struct {
	// Hash is the 64-bit content fingerprint in hex, used for exact matching.
	Hash string
	// Size is the video file size in bytes.
	Size int64
	// Filename is the video file name used for fuzzy matching.
	Filename string
	// Language is the ISO 639-1 target language.
	Language string
}

// Key returns a stable cache key for the request.
func (r Request) Key() string {
	return r.Hash + "|" + r.Language + "|" + strings.ToLower(r.Filename)
}

// Candidate is one downloadable subtitle offered by a provider.
type Candidate struct {
	Provider string `json:"provider"`
	// FileID identifies the subtitle for download within the provider.
	FileID string `json:"file_id"`
	// Release is the release name the subtitle was made for.
	Release string `json:"release"`
	Language string `json:"language"`
	// HashMatch reports that the provider matched the content fingerprint,
	// meaning the subtitle was ripped from this exact encode.
	HashMatch bool `json:"hash_match"`
	// Downloads is the provider-reported download count, a popularity proxy.
	Downloads int `json:"downloads"`
	// Score is filled in by Rank.
	Score float64 `json:"score"`
}

// Provider searches for and downloads subtitles from one external service.
type Provider interface {
	// Name returns the stable provider identifier used in logs and caching.
	Name() string
	// Search returns candidates for the request. An empty slice with a nil
	// error means the provider has nothing for this asset.
	Search(ctx context.Context, req Request) ([]Candidate, error)
	// Download fetches the raw subtitle payload for a candidate.
	Download(ctx context.Context, c Candidate) ([]byte, error)
}

// Rank scores candidates against the request and sorts them best first.
// Hash matches always outrank fuzzy matches.
func Rank(req Request, candidates []Candidate) []Candidate {
	ranked := append([]Candidate(nil), candidates...)
	for i := range ranked {
		ranked[i].Score = score(req, ranked[i])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

func score(req Request, c Candidate) float64 {
	var s float64
	if c.HashMatch {
		s += 1000
	}
	s += releaseSimilarity(req.Filename, c.Release) * 100
	if c.Downloads > 0 {
		// logarithm-free dampening, popularity only breaks ties
		n := c.Downloads
		if n > 10000 {
			n = 10000
		}
		s += float64(n) / 1000
	}
	return s
}

// releaseSimilarity returns the token overlap ratio between the video file
// name and a release name, in [0, 1].
func releaseSimilarity(filename, release string) float64 {
	want := tokenize(filename)
	if len(want) == 0 {
		return 0
	}
	have := make(map[string]bool)
	for _, tok := range tokenize(release) {
		have[tok] = true
	}
	matched := 0
	for _, tok := range want {
		if have[tok] {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

func tokenize(name string) []string {
	name = strings.ToLower(name)
	if dot := strings.LastIndex(name, "."); dot > 0 && len(name)-dot <= 5 {
		name = name[:dot]
	}
	fields := strings.FieldsFunc(name, func(r rune) bool {
		switch r {
		case '.', ' ', '-', '_', '[', ']', '(', ')':
			return true
		}
		return false
	})
	var tokens []string
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
