// Package addic7ed implements the fallback subtitle provider through the
// Gestdown REST proxy in front of Addic7ed. Addic7ed itself has no API, so
// the proxy's show search and episode lookup endpoints are used instead.
package addic7ed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.gestdown.info"
	defaultHTTPTimeout = 45 * time.Second
)

// Config describes the Gestdown client configuration.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client wraps the Gestdown REST API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("addic7ed: parse base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{baseURL: baseURL, http: client}, nil
}

// Show is a series known to the proxy.
type Show struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchShows resolves a series name to proxy show identifiers.
func (c *Client) SearchShows(ctx context.Context, name string) ([]Show, error) {
	if c == nil {
		return nil, errors.New("addic7ed: client is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("addic7ed: empty show name")
	}
	endpoint := c.baseURL.JoinPath("shows", "search", name)
	var payload struct {
		Shows []Show `json:"shows"`
	}
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, err
	}
	return payload.Shows, nil
}

// Subtitle is one subtitle offered for an episode.
type Subtitle struct {
	ID              string `json:"subtitleId"`
	Version         string `json:"version"`
	Completed       bool   `json:"completed"`
	HearingImpaired bool   `json:"hearingImpaired"`
	DownloadCount   int    `json:"downloadCount"`
}

// Subtitles lists the completed subtitles for one episode of a show in the
// given display language ("Spanish", "English").
func (c *Client) Subtitles(ctx context.Context, showID string, season, episode int, displayLanguage string) ([]Subtitle, error) {
	if c == nil {
		return nil, errors.New("addic7ed: client is nil")
	}
	endpoint := c.baseURL.JoinPath(
		"subtitles", "get", showID,
		fmt.Sprintf("%d", season), fmt.Sprintf("%d", episode),
		displayLanguage,
	)
	var payload struct {
		MatchingSubtitles []Subtitle `json:"matchingSubtitles"`
	}
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, err
	}
	var completed []Subtitle
	for _, sub := range payload.MatchingSubtitles {
		if sub.Completed {
			completed = append(completed, sub)
		}
	}
	return completed, nil
}

// Download fetches the subtitle payload.
func (c *Client) Download(ctx context.Context, subtitleID string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("addic7ed: client is nil")
	}
	if strings.TrimSpace(subtitleID) == "" {
		return nil, errors.New("addic7ed: empty subtitle id")
	}
	endpoint := c.baseURL.JoinPath("subtitles", "download", subtitleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("addic7ed: build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("addic7ed: download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("addic7ed: download failed (%s): %s", resp.Status, strings.TrimSpace(string(body)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("addic7ed: read subtitle data: %w", err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("addic7ed: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("addic7ed: request failed: %w", err)
	}
	defer resp.Body.Close()

	// the proxy answers 404 for unknown shows and episodes without subtitles
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("addic7ed: request failed (%s): %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("addic7ed: decode response: %w", err)
	}
	return nil
}
