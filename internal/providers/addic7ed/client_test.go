package addic7ed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"subforge/internal/providers"
)

func TestParseEpisode(t *testing.T) {
	cases := []struct {
		filename string
		want     Episode
		ok       bool
	}{
		{"The.Show.S01E05.1080p.WEB.mkv", Episode{Show: "The Show", Season: 1, Episode: 5}, true},
		{"show_s2e10.mkv", Episode{Show: "show", Season: 2, Episode: 10}, true},
		{"Some Movie (2020).mkv", Episode{}, false},
		{"S01E01.mkv", Episode{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseEpisode(tc.filename)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseEpisode(%q) = %+v ok=%v, want %+v ok=%v", tc.filename, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSearchResolvesShowAndEpisode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shows/search/The Show":
			json.NewEncoder(w).Encode(map[string]any{
				"shows": []map[string]string{{"id": "show-guid", "name": "The Show"}},
			})
		case "/subtitles/get/show-guid/1/5/Spanish":
			json.NewEncoder(w).Encode(map[string]any{
				"matchingSubtitles": []map[string]any{
					{"subtitleId": "sub-1", "version": "WEB", "completed": true, "downloadCount": 12},
					{"subtitleId": "sub-2", "version": "HDTV", "completed": false},
					{"subtitleId": "sub-3", "version": "WEB", "completed": true, "hearingImpaired": true},
				},
			})
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	provider := NewProvider(client, nil)

	got, err := provider.Search(context.Background(), providers.Request{
		Filename: "The.Show.S01E05.1080p.WEB.mkv",
		Language: "es",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].FileID != "sub-1" {
		t.Fatalf("candidates = %v", got)
	}
	if got[0].Provider != ProviderName || got[0].Language != "es" {
		t.Fatalf("candidate = %+v", got[0])
	}
}

func TestSearchSkipsNonEpisodes(t *testing.T) {
	client, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	provider := NewProvider(client, nil)

	got, err := provider.Search(context.Background(), providers.Request{
		Filename: "Some Movie (2020).mkv",
		Language: "es",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no candidates, got %v", got)
	}
}

func TestUnknownShowReturnsNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	provider := NewProvider(client, nil)

	got, err := provider.Search(context.Background(), providers.Request{
		Filename: "Unknown.Show.S01E01.mkv",
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("candidates = %v", got)
	}
}

func TestDownload(t *testing.T) {
	const body = "1\n00:00:01,000 --> 00:00:02,000\nHola\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subtitles/download/sub-1" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		w.Write([]byte(body))
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := client.Download(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != body {
		t.Fatalf("payload = %q", data)
	}
}
