package opensubtitles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"subforge/internal/providers"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := New(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestSearchSendsMovieHashAndParsesResults(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subtitles" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("moviehash"); got != "8e245d9679d31e12" {
			t.Fatalf("moviehash = %q", got)
		}
		if got := r.Header.Get("Api-Key"); got != "test-key" {
			t.Fatalf("api key header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"id": "123",
					"attributes": map[string]any{
						"language":        "es",
						"release":         "Show.S01E01.1080p.WEB",
						"download_count":  500,
						"moviehash_match": true,
						"files":           []map[string]any{{"file_id": 777}},
					},
				},
				{
					"id": "124",
					"attributes": map[string]any{
						"language": "es",
						"files":    []map[string]any{},
					},
				},
			},
		})
	})

	client := newTestClient(t, server)
	subs, err := client.Search(context.Background(), SearchRequest{
		MovieHash: "8e245d9679d31e12",
		Languages: []string{"es"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("result count = %d", len(subs))
	}
	if subs[0].FileID != 777 || !subs[0].MovieHashMatch {
		t.Fatalf("subtitle = %+v", subs[0])
	}
}

func TestDownloadFollowsLink(t *testing.T) {
	const body = "1\n00:00:01,000 --> 00:00:02,000\nHola\n"
	var server *httptest.Server
	server = newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download":
			json.NewEncoder(w).Encode(map[string]any{
				"link":      server.URL + "/files/777.srt",
				"file_name": "777.srt",
			})
		case "/files/777.srt":
			w.Write([]byte(body))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	client := newTestClient(t, server)
	data, err := client.Download(context.Background(), 777)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != body {
		t.Fatalf("payload = %q", data)
	}
}

func TestLoginStoresToken(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "bearer-token"})
	})

	client, err := New(Config{
		APIKey:     "test-key",
		Username:   "alice",
		Password:   "secret",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if client.userToken != "bearer-token" {
		t.Fatalf("token = %q", client.userToken)
	}
}

func TestProviderFiltersAndCaches(t *testing.T) {
	searches := 0
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		searches++
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"id": "1",
					"attributes": map[string]any{
						"language": "es",
						"release":  "Good.Release",
						"files":    []map[string]any{{"file_id": 1}},
					},
				},
				{
					"id": "2",
					"attributes": map[string]any{
						"language":      "es",
						"ai_translated": true,
						"files":         []map[string]any{{"file_id": 2}},
					},
				},
				{
					"id": "3",
					"attributes": map[string]any{
						"language": "fr",
						"files":    []map[string]any{{"file_id": 3}},
					},
				},
			},
		})
	})

	cache, err := providers.OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	provider := NewProvider(newTestClient(t, server), cache)
	req := providers.Request{Hash: "aa", Filename: "ep.mkv", Language: "es"}

	got, err := provider.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].FileID != "1" {
		t.Fatalf("candidates = %v", got)
	}

	// second call must be served from the cache
	if _, err := provider.Search(context.Background(), req); err != nil {
		t.Fatalf("cached Search: %v", err)
	}
	if searches != 1 {
		t.Fatalf("server hit %d times, want 1", searches)
	}
}
