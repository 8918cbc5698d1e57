package providers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache persists provider search results and downloaded payloads so reruns
// and retries do not hit provider rate limits again.
type Cache struct {
	db *sql.DB
	// TTL bounds how long cached search results are trusted. Payloads never
	// expire: a subtitle file for a given file id does not change.
	TTL time.Duration
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS searches (
    provider   TEXT NOT NULL,
    query_key  TEXT NOT NULL,
    results    TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (provider, query_key)
);
CREATE TABLE IF NOT EXISTS payloads (
    provider   TEXT NOT NULL,
    file_id    TEXT NOT NULL,
    body       BLOB NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (provider, file_id)
);
`

// OpenCache opens or creates the cache database under dir.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", filepath.Join(dir, "providers.db"))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}
	return &Cache{db: db, TTL: 24 * time.Hour}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// GetSearch returns cached candidates for the query, if present and fresh.
func (c *Cache) GetSearch(provider, key string) ([]Candidate, bool) {
	if c == nil {
		return nil, false
	}
	var payload string
	var createdAt int64
	err := c.db.QueryRow(
		`SELECT results, created_at FROM searches WHERE provider = ? AND query_key = ?`,
		provider, key,
	).Scan(&payload, &createdAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false
		}
		return nil, false
	}
	if c.TTL > 0 && time.Since(time.Unix(createdAt, 0)) > c.TTL {
		return nil, false
	}
	var candidates []Candidate
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		return nil, false
	}
	return candidates, true
}

// PutSearch stores candidates for the query. Cache write failures are
// swallowed: the cache is an optimization, never a correctness dependency.
func (c *Cache) PutSearch(provider, key string, candidates []Candidate) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	c.db.Exec(
		`INSERT OR REPLACE INTO searches (provider, query_key, results, created_at) VALUES (?, ?, ?, ?)`,
		provider, key, string(payload), time.Now().Unix(),
	)
}

// GetPayload returns a cached subtitle download.
func (c *Cache) GetPayload(provider, fileID string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	var body []byte
	err := c.db.QueryRow(
		`SELECT body FROM payloads WHERE provider = ? AND file_id = ?`,
		provider, fileID,
	).Scan(&body)
	if err != nil || len(body) == 0 {
		return nil, false
	}
	return body, true
}

// PutPayload stores a subtitle download.
func (c *Cache) PutPayload(provider, fileID string, body []byte) {
	if c == nil || len(body) == 0 {
		return
	}
	c.db.Exec(
		`INSERT OR REPLACE INTO payloads (provider, file_id, body, created_at) VALUES (?, ?, ?, ?)`,
		provider, fileID, body, time.Now().Unix(),
	)
}
