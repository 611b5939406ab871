package infra

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// HTTPCache persists raw HTTP response bodies in a local SQLite database
// so repeated fetches of slow-moving resources skip the network entirely.
type HTTPCache struct {
	db  *sql.DB
	ttl time.Duration
}

// NewHTTPCache opens (or creates) the cache database at path. A ttl of
// zero means entries never expire.
func NewHTTPCache(path string, ttl time.Duration) (*HTTPCache, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS http_cache (
		url        TEXT PRIMARY KEY,
		body       BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &HTTPCache{db: db, ttl: ttl}, nil
}

// Get returns the cached body for url, or ok=false when absent or stale.
func (hc *HTTPCache) Get(ctx context.Context, url string) ([]byte, bool) {
	var body []byte
	var fetchedAt int64
	row := hc.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM http_cache WHERE url = ?`, url)
	if err := row.Scan(&body, &fetchedAt); err != nil {
		return nil, false
	}
	if hc.ttl > 0 && time.Since(time.Unix(fetchedAt, 0)) > hc.ttl {
		return nil, false
	}
	return body, true
}

// Put stores the body for url, replacing any previous entry.
func (hc *HTTPCache) Put(ctx context.Context, url string, body []byte) error {
	_, err := hc.db.ExecContext(ctx,
		`INSERT INTO http_cache (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, time.Now().Unix())
	return err
}

// GetOrFetch returns the cached body for url, fetching and storing it
// on a miss. Cache write failures are non-critical and ignored.
func (hc *HTTPCache) GetOrFetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if body, ok := hc.Get(ctx, url); ok {
		return body, nil
	}
	body, err := GetBytes(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	_ = hc.Put(ctx, url, body)
	return body, nil
}

// Prune deletes entries older than the TTL and returns how many were removed.
func (hc *HTTPCache) Prune(ctx context.Context) (int64, error) {
	if hc.ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-hc.ttl).Unix()
	res, err := hc.db.ExecContext(ctx,
		`DELETE FROM http_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (hc *HTTPCache) Close() error {
	return hc.db.Close()
}
