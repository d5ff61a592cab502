package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PayloadCache stores fetched HTTP bodies keyed by URL with an expiry.
// Entries older than the TTL are treated as misses and lazily replaced on
// the next successful fetch. A zero TTL keeps entries forever.
type PayloadCache struct {
	db  *DB
	ttl time.Duration
	now func() time.Time
}

// NewPayloadCache creates a cache over an open database.
func NewPayloadCache(db *DB, ttl time.Duration) *PayloadCache {
	return &PayloadCache{db: db, ttl: ttl, now: time.Now}
}

// Get returns the cached body for url. The second result reports whether a
// fresh entry was found.
func (c *PayloadCache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	var body []byte
	var fetchedAt int64

	row := c.db.Conn().QueryRowContext(ctx,
		`SELECT body, fetched_at FROM http_cache WHERE url = ?`, url)
	if err := row.Scan(&body, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}
	return body, true, nil
}

// Put stores a fetched body for url, replacing any previous entry.
func (c *PayloadCache) Put(ctx context.Context, url string, body []byte) error {
	_, err := c.db.Conn().ExecContext(ctx,
		`INSERT INTO http_cache (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, c.now().Unix())
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Purge deletes every entry older than the TTL and returns the number
// removed. With a zero TTL nothing is purged.
func (c *PayloadCache) Purge(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}

	cutoff := c.now().Add(-c.ttl).Unix()
	res, err := c.db.Conn().ExecContext(ctx,
		`DELETE FROM http_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}
