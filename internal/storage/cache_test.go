package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	db, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return db
}

func TestInMemoryDatabaseIsMigrated(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	}()

	cache := NewPayloadCache(db, time.Hour)
	ctx := context.Background()

	if err := cache.Put(ctx, "u", []byte("body")); err != nil {
		t.Fatalf("put against in-memory database: %v", err)
	}
	got, ok, err := cache.Get(ctx, "u")
	if err != nil || !ok {
		t.Fatalf("get = (%v, %v), want hit", ok, err)
	}
	if string(got) != "body" {
		t.Errorf("body = %q, want %q", got, "body")
	}
}

func TestPayloadCacheRoundTrip(t *testing.T) {
	cache := NewPayloadCache(testDB(t), time.Hour)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, "https://example.test/a"); err != nil || ok {
		t.Fatalf("empty cache get = (%v, %v)", ok, err)
	}

	body := []byte(`{"main":[{"name":"Sangan"}]}`)
	if err := cache.Put(ctx, "https://example.test/a", body); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := cache.Get(ctx, "https://example.test/a")
	if err != nil || !ok {
		t.Fatalf("get after put = (%v, %v)", ok, err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("body = %q, want %q", got, body)
	}
}

func TestPayloadCacheOverwrite(t *testing.T) {
	cache := NewPayloadCache(testDB(t), time.Hour)
	ctx := context.Background()

	if err := cache.Put(ctx, "u", []byte("old")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := cache.Put(ctx, "u", []byte("new")); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, ok, err := cache.Get(ctx, "u")
	if err != nil || !ok {
		t.Fatalf("get = (%v, %v)", ok, err)
	}
	if string(got) != "new" {
		t.Errorf("body = %q, want replacement to win", got)
	}
}

func TestPayloadCacheExpiry(t *testing.T) {
	cache := NewPayloadCache(testDB(t), time.Hour)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }

	if err := cache.Put(ctx, "u", []byte("stale soon")); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Within the TTL the entry is served.
	cache.now = func() time.Time { return base.Add(30 * time.Minute) }
	if _, ok, err := cache.Get(ctx, "u"); err != nil || !ok {
		t.Fatalf("get within ttl = (%v, %v)", ok, err)
	}

	// Past the TTL the entry reads as a miss.
	cache.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, ok, err := cache.Get(ctx, "u"); err != nil || ok {
		t.Fatalf("get past ttl = (%v, %v), want miss", ok, err)
	}

	// Purge removes the expired row.
	n, err := cache.Purge(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
}

func TestPayloadCacheZeroTTLNeverExpires(t *testing.T) {
	cache := NewPayloadCache(testDB(t), 0)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }

	if err := cache.Put(ctx, "u", []byte("keep")); err != nil {
		t.Fatalf("put: %v", err)
	}

	cache.now = func() time.Time { return base.AddDate(1, 0, 0) }
	if _, ok, err := cache.Get(ctx, "u"); err != nil || !ok {
		t.Fatalf("get = (%v, %v), want hit a year later", ok, err)
	}

	n, err := cache.Purge(ctx)
	if err != nil || n != 0 {
		t.Errorf("purge = (%d, %v), want no-op", n, err)
	}
}
