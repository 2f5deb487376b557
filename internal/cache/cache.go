// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache provides a SQLite-backed response cache for dashboard
// data. Entity, portfolio, and trend responses change slowly while the
// backend can be slow to wake, so recent responses are served from disk
// inside a TTL window instead of re-fetching.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMiss means the key is absent or its entry has expired.
	ErrMiss = errors.New("cache miss")
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS responses (
    key        TEXT PRIMARY KEY,
    body       BLOB NOT NULL,
    stored_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_responses_stored_at ON responses(stored_at);
`

// =============================================================================
// CACHE
// =============================================================================

// Cache stores JSON response bodies keyed by endpoint path.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time // overridable in tests
}

// Open opens (or creates) the cache database at path.
func Open(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get unmarshals the cached body for key into v. Returns ErrMiss when
// the key is absent or older than the TTL.
func (c *Cache) Get(ctx context.Context, key string, v any) error {
	var body []byte
	var storedAt int64
	err := c.db.QueryRowContext(ctx,
		"SELECT body, stored_at FROM responses WHERE key = ?", key,
	).Scan(&body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache read: %w", err)
	}

	if c.ttl > 0 && c.now().Unix()-storedAt > int64(c.ttl.Seconds()) {
		return ErrMiss
	}
	if err := json.Unmarshal(body, v); err != nil {
		// A corrupt entry behaves like a miss so the caller re-fetches.
		return ErrMiss
	}
	return nil
}

// Put stores v for key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO responses (key, body, stored_at) VALUES (?, ?, ?)",
		key, body, c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// Invalidate drops one key.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM responses WHERE key = ?", key)
	return err
}

// Prune removes every expired entry. Called opportunistically on
// startup.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.now().Unix() - int64(c.ttl.Seconds())
	res, err := c.db.ExecContext(ctx, "DELETE FROM responses WHERE stored_at <= ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetOrFetch serves key from cache, falling back to fetch and storing
// the result. A cache write failure is logged by the caller's choice:
// here it is ignored, because the fetched value is still good.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var v T
	if c != nil {
		if err := c.Get(ctx, key, &v); err == nil {
			return v, nil
		}
	}
	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	if c != nil {
		_ = c.Put(ctx, key, v)
	}
	return v, nil
}
