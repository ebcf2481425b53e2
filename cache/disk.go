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

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const diskSchema = `
CREATE TABLE IF NOT EXISTS api_cache (
	cache_key  TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_api_cache_expires_at ON api_cache (expires_at);
`

// DiskCache keeps entries in a SQLite file under the cache directory.
type DiskCache struct {
	conn *sql.DB
	now  func() time.Time
}

// NewDiskCache opens (or creates) dir/cache.db.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, "cache.db")
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}
	if _, err := conn.Exec(diskSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &DiskCache{conn: conn, now: time.Now}, nil
}

func (c *DiskCache) Get(ctx context.Context, key string, dst interface{}) error {
	var (
		data      string
		expiresAt int64
	)
	err := c.conn.QueryRowContext(ctx, `SELECT data, expires_at FROM api_cache WHERE cache_key = ?`, key).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read cache entry: %w", err)
	}

	if c.now().UnixNano() >= expiresAt {
		if _, err := c.conn.ExecContext(ctx, `DELETE FROM api_cache WHERE cache_key = ?`, key); err != nil {
			zap.L().Warn("Failed to delete expired cache entry", zap.String("key", key), zap.Error(err))
		}
		return ErrMiss
	}

	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return nil
}

func (c *DiskCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	expiresAt := c.now().Add(ttl).UnixNano()
	_, err = c.conn.ExecContext(ctx, `
		INSERT INTO api_cache (cache_key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		key, string(data), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *DiskCache) Clear(ctx context.Context) error {
	if _, err := c.conn.ExecContext(ctx, `DELETE FROM api_cache`); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Purge drops every expired entry and reports how many were removed.
func (c *DiskCache) Purge(ctx context.Context) (int64, error) {
	res, err := c.conn.ExecContext(ctx, `DELETE FROM api_cache WHERE expires_at <= ?`, c.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

func (c *DiskCache) Close() error {
	return c.conn.Close()
}
