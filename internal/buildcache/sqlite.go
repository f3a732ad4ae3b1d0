// Package buildcache provides a persistent artifact cache stored in SQLite.
package buildcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/syssam/appsyncgen"
)

// FileName is the database file created in a cache directory.
const FileName = "appsyncgen-cache.db"

const schema = `CREATE TABLE IF NOT EXISTS artifacts (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
)`

// SQLite is an appsyncgen.Cache persisted in a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ appsyncgen.Cache = (*SQLite)(nil)

// Open opens, creating if needed, the cache database in dir.
func Open(ctx context.Context, dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &appsyncgen.CacheError{Op: "open", Err: err}
	}
	return OpenDSN(ctx, "file:"+filepath.Join(dir, FileName)+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
}

// OpenDSN opens the cache database of a sqlite data source name, e.g.
// "file::memory:" in tests.
func OpenDSN(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &appsyncgen.CacheError{Op: "open", Err: err}
	}
	// In-memory databases live per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, &appsyncgen.CacheError{Op: "open", Err: errors.Join(err, db.Close())}
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Get implements appsyncgen.Cache.
func (c *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value   []byte
		expires int64
	)
	err := c.db.QueryRowContext(ctx, `SELECT value, expires_at FROM artifacts WHERE key = ?`, key).Scan(&value, &expires)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, &appsyncgen.CacheError{Op: "get", Key: key, Err: err}
	}
	if expires != 0 && c.now().UnixNano() >= expires {
		if err := c.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return value, nil
}

// Set implements appsyncgen.Cache.
func (c *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	var expires int64
	if ttl > 0 {
		expires = now.Add(ttl).UnixNano()
	}
	if value == nil {
		value = []byte{}
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO artifacts (key, value, expires_at, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, created_at = excluded.created_at`,
		key, value, expires, now.UnixNano(),
	)
	if err != nil {
		return &appsyncgen.CacheError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete implements appsyncgen.Cache.
func (c *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM artifacts WHERE key = ?`, key); err != nil {
		return &appsyncgen.CacheError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Clear implements appsyncgen.Cache.
func (c *SQLite) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM artifacts`); err != nil {
		return &appsyncgen.CacheError{Op: "clear", Err: err}
	}
	return nil
}

// Prune removes expired entries and returns how many were removed.
func (c *SQLite) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM artifacts WHERE expires_at != 0 AND expires_at <= ?`, c.now().UnixNano())
	if err != nil {
		return 0, &appsyncgen.CacheError{Op: "prune", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &appsyncgen.CacheError{Op: "prune", Err: err}
	}
	return n, nil
}

// Len returns the number of stored entries.
func (c *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`).Scan(&n); err != nil {
		return 0, &appsyncgen.CacheError{Op: "count", Err: err}
	}
	return n, nil
}

// Close closes the database.
func (c *SQLite) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close build cache: %w", err)
	}
	return nil
}
