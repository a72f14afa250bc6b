// Package pgcache is cache.Cache kept in the cache_entries Postgres table.
// Expired rows are invisible to reads and removed by the janitor.
// Expiry is checked with clock_timestamp so it works inside long transactions too.
package pgcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/smallsquare/internal/cache"
	"github.com/nkiryanov/smallsquare/internal/logger"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Cache struct {
	db DBTX
}

func New(db DBTX) *Cache {
	return &Cache{db: db}
}

const setEntry = `-- name: SetEntry
INSERT INTO cache_entries (key, value, expires_at)
VALUES ($1, $2, clock_timestamp() + $3::bigint * interval '1 millisecond')
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
`

func (c *Cache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return cache.ErrInvalidTTL
	}

	_, err := c.db.Exec(ctx, setEntry, key, value, ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Expired row is taken over, live one is kept
const setEntryNX = `-- name: SetEntryNX
INSERT INTO cache_entries (key, value, expires_at)
VALUES ($1, $2, clock_timestamp() + $3::bigint * interval '1 millisecond')
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
WHERE cache_entries.expires_at <= clock_timestamp()
RETURNING key
`

func (c *Cache) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, cache.ErrInvalidTTL
	}

	rows, _ := c.db.Query(ctx, setEntryNX, key, value, ttl.Milliseconds())
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[string])

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("db error: %w", err)
	}
}

const getEntry = `-- name: GetEntry
SELECT value FROM cache_entries
WHERE key = $1 AND expires_at > clock_timestamp()
`

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	rows, _ := c.db.Query(ctx, getEntry, key)
	value, err := pgx.CollectOneRow(rows, pgx.RowTo[string])

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, pgx.ErrNoRows):
		return "", cache.ErrMiss
	default:
		return "", fmt.Errorf("db error: %w", err)
	}
}

const deleteEntry = `-- name: DeleteEntry
DELETE FROM cache_entries WHERE key = $1
`

func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.db.Exec(ctx, deleteEntry, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const entryExists = `-- name: EntryExists
SELECT EXISTS (
    SELECT 1 FROM cache_entries
    WHERE key = $1 AND expires_at > clock_timestamp()
)
`

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	rows, _ := c.db.Query(ctx, entryExists, key)
	ok, err := pgx.CollectOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

const purgeExpired = `-- name: PurgeExpired
DELETE FROM cache_entries WHERE expires_at <= clock_timestamp()
`

// PurgeExpired deletes expired rows and returns how many were removed
func (c *Cache) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := c.db.Exec(ctx, purgeExpired)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunJanitor purges expired rows every interval until ctx is done
func (c *Cache) RunJanitor(ctx context.Context, interval time.Duration, l logger.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := c.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				l.Error("cache janitor failed to purge expired entries", "error", err)
				continue
			}
			if n > 0 {
				l.Debug("cache janitor purged expired entries", "count", n)
			}
		}
	}
}
