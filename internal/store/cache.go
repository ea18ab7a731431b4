package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

func (db *DB) expiry(ttl time.Duration) *int64 {
	if ttl <= 0 {
		return nil
	}
	ms := db.now().Add(ttl).UnixMilli()
	return &ms
}

// Get returns the value for key, or nil when it is missing or expired.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	type cacheRow struct {
		ExpiresAt sql.NullInt64 `db:"expires_at"`
		Data      []byte        `db:"data"`
	}

	var row cacheRow
	err := db.GetContext(ctx, &row, "SELECT data, expires_at FROM cache WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if row.ExpiresAt.Valid && db.now().UnixMilli() >= row.ExpiresAt.Int64 {
		_, _ = db.ExecContext(ctx, "DELETE FROM cache WHERE key = ? AND expires_at = ?", key, row.ExpiresAt.Int64)
		return nil, nil
	}

	return row.Data, nil
}

// Set stores value under key. A non-positive ttl never expires.
func (db *DB) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO cache (key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at
	`, key, value, db.expiry(ttl))
	return err
}

// Del removes keys. Missing keys are ignored.
func (db *DB) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM cache WHERE key IN (?)", keys)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, db.Rebind(query), args...)
	return err
}

// Keys lists live keys matching a glob pattern such as "catalog:*".
func (db *DB) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := db.SelectContext(ctx, &keys, `
		SELECT key FROM cache
		WHERE key GLOB ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY key
	`, pattern, db.now().UnixMilli())
	return keys, err
}

// Incr atomically increments the counter at key and (re)arms its ttl. An
// expired counter restarts at 1.
func (db *DB) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var n int64
	err := db.QueryRowxContext(ctx, `
		INSERT INTO cache (key, data, expires_at) VALUES (?, '1', ?)
		ON CONFLICT(key) DO UPDATE SET
			data = CASE
				WHEN cache.expires_at IS NOT NULL AND cache.expires_at <= ? THEN '1'
				ELSE CAST(CAST(CAST(cache.data AS TEXT) AS INTEGER) + 1 AS TEXT)
			END,
			expires_at = excluded.expires_at
		RETURNING CAST(CAST(data AS TEXT) AS INTEGER)
	`, key, db.expiry(ttl), db.now().UnixMilli()).Scan(&n)
	return n, err
}

// PurgeExpired deletes expired rows and reports how many were removed.
func (db *DB) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM cache WHERE expires_at IS NOT NULL AND expires_at <= ?", db.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Maintain runs periodic housekeeping.
func (db *DB) Maintain(ctx context.Context) error {
	_, err := db.PurgeExpired(ctx)
	return err
}
