package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cesargomez89/nowplaying/internal/constants"
)

// Backend is the key/value contract every cache store implements.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Maintain(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*DB)(nil)
	_ Backend = (*Badger)(nil)
)

// Open opens the configured backend at path.
func Open(backend, path string) (Backend, error) {
	switch backend {
	case constants.CacheBackendSQLite:
		return NewSQLiteDB(path)
	case constants.CacheBackendBadger:
		return NewBadger(path)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", backend)
	}
}
