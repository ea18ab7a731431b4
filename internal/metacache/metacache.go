// Package metacache is the namespaced, TTL-bounded cache in front of the
// third-party metadata services.
package metacache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/logger"
	"github.com/cesargomez89/nowplaying/internal/metrics"
)

// Store is the key/value backend the cache is layered on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Namespace is a key prefix with its default TTL.
type Namespace struct {
	Prefix string
	TTL    time.Duration
}

var (
	LastfmAlbumInfo  = Namespace{Prefix: "lastfm:albuminfo:", TTL: constants.AlbumInfoTTL}
	CatalogAlbumInfo = Namespace{Prefix: "catalog:albuminfo:", TTL: constants.CatalogAlbumTTL}
	CatalogNotFound  = Namespace{Prefix: "notfound:catalog:", TTL: constants.NotFoundTTL}
	CatalogFailure   = Namespace{Prefix: "failure:catalog:", TTL: constants.FailureWindow}
	CatalogRateLimit = Namespace{Prefix: "ratelimit:catalog:", TTL: constants.RateLimitDecay}
)

// Namespaces lists every namespace, in the order they are cleared.
func Namespaces() []Namespace {
	return []Namespace{LastfmAlbumInfo, CatalogAlbumInfo, CatalogNotFound, CatalogFailure, CatalogRateLimit}
}

// Lookup finds a namespace by prefix, with or without the trailing colon.
func Lookup(name string) (Namespace, bool) {
	name = strings.TrimSuffix(name, ":") + ":"
	for _, ns := range Namespaces() {
		if ns.Prefix == name {
			return ns, true
		}
	}
	return Namespace{}, false
}

// Key builds the storage key for id. Ids are case-folded so that
// "Radiohead" and "radiohead" share an entry.
func (n Namespace) Key(id string) string {
	return n.Prefix + strings.ToLower(strings.TrimSpace(id))
}

func (n Namespace) label() string {
	return strings.TrimSuffix(n.Prefix, ":")
}

type Cache struct {
	store  Store
	logger *logger.Logger
}

func New(store Store, log *logger.Logger) *Cache {
	return &Cache{store: store, logger: log.WithComponent("metacache")}
}

// Get returns the raw value under id, or nil on a miss.
func (c *Cache) Get(ctx context.Context, ns Namespace, id string) ([]byte, error) {
	data, err := c.store.Get(ctx, ns.Key(id))
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", ns.Key(id), err)
	}
	if data == nil {
		metrics.CacheMisses.WithLabelValues(ns.label()).Inc()
		return nil, nil
	}
	metrics.CacheHits.WithLabelValues(ns.label()).Inc()
	return data, nil
}

// Set stores value under id. A non-positive ttl uses the namespace default.
func (c *Cache) Set(ctx context.Context, ns Namespace, id string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ns.TTL
	}
	if err := c.store.Set(ctx, ns.Key(id), value, ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", ns.Key(id), err)
	}
	return nil
}

// Exists reports whether a live entry is stored under id.
func (c *Cache) Exists(ctx context.Context, ns Namespace, id string) (bool, error) {
	data, err := c.Get(ctx, ns, id)
	return data != nil, err
}

// Incr bumps the counter under id and re-arms the namespace TTL.
func (c *Cache) Incr(ctx context.Context, ns Namespace, id string) (int64, error) {
	n, err := c.store.Incr(ctx, ns.Key(id), ns.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache incr %s: %w", ns.Key(id), err)
	}
	return n, nil
}

func (c *Cache) Del(ctx context.Context, ns Namespace, ids ...string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, ns.Key(id))
	}
	return c.store.Del(ctx, keys...)
}

// Clear removes every entry in ns and returns how many were deleted.
func (c *Cache) Clear(ctx context.Context, ns Namespace) (int, error) {
	keys, err := c.store.Keys(ctx, ns.Prefix+"*")
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", ns.Prefix, err)
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return 0, fmt.Errorf("clear %s: %w", ns.Prefix, err)
	}
	c.logger.Info("Cleared cache namespace", "namespace", ns.label(), "keys", len(keys))
	return len(keys), nil
}

// ClearAll clears every namespace.
func (c *Cache) ClearAll(ctx context.Context) (int, error) {
	total := 0
	for _, ns := range Namespaces() {
		n, err := c.Clear(ctx, ns)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// GetJSON decodes the entry under id into T. Malformed entries are reported
// as a miss.
func GetJSON[T any](ctx context.Context, c *Cache, ns Namespace, id string) (T, bool, error) {
	var v T
	data, err := c.Get(ctx, ns, id)
	if err != nil || data == nil {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Debug("Discarding malformed cache entry", "key", ns.Key(id), "error", err)
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}

// SetJSON encodes v and stores it under id. A non-positive ttl uses the
// namespace default.
func SetJSON[T any](ctx context.Context, c *Cache, ns Namespace, id string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ns.Key(id), err)
	}
	return c.Set(ctx, ns, id, data, ttl)
}
