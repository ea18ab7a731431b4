package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/metacache"
)

const (
	rateLimitCountID   = "count"
	rateLimitBlockedID = "blocked"
)

// Backoff keeps the catalog's shared failure state in the metadata cache so
// every connection observes the same decisions.
type Backoff struct {
	cache     *metacache.Cache
	threshold int64
	base      time.Duration
	max       time.Duration
}

func NewBackoff(cache *metacache.Cache) *Backoff {
	return &Backoff{
		cache:     cache,
		threshold: constants.FailureThreshold,
		base:      constants.RateLimitBaseDelay,
		max:       constants.RateLimitMaxDelay,
	}
}

// Delay returns the block duration after the nth consecutive rate limit.
func (b *Backoff) Delay(n int64) time.Duration {
	if n < 1 {
		n = 1
	}
	d := b.base
	for i := int64(1); i < n; i++ {
		d *= 2
		if d >= b.max {
			return b.max
		}
	}
	return min(d, b.max)
}

// Blocked reports whether a global rate-limit block is in force.
func (b *Backoff) Blocked(ctx context.Context) (bool, error) {
	return b.cache.Exists(ctx, metacache.CatalogRateLimit, rateLimitBlockedID)
}

// RecordRateLimit counts a 429 and blocks all calls for the resulting delay.
// The count itself decays after a quiet period. It returns the delay applied.
func (b *Backoff) RecordRateLimit(ctx context.Context) (time.Duration, error) {
	n, err := b.cache.Incr(ctx, metacache.CatalogRateLimit, rateLimitCountID)
	if err != nil {
		return 0, err
	}
	d := b.Delay(n)
	return d, b.cache.Set(ctx, metacache.CatalogRateLimit, rateLimitBlockedID, []byte(strconv.FormatInt(n, 10)), d)
}

// Suppressed reports whether id has failed often enough to be skipped.
func (b *Backoff) Suppressed(ctx context.Context, id string) (bool, error) {
	data, err := b.cache.Get(ctx, metacache.CatalogFailure, id)
	if err != nil || data == nil {
		return false, err
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return false, nil
	}
	return n >= b.threshold, nil
}

// RecordFailure bumps the failure counter for id and returns its new value.
func (b *Backoff) RecordFailure(ctx context.Context, id string) (int64, error) {
	return b.cache.Incr(ctx, metacache.CatalogFailure, id)
}

// RecordSuccess forgets earlier failures for id.
func (b *Backoff) RecordSuccess(ctx context.Context, id string) error {
	return b.cache.Del(ctx, metacache.CatalogFailure, id)
}
