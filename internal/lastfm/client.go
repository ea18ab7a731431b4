// Package lastfm reads a listener's scrobble history and album pages from
// the Last.fm web service.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/logger"
	"github.com/cesargomez89/nowplaying/internal/metrics"
)

// ErrUnavailable is returned while the history circuit breaker is open.
var ErrUnavailable = errors.New("lastfm: service unavailable")

// Client wraps the Last.fm API with per-call timeouts and a circuit breaker
// around history reads.
type Client struct {
	api     API
	user    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[[]Track]
	logger  *logger.Logger
}

func NewClient(api API, user string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	log = log.WithComponent("lastfm")

	cb := gobreaker.NewCircuitBreaker[[]Track](gobreaker.Settings{
		Name:        "lastfm-history",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		api:     api,
		user:    user,
		timeout: timeout,
		cb:      cb,
		logger:  log,
	}
}

// call runs fn on its own goroutine so the caller can give up at the
// timeout. The library call itself cannot be interrupted.
func call[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// RecentTracks returns the most recent scrobbles, newest first. The history
// is never cached.
func (c *Client) RecentTracks(ctx context.Context) ([]Track, error) {
	tracks, err := c.cb.Execute(func() ([]Track, error) {
		return call(ctx, c.timeout, func() ([]Track, error) {
			return c.api.RecentTracks(c.user, constants.RecentTrackLimit)
		})
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.ShortCircuits.WithLabelValues("breaker_open").Inc()
		return nil, ErrUnavailable
	case err != nil:
		metrics.LastfmRequests.WithLabelValues("user.getRecentTracks", "error").Inc()
		return nil, fmt.Errorf("get recent tracks: %w", err)
	}
	metrics.LastfmRequests.WithLabelValues("user.getRecentTracks", "ok").Inc()
	return tracks, nil
}

// AlbumInfo fetches the canonical album page and artwork. An unknown album
// returns nil without error.
func (c *Client) AlbumInfo(ctx context.Context, artist, album string) (*domain.AlbumInfo, error) {
	info, err := call(ctx, c.timeout, func() (*domain.AlbumInfo, error) {
		return c.api.AlbumInfo(artist, album)
	})
	if err != nil {
		metrics.LastfmRequests.WithLabelValues("album.getInfo", "error").Inc()
		return nil, fmt.Errorf("get album info: %w", err)
	}
	metrics.LastfmRequests.WithLabelValues("album.getInfo", "ok").Inc()
	return info, nil
}
