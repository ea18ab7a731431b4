// Package catalog looks up album track listings in an Apple-Music-style
// catalog API. Lookups are guarded by a shared rate-limit backoff and a
// per-album failure counter, both kept in the metadata cache.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/httpclient"
	"github.com/cesargomez89/nowplaying/internal/logger"
	"github.com/cesargomez89/nowplaying/internal/metacache"
	"github.com/cesargomez89/nowplaying/internal/metrics"
)

// Source tags metadata produced by this package.
const Source = "catalog"

var (
	// ErrBackoff is returned without a network call while a global
	// rate-limit block is in force.
	ErrBackoff = fmt.Errorf("catalog: rate limited, backing off: %w", domain.ErrLookupSkipped)
	// ErrSuppressed is returned without a network call for an album that
	// failed too many times recently.
	ErrSuppressed = fmt.Errorf("catalog: lookups suppressed after repeated failures: %w", domain.ErrLookupSkipped)
	// ErrRateLimited is returned when the catalog answers 429.
	ErrRateLimited = errors.New("catalog: rate limited")

	errNotFound = errors.New("catalog: resource not found")
)

type Config struct {
	BaseURL            string
	Storefront         string
	FallbackStorefront string
	Timeout            time.Duration
}

type Client struct {
	http    *httpclient.Client
	tokens  TokenSource
	cache   *metacache.Cache
	backoff *Backoff
	logger  *logger.Logger
	cfg     Config
}

func NewClient(cfg Config, hc *httpclient.Client, tokens TokenSource, cache *metacache.Cache, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		http:    hc,
		tokens:  tokens,
		cache:   cache,
		backoff: NewBackoff(cache),
		logger:  log.WithComponent("catalog"),
		cfg:     cfg,
	}
}

// Backoff exposes the shared failure state.
func (c *Client) Backoff() *Backoff {
	return c.backoff
}

func (c *Client) storefronts() []string {
	fronts := []string{c.cfg.Storefront}
	if fb := c.cfg.FallbackStorefront; fb != "" && !strings.EqualFold(fb, c.cfg.Storefront) {
		fronts = append(fronts, fb)
	}
	return fronts
}

// FindAlbum returns track metadata for an album. A confirmed miss returns
// nil without error and is remembered for a while.
func (c *Client) FindAlbum(ctx context.Context, artist, album string) (*domain.AlbumMetadata, error) {
	id := string(domain.KeyFor(artist, album))
	log := c.logger.WithAlbum(artist, album)

	if blocked, err := c.backoff.Blocked(ctx); err != nil {
		return nil, err
	} else if blocked {
		metrics.ShortCircuits.WithLabelValues("backoff").Inc()
		return nil, ErrBackoff
	}

	if missing, err := c.cache.Exists(ctx, metacache.CatalogNotFound, id); err != nil {
		return nil, err
	} else if missing {
		metrics.ShortCircuits.WithLabelValues("not_found").Inc()
		return nil, nil
	}

	if suppressed, err := c.backoff.Suppressed(ctx, id); err != nil {
		return nil, err
	} else if suppressed {
		metrics.ShortCircuits.WithLabelValues("suppressed").Inc()
		return nil, ErrSuppressed
	}

	meta, err := c.lookup(ctx, artist, album)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		n, incrErr := c.backoff.RecordFailure(ctx, id)
		if incrErr != nil {
			log.Warn("Failed to record catalog failure", "error", incrErr)
		}
		log.Debug("Catalog lookup failed", "error", err, "failures", n)
		return nil, err
	}

	if err := c.backoff.RecordSuccess(ctx, id); err != nil {
		log.Warn("Failed to reset catalog failures", "error", err)
	}

	if meta == nil {
		metrics.CatalogRequests.WithLabelValues("not_found").Inc()
		if err := c.cache.Set(ctx, metacache.CatalogNotFound, id, []byte("1"), 0); err != nil {
			log.Warn("Failed to cache catalog miss", "error", err)
		}
		return nil, nil
	}
	metrics.CatalogRequests.WithLabelValues("ok").Inc()
	return meta, nil
}

func (c *Client) lookup(ctx context.Context, artist, album string) (*domain.AlbumMetadata, error) {
	for _, sf := range c.storefronts() {
		res, level, err := c.findIn(ctx, sf, artist, album)
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		c.logger.Debug("Catalog match", "artist", artist, "album", album, "storefront", sf, "match", level.String(), "id", res.ID)

		tracks := res.Relationships.Tracks.Data
		if len(tracks) == 0 {
			full, err := c.album(ctx, sf, res.ID)
			if err != nil {
				return nil, err
			}
			if full != nil {
				res = full
				tracks = full.Relationships.Tracks.Data
			}
		}
		return toMetadata(res, tracks), nil
	}
	return nil, nil
}

// findIn applies the match policy within one storefront.
func (c *Client) findIn(ctx context.Context, sf, artist, album string) (*albumResource, MatchLevel, error) {
	term := searchTerm(artist, album)
	results, err := c.search(ctx, sf, term)
	if err != nil {
		return nil, NoMatch, err
	}
	if m := matchExact(results, artist, album); m != nil {
		return m, MatchExact, nil
	}

	if alt := alternateTerm(artist, album); alt != "" && !strings.EqualFold(alt, term) {
		more, err := c.search(ctx, sf, alt)
		if err != nil {
			return nil, NoMatch, err
		}
		if m := matchExact(more, artist, album); m != nil {
			return m, MatchExact, nil
		}
		results = append(results, more...)
	}
	if m := matchNormalized(results, artist, album); m != nil {
		return m, MatchAlternate, nil
	}
	if m := matchSubstring(results, artist, album); m != nil {
		return m, MatchSubstring, nil
	}
	return nil, NoMatch, nil
}

func (c *Client) search(ctx context.Context, sf, term string) ([]albumResource, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("types", "albums")
	q.Set("limit", "10")
	u := fmt.Sprintf("%s/catalog/%s/search?%s", c.cfg.BaseURL, url.PathEscape(sf), q.Encode())

	var resp searchResponse
	if err := c.get(ctx, u, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Results.Albums.Data, nil
}

func (c *Client) album(ctx context.Context, sf, id string) (*albumResource, error) {
	u := fmt.Sprintf("%s/catalog/%s/albums/%s?include=tracks", c.cfg.BaseURL, url.PathEscape(sf), url.PathEscape(id))

	var resp albumResponse
	if err := c.get(ctx, u, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return &resp.Data[0], nil
}

func (c *Client) get(ctx context.Context, u string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		metrics.CatalogRequests.WithLabelValues("error").Inc()
		return fmt.Errorf("catalog request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.CatalogRequests.WithLabelValues("rate_limited").Inc()
		d, bErr := c.backoff.RecordRateLimit(ctx)
		if bErr != nil {
			c.logger.Warn("Failed to record rate limit", "error", bErr)
		}
		c.logger.Warn("Catalog rate limited", "block", d, "retry_after", httpclient.RetryAfter(resp))
		return ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		metrics.CatalogRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

func toMetadata(res *albumResource, tracks []trackResource) *domain.AlbumMetadata {
	meta := &domain.AlbumMetadata{
		CatalogID:  res.ID,
		CatalogURL: res.Attributes.URL,
		Source:     Source,
		Tracks:     make([]domain.TrackMetadata, 0, len(tracks)),
		Images:     res.Attributes.Artwork.images(),
	}
	for _, t := range tracks {
		tm := domain.TrackMetadata{
			Name:       t.Attributes.Name,
			DurationMs: t.Attributes.DurationInMillis,
		}
		if len(t.Attributes.Previews) > 0 {
			tm.PreviewURL = t.Attributes.Previews[0].URL
		}
		meta.Tracks = append(meta.Tracks, tm)
	}
	return meta
}
