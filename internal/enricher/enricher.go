// Package enricher decorates albums with artwork, canonical links and track
// durations from the metadata services, through the metadata cache.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/logger"
	"github.com/cesargomez89/nowplaying/internal/metacache"
)

// AlbumInfoSource provides the canonical album page and artwork.
type AlbumInfoSource interface {
	AlbumInfo(ctx context.Context, artist, album string) (*domain.AlbumInfo, error)
}

// MetadataSource provides per-track metadata. A nil result means the album
// is unknown to the source.
type MetadataSource interface {
	FindAlbum(ctx context.Context, artist, album string) (*domain.AlbumMetadata, error)
}

// cachedMetadata distinguishes a remembered miss from an empty cache.
type cachedMetadata struct {
	Metadata *domain.AlbumMetadata `json:"metadata"`
	NotFound bool                  `json:"not_found"`
}

type Enricher struct {
	cache   *metacache.Cache
	info    AlbumInfoSource
	sources []MetadataSource
	group   singleflight.Group
	logger  *logger.Logger

	fetchTimeout time.Duration
}

// New builds an Enricher. Metadata sources are tried in order until one
// returns a match.
func New(cache *metacache.Cache, info AlbumInfoSource, log *logger.Logger, sources ...MetadataSource) *Enricher {
	return &Enricher{
		cache:   cache,
		info:    info,
		sources: sources,
		logger:  log.WithComponent("enricher"),

		fetchTimeout: constants.MetadataFetchTimeout,
	}
}

// Enrich returns a decorated copy of album. Failures leave the affected
// fields untouched.
func (e *Enricher) Enrich(ctx context.Context, album domain.Album) domain.Album {
	album = e.withAlbumInfo(ctx, album)
	return e.withMetadata(ctx, album)
}

func (e *Enricher) withAlbumInfo(ctx context.Context, album domain.Album) domain.Album {
	if e.info == nil {
		return album
	}
	log := e.logger.WithAlbum(album.Artist.Name, album.Name)
	id := string(album.Key())

	info, ok, err := metacache.GetJSON[domain.AlbumInfo](ctx, e.cache, metacache.LastfmAlbumInfo, id)
	if err != nil {
		log.Debug("Album info cache read failed", "error", err)
	}
	if !ok {
		fetched, err := e.info.AlbumInfo(ctx, album.Artist.Name, album.Name)
		if err != nil {
			log.Warn("Album info lookup failed", "error", err)
			return album
		}
		if fetched != nil {
			info = *fetched
		}
		if err := metacache.SetJSON(ctx, e.cache, metacache.LastfmAlbumInfo, id, info, 0); err != nil {
			log.Debug("Album info cache write failed", "error", err)
		}
	}

	if info.URL != "" {
		album.URL = info.URL
	}
	if !info.Images.IsEmpty() {
		album.Images = info.Images
	}
	return album
}

func (e *Enricher) withMetadata(ctx context.Context, album domain.Album) domain.Album {
	meta, err := e.LookupMetadata(ctx, album.Artist.Name, album.Name)
	if err != nil {
		e.logger.WithAlbum(album.Artist.Name, album.Name).Debug("Metadata lookup failed", "error", err)
		return album
	}
	if meta != nil {
		album.Enrichment = meta
		if album.Images.IsEmpty() {
			album.Images = meta.Images
		}
	}
	return album
}

// LookupMetadata is the cache-aside track metadata lookup. Concurrent calls
// for the same album share one upstream request.
func (e *Enricher) LookupMetadata(ctx context.Context, artist, album string) (*domain.AlbumMetadata, error) {
	id := string(domain.KeyFor(artist, album))

	cached, ok, err := metacache.GetJSON[cachedMetadata](ctx, e.cache, metacache.CatalogAlbumInfo, id)
	if err != nil {
		e.logger.Debug("Metadata cache read failed", "key", id, "error", err)
	}
	if ok {
		return cached.Metadata, nil
	}

	v, err, _ := e.group.Do(metacache.CatalogAlbumInfo.Key(id), func() (any, error) {
		// other callers may be waiting on this fetch
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.fetchTimeout)
		defer cancel()
		return e.fetchMetadata(fetchCtx, id, artist, album)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.AlbumMetadata), nil
}

func (e *Enricher) fetchMetadata(ctx context.Context, id, artist, album string) (*domain.AlbumMetadata, error) {
	var errs []error
	answered := false
	for _, src := range e.sources {
		meta, err := src.FindAlbum(ctx, artist, album)
		if errors.Is(err, domain.ErrLookupSkipped) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		answered = true
		if meta == nil {
			continue
		}
		if err := metacache.SetJSON(ctx, e.cache, metacache.CatalogAlbumInfo, id, cachedMetadata{Metadata: meta}, 0); err != nil {
			e.logger.Debug("Metadata cache write failed", "key", id, "error", err)
		}
		return meta, nil
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("lookup %s: %w", id, errors.Join(errs...))
	}
	if !answered {
		return nil, fmt.Errorf("lookup %s: %w", id, domain.ErrLookupSkipped)
	}

	// every source that was asked answered and none knew the album
	if err := metacache.SetJSON(ctx, e.cache, metacache.CatalogAlbumInfo, id, cachedMetadata{NotFound: true}, metacache.CatalogNotFound.TTL); err != nil {
		e.logger.Debug("Metadata cache write failed", "key", id, "error", err)
	}
	return nil, nil
}
