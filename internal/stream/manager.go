package stream

import (
	"bytes"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/lastfm"
	"github.com/cesargomez89/nowplaying/internal/logger"
	"github.com/cesargomez89/nowplaying/internal/metrics"
	"github.com/cesargomez89/nowplaying/internal/nowplaying"
)

// History fetches the listener's recent scrobbles, newest first.
type History interface {
	RecentTracks(ctx context.Context) ([]lastfm.Track, error)
}

// Enricher decorates albums and resolves track metadata.
type Enricher interface {
	Enrich(ctx context.Context, album domain.Album) domain.Album
	LookupMetadata(ctx context.Context, artist, album string) (*domain.AlbumMetadata, error)
}

// Update is the result of one poll cycle. Albums is nil when nothing
// changed.
type Update struct {
	Albums []domain.Album
}

func (u Update) HasUpdates() bool {
	return u.Albums != nil
}

// Manager runs poll cycles for one connection and remembers what that
// connection was last sent.
type Manager struct {
	history  History
	enricher Enricher
	detector *nowplaying.Detector
	logger   *logger.Logger
	limit    int

	mu   sync.Mutex
	last []byte
}

func NewManager(history History, enricher Enricher, detector *nowplaying.Detector, log *logger.Logger) *Manager {
	last, _ := projection([]domain.Album{})
	return &Manager{
		history:  history,
		enricher: enricher,
		detector: detector,
		logger:   log.WithComponent("stream"),
		limit:    constants.RecentAlbumLimit,
		last:     last,
	}
}

// CheckForUpdates runs one poll cycle. Any failure yields an empty Update.
// Calls are serialized.
func (m *Manager) CheckForUpdates(ctx context.Context) Update {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	albums, err := m.poll(ctx)
	if err != nil {
		m.logger.Warn("Poll cycle failed", "error", err)
		metrics.ObservePoll("failed", time.Since(start))
		return Update{}
	}

	proj, err := projection(albums)
	if err != nil {
		m.logger.Error("Failed to serialize album state", "error", err)
		metrics.ObservePoll("failed", time.Since(start))
		return Update{}
	}
	if bytes.Equal(proj, m.last) {
		metrics.ObservePoll("unchanged", time.Since(start))
		return Update{}
	}

	m.last = proj
	metrics.ObservePoll("changed", time.Since(start))
	if albums == nil {
		albums = []domain.Album{}
	}
	return Update{Albums: albums}
}

func (m *Manager) poll(ctx context.Context) ([]domain.Album, error) {
	tracks, err := m.history.RecentTracks(ctx)
	if err != nil {
		return nil, err
	}

	albums := RecentAlbums(tracks, m.limit)
	verdicts := m.detector.Detect(ctx, lastfm.Events(tracks), m.enricher.LookupMetadata)
	albums = attachVerdicts(albums, verdicts)

	enriched := make([]domain.Album, len(albums))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range albums {
		g.Go(func() error {
			enriched[i] = m.enricher.Enrich(gctx, a)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return nowplaying.EnforceSinglePlaying(enriched), nil
}
