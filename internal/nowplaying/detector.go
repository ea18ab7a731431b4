// Package nowplaying decides which album, if any, is currently playing from a
// batch of recent scrobbles.
package nowplaying

import (
	"context"
	"fmt"
	"time"

	"github.com/cesargomez89/nowplaying/internal/constants"
	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/logger"
)

// MetadataLookup resolves album metadata (track durations) for the fallback
// heuristic. It may return nil when nothing is known.
type MetadataLookup func(ctx context.Context, artist, album string) (*domain.AlbumMetadata, error)

// Detector holds the detection thresholds and clock. It keeps no state
// between calls.
type Detector struct {
	now            func() time.Time
	logger         *logger.Logger
	bufferTime     time.Duration
	fallbackWindow time.Duration
}

func NewDetector(log *logger.Logger) *Detector {
	return &Detector{
		now:            time.Now,
		logger:         log.WithComponent("nowplaying"),
		bufferTime:     constants.BufferTime,
		fallbackWindow: constants.FallbackWindow,
	}
}

// WithClock replaces the time source.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// Detect returns a verdict for every album present in events. At most one
// album is marked playing.
func (d *Detector) Detect(ctx context.Context, events []domain.ScrobbleEvent, lookup MetadataLookup) map[domain.AlbumKey]domain.NowPlayingResult {
	results := make(map[domain.AlbumKey]domain.NowPlayingResult, len(events))
	if len(events) == 0 {
		return results
	}
	for _, e := range events {
		results[e.Key()] = domain.NotPlaying
	}

	// The upstream session flag wins outright.
	for _, e := range events {
		if e.NowPlaying {
			results[e.Key()] = domain.PlayingResult(e.Track)
			return results
		}
	}

	latest := mostRecent(events)
	if latest == nil {
		return results
	}
	if d.stillPlaying(ctx, *latest, lookup) {
		results[latest.Key()] = domain.PlayingResult(latest.Track)
	}
	return results
}

// mostRecent returns the event with the latest scrobble time. Earlier
// positions win ties.
func mostRecent(events []domain.ScrobbleEvent) *domain.ScrobbleEvent {
	var latest *domain.ScrobbleEvent
	for i := range events {
		e := &events[i]
		if e.ScrobbledAt == nil {
			continue
		}
		if latest == nil || e.ScrobbledAt.After(*latest.ScrobbledAt) {
			latest = e
		}
	}
	return latest
}

func (d *Detector) stillPlaying(ctx context.Context, e domain.ScrobbleEvent, lookup MetadataLookup) bool {
	elapsed := d.now().Sub(*e.ScrobbledAt)
	if elapsed < 0 {
		return false
	}

	duration, ok := d.trackDuration(ctx, e, lookup)
	if !ok {
		return elapsed <= d.fallbackWindow
	}
	return elapsed <= duration+d.bufferTime
}

// trackDuration never fails: lookup errors and panics mean "unknown".
func (d *Detector) trackDuration(ctx context.Context, e domain.ScrobbleEvent, lookup MetadataLookup) (dur time.Duration, ok bool) {
	if lookup == nil {
		return 0, false
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("Metadata lookup panicked", "artist", e.Artist, "album", e.Album, "panic", fmt.Sprint(r))
			dur, ok = 0, false
		}
	}()

	meta, err := lookup(ctx, e.Artist, e.Album)
	if err != nil {
		d.logger.Debug("Metadata lookup failed", "artist", e.Artist, "album", e.Album, "error", err)
		return 0, false
	}
	return meta.TrackDuration(e.Track)
}
