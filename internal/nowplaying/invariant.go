package nowplaying

import (
	"time"

	"github.com/cesargomez89/nowplaying/internal/domain"
)

// newer reports whether a was scrobbled after b. A nil time is a live
// session and sorts newest.
func newer(a, b *time.Time) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return a.After(*b)
	}
}

// EnforceSinglePlaying returns a copy of albums in which at most one album is
// playing: the one with the latest scrobble time, first in order on ties.
func EnforceSinglePlaying(albums []domain.Album) []domain.Album {
	out := make([]domain.Album, len(albums))
	copy(out, albums)

	winner := -1
	for i, a := range out {
		if !a.IsNowPlaying {
			continue
		}
		if winner < 0 || newer(a.LastScrobbleTime, out[winner].LastScrobbleTime) {
			winner = i
		}
	}
	for i := range out {
		if i != winner && out[i].IsNowPlaying {
			out[i].IsNowPlaying = false
			out[i].NowPlayingTrack = nil
		}
	}
	return out
}

// Playing returns the playing album, if any.
func Playing(albums []domain.Album) (domain.Album, bool) {
	for _, a := range albums {
		if a.IsNowPlaying {
			return a, true
		}
	}
	return domain.Album{}, false
}

// Remaining estimates how much of the playing track is left. It reports
// false when the track duration or its start time is unknown.
func Remaining(a domain.Album, now time.Time) (time.Duration, bool) {
	if !a.IsNowPlaying || a.LastScrobbleTime == nil {
		return 0, false
	}
	duration, ok := a.Enrichment.TrackDuration(a.Track())
	if !ok {
		return 0, false
	}
	return duration - now.Sub(*a.LastScrobbleTime), true
}
