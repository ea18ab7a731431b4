package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrLookupSkipped marks an answer a metadata source gave without asking
// upstream, such as while backing off. It says nothing about the album.
var ErrLookupSkipped = errors.New("lookup skipped")

// AlbumKey identifies an album across the pipeline as "artist:album".
type AlbumKey string

// KeyFor builds the AlbumKey for an artist/album pair.
func KeyFor(artist, album string) AlbumKey {
	return AlbumKey(artist + ":" + album)
}

// ScrobbleEvent is one entry of the listener's recent play history.
type ScrobbleEvent struct {
	ScrobbledAt *time.Time `json:"scrobbled_at,omitempty"`
	Track       string     `json:"track"`
	Album       string     `json:"album"`
	Artist      string     `json:"artist"`
	ArtistID    string     `json:"artist_id,omitempty"`
	NowPlaying  bool       `json:"now_playing,omitempty"`
}

// Key returns the AlbumKey of the album the event belongs to.
func (e ScrobbleEvent) Key() AlbumKey {
	return KeyFor(e.Artist, e.Album)
}

// Artist is the album artist as displayed.
type Artist struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// Images holds artwork URLs by resolution.
type Images struct {
	Small      string `json:"small,omitempty"`
	Medium     string `json:"medium,omitempty"`
	Large      string `json:"large,omitempty"`
	ExtraLarge string `json:"extralarge,omitempty"`
}

// IsEmpty reports whether no artwork is known.
func (i Images) IsEmpty() bool {
	return i.Small == "" && i.Medium == "" && i.Large == "" && i.ExtraLarge == ""
}

// TrackMetadata is catalog data for one track of an album.
type TrackMetadata struct {
	Name       string `json:"name"`
	PreviewURL string `json:"preview_url,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Duration returns the track length.
func (t TrackMetadata) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// AlbumMetadata is catalog enrichment for an album. Track durations drive
// now-playing detection when the history service has no live session flag.
type AlbumMetadata struct {
	CatalogID  string          `json:"catalog_id,omitempty"`
	CatalogURL string          `json:"catalog_url,omitempty"`
	Source     string          `json:"source,omitempty"`
	Tracks     []TrackMetadata `json:"tracks,omitempty"`
	Images     Images          `json:"images"`
}

// TrackDuration looks up a track duration by case-insensitive name.
func (m *AlbumMetadata) TrackDuration(name string) (time.Duration, bool) {
	if m == nil {
		return 0, false
	}
	for _, t := range m.Tracks {
		if strings.EqualFold(t.Name, name) && t.DurationMs > 0 {
			return t.Duration(), true
		}
	}
	return 0, false
}

// AlbumInfo is the canonical album page and artwork from the history service.
type AlbumInfo struct {
	URL    string `json:"url,omitempty"`
	MBID   string `json:"mbid,omitempty"`
	Images Images `json:"images"`
}

// Album is the display record pushed to clients. Pipeline stages return new
// values rather than mutating an Album in place.
type Album struct {
	LastScrobbleTime *time.Time     `json:"lastScrobbleTime,omitempty"`
	NowPlayingTrack  *string        `json:"nowPlayingTrack,omitempty"`
	Enrichment       *AlbumMetadata `json:"enrichment,omitempty"`
	Artist           Artist         `json:"artist"`
	Images           Images         `json:"images"`
	Name             string         `json:"name"`
	URL              string         `json:"url,omitempty"`
	Rank             int            `json:"rank"`
	IsNowPlaying     bool           `json:"isNowPlaying"`
}

// Key returns the AlbumKey of the album.
func (a Album) Key() AlbumKey {
	return KeyFor(a.Artist.Name, a.Name)
}

// Track returns the now-playing track name, or "" when none.
func (a Album) Track() string {
	if a.NowPlayingTrack == nil {
		return ""
	}
	return *a.NowPlayingTrack
}

// NowPlayingResult is the detector verdict for one album.
type NowPlayingResult struct {
	Track        *string `json:"track,omitempty"`
	IsNowPlaying bool    `json:"isNowPlaying"`
}

// NotPlaying is the verdict for an album that is not being listened to.
var NotPlaying = NowPlayingResult{}

// PlayingResult builds a positive verdict for track.
func PlayingResult(track string) NowPlayingResult {
	return NowPlayingResult{IsNowPlaying: true, Track: &track}
}

// Heartbeat is the payload of the periodic heartbeat stream event.
type Heartbeat struct {
	Timestamp  string `json:"timestamp"`
	Interval   int64  `json:"interval"`
	HasUpdates bool   `json:"hasUpdates"`
}
