package stream

import (
	"github.com/goccy/go-json"
	"github.com/samber/lo"

	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/lastfm"
)

// RecentAlbums derives up to limit unique albums from history, most recent
// first. Tracks without an album name are skipped.
func RecentAlbums(tracks []lastfm.Track, limit int) []domain.Album {
	withAlbum := lo.Filter(tracks, func(t lastfm.Track, _ int) bool {
		return t.Album != ""
	})
	unique := lo.UniqBy(withAlbum, func(t lastfm.Track) domain.AlbumKey {
		return domain.KeyFor(t.Artist, t.Album)
	})
	if len(unique) > limit {
		unique = unique[:limit]
	}

	return lo.Map(unique, func(t lastfm.Track, i int) domain.Album {
		return domain.Album{
			Name:             t.Album,
			Artist:           domain.Artist{Name: t.Artist, ID: t.ArtistMBID},
			Rank:             i + 1,
			Images:           t.Images,
			LastScrobbleTime: t.ScrobbledAt,
		}
	})
}

// attachVerdicts returns albums with detector verdicts applied by key.
func attachVerdicts(albums []domain.Album, verdicts map[domain.AlbumKey]domain.NowPlayingResult) []domain.Album {
	return lo.Map(albums, func(a domain.Album, _ int) domain.Album {
		v := verdicts[a.Key()]
		a.IsNowPlaying = v.IsNowPlaying
		a.NowPlayingTrack = v.Track
		return a
	})
}

type projectedAlbum struct {
	Track     *string         `json:"track"`
	Key       domain.AlbumKey `json:"key"`
	IsPlaying bool            `json:"isPlaying"`
}

// projection serializes the client-visible state of albums: order, playing
// flag and playing track.
func projection(albums []domain.Album) ([]byte, error) {
	return json.Marshal(lo.Map(albums, func(a domain.Album, _ int) projectedAlbum {
		return projectedAlbum{Key: a.Key(), IsPlaying: a.IsNowPlaying, Track: a.NowPlayingTrack}
	}))
}
