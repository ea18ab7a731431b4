package lastfm

import (
	"errors"
	"strconv"
	"time"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/cesargomez89/nowplaying/internal/domain"
)

// errNotFound is the Last.fm error code for an unknown album or artist.
const errNotFound = 6

// API is the subset of the Last.fm web service the client relies on.
// Calls are blocking and take no context.
type API interface {
	RecentTracks(user string, limit int) ([]Track, error)
	AlbumInfo(artist, album string) (*domain.AlbumInfo, error)
}

type libAPI struct {
	api *lastfm.Api
}

// NewAPI returns the Last.fm web service binding.
func NewAPI(apiKey, apiSecret string) API {
	return &libAPI{api: lastfm.New(apiKey, apiSecret)}
}

func (l *libAPI) RecentTracks(user string, limit int) ([]Track, error) {
	result, err := l.api.User.GetRecentTracks(lastfm.P{
		"user":  user,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		imgs := make([]image, 0, len(t.Images))
		for _, img := range t.Images {
			imgs = append(imgs, image{Size: img.Size, URL: img.Url})
		}

		track := Track{
			Name:       t.Name,
			Artist:     t.Artist.Name,
			ArtistMBID: t.Artist.Mbid,
			Album:      t.Album.Name,
			URL:        t.Url,
			Images:     imagesFrom(imgs),
			NowPlaying: t.NowPlaying == "true",
		}
		if uts, err := strconv.ParseInt(t.Date.Uts, 10, 64); err == nil && uts > 0 {
			at := time.Unix(uts, 0).UTC()
			track.ScrobbledAt = &at
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (l *libAPI) AlbumInfo(artist, album string) (*domain.AlbumInfo, error) {
	result, err := l.api.Album.GetInfo(lastfm.P{
		"artist":      artist,
		"album":       album,
		"autocorrect": 1,
	})
	if err != nil {
		var lfmErr *lastfm.LastfmError
		if errors.As(err, &lfmErr) && lfmErr.Code == errNotFound {
			return nil, nil
		}
		return nil, err
	}

	imgs := make([]image, 0, len(result.Images))
	for _, img := range result.Images {
		imgs = append(imgs, image{Size: img.Size, URL: img.Url})
	}
	return &domain.AlbumInfo{
		URL:    result.Url,
		MBID:   result.Mbid,
		Images: imagesFrom(imgs),
	}, nil
}
