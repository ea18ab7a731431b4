package lastfm

import (
	"time"

	"github.com/cesargomez89/nowplaying/internal/domain"
)

// Track is one entry of a user's recent listening history.
type Track struct {
	ScrobbledAt *time.Time
	Name        string
	Artist      string
	ArtistMBID  string
	Album       string
	URL         string
	Images      domain.Images
	NowPlaying  bool
}

// Event converts the track into the detector's input shape.
func (t Track) Event() domain.ScrobbleEvent {
	return domain.ScrobbleEvent{
		ScrobbledAt: t.ScrobbledAt,
		Track:       t.Name,
		Album:       t.Album,
		Artist:      t.Artist,
		ArtistID:    t.ArtistMBID,
		NowPlaying:  t.NowPlaying,
	}
}

// Events converts a history page into scrobble events, preserving order.
func Events(tracks []Track) []domain.ScrobbleEvent {
	events := make([]domain.ScrobbleEvent, 0, len(tracks))
	for _, t := range tracks {
		events = append(events, t.Event())
	}
	return events
}

type image struct {
	Size string
	URL  string
}

func imagesFrom(list []image) domain.Images {
	var out domain.Images
	for _, img := range list {
		switch img.Size {
		case "small":
			out.Small = img.URL
		case "medium":
			out.Medium = img.URL
		case "large":
			out.Large = img.URL
		case "extralarge", "mega":
			if out.ExtraLarge == "" || img.Size == "extralarge" {
				out.ExtraLarge = img.URL
			}
		}
	}
	return out
}
