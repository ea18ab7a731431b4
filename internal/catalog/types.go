package catalog

import (
	"strconv"
	"strings"

	"github.com/cesargomez89/nowplaying/internal/domain"
)

// Wire shapes of the catalog API. Only the fields the client reads are
// declared.

type artwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type albumAttributes struct {
	Artwork    artwork `json:"artwork"`
	Name       string  `json:"name"`
	ArtistName string  `json:"artistName"`
	URL        string  `json:"url"`
}

// size renders the artwork URL template at n pixels, capped at the source
// dimensions when they are known.
func (a artwork) size(n int) string {
	if a.URL == "" {
		return ""
	}
	w, h := n, n
	if a.Width > 0 {
		w = min(w, a.Width)
	}
	if a.Height > 0 {
		h = min(h, a.Height)
	}
	r := strings.NewReplacer("{w}", strconv.Itoa(w), "{h}", strconv.Itoa(h))
	return r.Replace(a.URL)
}

func (a artwork) images() domain.Images {
	return domain.Images{
		Small:      a.size(34),
		Medium:     a.size(64),
		Large:      a.size(174),
		ExtraLarge: a.size(300),
	}
}

type albumResource struct {
	Relationships struct {
		Tracks struct {
			Data []trackResource `json:"data"`
		} `json:"tracks"`
	} `json:"relationships"`
	ID         string          `json:"id"`
	Attributes albumAttributes `json:"attributes"`
}

type trackResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Name             string `json:"name"`
		DurationInMillis int64  `json:"durationInMillis"`
		Previews         []struct {
			URL string `json:"url"`
		} `json:"previews"`
	} `json:"attributes"`
}

type searchResponse struct {
	Results struct {
		Albums struct {
			Data []albumResource `json:"data"`
		} `json:"albums"`
	} `json:"results"`
}

type albumResponse struct {
	Data []albumResource `json:"data"`
}
