// Package musicbrainz resolves album track listings from MusicBrainz. It is
// the duration source of last resort when the catalog has no match.
package musicbrainz

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/httpclient"
)

const (
	DefaultUserAgent = "nowplaying/1.0 (https://github.com/cesargomez89/nowplaying)"
	Source           = "musicbrainz"

	// MusicBrainz allows one request per second per client.
	requestsPerSecond = 0.95
	requestTimeout    = 10 * time.Second
	releaseURLPrefix  = "https://musicbrainz.org/release/"
)

type Client struct {
	http      *httpclient.Client
	baseURL   string
	userAgent string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: DefaultUserAgent,
		http:      httpclient.NewClient(&http.Client{Timeout: requestTimeout}, requestsPerSecond),
	}
}

// FindAlbum searches for the release best matching album and returns its
// track listing. No match returns nil without error.
func (c *Client) FindAlbum(ctx context.Context, artist, album string) (*domain.AlbumMetadata, error) {
	query := fmt.Sprintf(`release:"%s" AND artist:"%s"`, escapeQuery(album), escapeQuery(artist))
	u := fmt.Sprintf("%s/release?query=%s&fmt=json&limit=5", c.baseURL, url.QueryEscape(query))

	var search searchResponse
	if err := c.doGet(ctx, u, &search); err != nil {
		return nil, fmt.Errorf("search releases: %w", err)
	}

	best := selectBestRelease(search.Releases, album)
	if best == nil {
		return nil, nil
	}

	u = fmt.Sprintf("%s/release/%s?inc=recordings&fmt=json", c.baseURL, url.PathEscape(best.ID))
	var rel release
	if err := c.doGet(ctx, u, &rel); err != nil {
		return nil, fmt.Errorf("get release %s: %w", best.ID, err)
	}
	return toMetadata(&rel), nil
}

func (c *Client) doGet(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func normalize(s string) string {
	s = strings.ToLower(s)
	for _, r := range []string{" ", "-", "_", ",", "(", ")", "'", "."} {
		s = strings.ReplaceAll(s, r, "")
	}
	return s
}

// selectBestRelease prefers a title containing (or contained in) the album
// name, then falls back to the highest scored result.
func selectBestRelease(releases []release, albumName string) *release {
	if len(releases) == 0 {
		return nil
	}

	albumNorm := normalize(albumName)
	for i := range releases {
		r := &releases[i]
		releaseNorm := normalize(r.Title)
		if albumNorm != "" && releaseNorm != "" &&
			(strings.Contains(releaseNorm, albumNorm) || strings.Contains(albumNorm, releaseNorm)) {
			return r
		}
	}

	if releases[0].Score < 90 {
		return nil
	}
	return &releases[0]
}

func toMetadata(rel *release) *domain.AlbumMetadata {
	meta := &domain.AlbumMetadata{
		CatalogID:  rel.ID,
		CatalogURL: releaseURLPrefix + rel.ID,
		Source:     Source,
	}
	for _, m := range rel.Media {
		for _, t := range m.Tracks {
			length := t.Length
			if length == 0 {
				length = t.Recording.Length
			}
			name := t.Title
			if name == "" {
				name = t.Recording.Title
			}
			meta.Tracks = append(meta.Tracks, domain.TrackMetadata{
				Name:       name,
				DurationMs: length,
			})
		}
	}
	return meta
}

type searchResponse struct {
	Releases []release `json:"releases"`
}

type release struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Status string  `json:"status"`
	Date   string  `json:"date"`
	Media  []media `json:"media"`
	Score  int     `json:"score"`
}

type media struct {
	Tracks     []track `json:"tracks"`
	TrackCount int     `json:"track-count"`
}

type track struct {
	Recording recording `json:"recording"`
	Title     string    `json:"title"`
	Length    int64     `json:"length"`
}

type recording struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Length int64  `json:"length"`
}
