package dto

import (
	"time"

	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/nowplaying"
)

type AlbumsResponse struct {
	NowPlaying  *domain.Album  `json:"nowPlaying,omitempty"`
	Albums      []domain.Album `json:"albums"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

func FromAlbums(albums []domain.Album, now time.Time) AlbumsResponse {
	if albums == nil {
		albums = []domain.Album{}
	}
	resp := AlbumsResponse{Albums: albums, GeneratedAt: now.UTC()}
	if playing, ok := nowplaying.Playing(albums); ok {
		resp.NowPlaying = &playing
	}
	return resp
}
