package musicbrainz

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSelectBestRelease(t *testing.T) {
	tests := []struct {
		name     string
		album    string
		releases []release
		wantID   string
	}{
		{
			name:     "no releases",
			album:    "In Rainbows",
			releases: nil,
			wantID:   "",
		},
		{
			name:  "prefers title match over score order",
			album: "In Rainbows",
			releases: []release{
				{ID: "a", Title: "In Rainbows Disk 2", Score: 100},
				{ID: "b", Title: "In-Rainbows", Score: 95},
			},
			wantID: "a",
		},
		{
			name:  "falls back to high scored first result",
			album: "Kid A",
			releases: []release{
				{ID: "x", Title: "Kid A Mnesia", Score: 95},
			},
			wantID: "x",
		},
		{
			name:  "rejects weak unrelated results",
			album: "Amnesiac",
			releases: []release{
				{ID: "y", Title: "Something Else", Score: 40},
			},
			wantID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectBestRelease(tt.releases, tt.album)
			gotID := ""
			if got != nil {
				gotID = got.ID
			}
			if gotID != tt.wantID {
				t.Errorf("selectBestRelease() = %q, want %q", gotID, tt.wantID)
			}
		})
	}
}

func TestClient_FindAlbum(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("unexpected user agent %q", got)
		}
		switch {
		case r.URL.Path == "/release":
			if !strings.Contains(r.URL.Query().Get("query"), `release:"In Rainbows"`) {
				t.Errorf("unexpected query %q", r.URL.Query().Get("query"))
			}
			fmt.Fprint(w, `{"releases":[{"id":"rel-1","title":"In Rainbows","score":100}]}`)
		case r.URL.Path == "/release/rel-1":
			fmt.Fprint(w, `{"id":"rel-1","title":"In Rainbows","media":[{"tracks":[
				{"title":"15 Step","length":237000},
				{"title":"","length":0,"recording":{"title":"Bodysnatchers","length":242000}}
			]}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	meta, err := client.FindAlbum(context.Background(), "Radiohead", "In Rainbows")
	if err != nil {
		t.Fatalf("FindAlbum failed: %v", err)
	}
	if meta == nil || meta.Source != Source || meta.CatalogID != "rel-1" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if d, ok := meta.TrackDuration("Bodysnatchers"); !ok || d != 242*time.Second {
		t.Errorf("Expected recording length fallback, got %v %v", d, ok)
	}
}

func TestClient_FindAlbumNoMatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"releases":[]}`)
	}))
	defer ts.Close()

	meta, err := NewClient(ts.URL).FindAlbum(context.Background(), "Nobody", "Nothing")
	if err != nil || meta != nil {
		t.Errorf("Expected nil, nil; got %+v, %v", meta, err)
	}
}

func TestClient_FindAlbumServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	if _, err := NewClient(ts.URL).FindAlbum(context.Background(), "A", "B"); err == nil {
		t.Error("Expected error on server failure")
	}
}
