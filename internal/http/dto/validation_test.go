package dto

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cesargomez89/nowplaying/internal/domain"
	"github.com/cesargomez89/nowplaying/internal/metacache"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Field: "namespace", Message: "unknown namespace x"}
	if err.Error() != "namespace: unknown namespace x" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestToResponse(t *testing.T) {
	errs := []ValidationError{
		{Field: "namespace", Message: "unknown namespace a"},
		{Field: "namespace", Message: "unknown namespace b"},
	}
	resp := ToResponse(errs)
	expected := "namespace: unknown namespace a; namespace: unknown namespace b"
	if resp != expected {
		t.Errorf("ToResponse() = %q, want %q", resp, expected)
	}
	if m := ToMap(errs); m["namespace"] != "unknown namespace b" {
		t.Errorf("ToMap() = %v", m)
	}
}

func TestParseClearCache(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		want     []metacache.Namespace
		wantErrs int
	}{
		{"all", "", nil, 0},
		{"one", "namespace=catalog:albuminfo", []metacache.Namespace{metacache.CatalogAlbumInfo}, 0},
		{"trailing colon", "namespace=failure:catalog:", []metacache.Namespace{metacache.CatalogFailure}, 0},
		{"comma list", "namespace=lastfm:albuminfo,%20ratelimit:catalog", []metacache.Namespace{metacache.LastfmAlbumInfo, metacache.CatalogRateLimit}, 0},
		{"repeated", "namespace=notfound:catalog&namespace=catalog:albuminfo", []metacache.Namespace{metacache.CatalogNotFound, metacache.CatalogAlbumInfo}, 0},
		{"unknown", "namespace=sessions", nil, 1},
		{"mixed", "namespace=sessions,catalog:albuminfo", []metacache.Namespace{metacache.CatalogAlbumInfo}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/admin/cache/clear?"+tt.query, nil)
			req, errs := ParseClearCache(r)
			if len(errs) != tt.wantErrs {
				t.Errorf("got %d errors, want %d: %v", len(errs), tt.wantErrs, errs)
			}
			if len(req.Namespaces) != len(tt.want) {
				t.Fatalf("got %v, want %v", req.Namespaces, tt.want)
			}
			for i := range tt.want {
				if req.Namespaces[i] != tt.want[i] {
					t.Errorf("namespace %d = %v, want %v", i, req.Namespaces[i], tt.want[i])
				}
			}
		})
	}
}

func TestClearCacheRequest_Names(t *testing.T) {
	if got := (ClearCacheRequest{}).Names(); len(got) != len(metacache.Namespaces()) {
		t.Errorf("Expected every namespace, got %v", got)
	}
	got := ClearCacheRequest{Namespaces: []metacache.Namespace{metacache.CatalogFailure}}.Names()
	if len(got) != 1 || got[0] != "failure:catalog" {
		t.Errorf("Names() = %v", got)
	}
}

func TestFromAlbums(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))

	empty := FromAlbums(nil, now)
	if empty.Albums == nil || len(empty.Albums) != 0 {
		t.Errorf("Expected empty non-nil albums, got %#v", empty.Albums)
	}
	if empty.NowPlaying != nil {
		t.Error("Expected no now playing album")
	}
	if empty.GeneratedAt.Location() != time.UTC {
		t.Error("Expected UTC timestamp")
	}

	resp := FromAlbums([]domain.Album{{Name: "A"}, {Name: "B", IsNowPlaying: true}}, now)
	if resp.NowPlaying == nil || resp.NowPlaying.Name != "B" {
		t.Errorf("Expected B now playing, got %+v", resp.NowPlaying)
	}
}
