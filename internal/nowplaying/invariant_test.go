package nowplaying

import (
	"testing"
	"time"

	"github.com/cesargomez89/nowplaying/internal/domain"
)

func playing(name string, at *time.Time) domain.Album {
	track := name + " track"
	return domain.Album{Name: name, Artist: domain.Artist{Name: "R"}, IsNowPlaying: true, NowPlayingTrack: &track, LastScrobbleTime: at}
}

func TestEnforceSinglePlaying(t *testing.T) {
	tests := []struct {
		name   string
		albums []domain.Album
		want   string
	}{
		{"none playing", []domain.Album{{Name: "A"}, {Name: "B"}}, ""},
		{"one playing", []domain.Album{{Name: "A"}, playing("B", ago(time.Minute))}, "B"},
		{"latest wins", []domain.Album{playing("A", ago(5 * time.Minute)), playing("B", ago(time.Minute))}, "B"},
		{"live session wins", []domain.Album{playing("A", ago(time.Second)), playing("B", nil)}, "B"},
		{"tie keeps first", []domain.Album{playing("A", ago(time.Minute)), playing("B", ago(time.Minute))}, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EnforceSinglePlaying(tt.albums)
			count := 0
			for _, a := range out {
				if a.IsNowPlaying {
					count++
					if a.Name != tt.want {
						t.Errorf("Expected %s playing, got %s", tt.want, a.Name)
					}
				} else if a.NowPlayingTrack != nil {
					t.Errorf("Expected track cleared on %s", a.Name)
				}
			}
			if (tt.want == "" && count != 0) || (tt.want != "" && count != 1) {
				t.Errorf("Expected single playing album, got %d", count)
			}
		})
	}
}

func TestEnforceSinglePlayingDoesNotMutateInput(t *testing.T) {
	in := []domain.Album{playing("A", ago(5 * time.Minute)), playing("B", ago(time.Minute))}
	_ = EnforceSinglePlaying(in)
	if !in[0].IsNowPlaying {
		t.Error("input slice must not be modified")
	}
}

func TestRemaining(t *testing.T) {
	a := playing("A", ago(100*time.Second))
	track := "Song"
	a.NowPlayingTrack = &track
	a.Enrichment = &domain.AlbumMetadata{Tracks: []domain.TrackMetadata{{Name: "Song", DurationMs: 115000}}}

	got, ok := Remaining(a, testNow)
	if !ok || got != 15*time.Second {
		t.Errorf("Remaining = %v %v, want 15s", got, ok)
	}

	a.LastScrobbleTime = nil
	if _, ok := Remaining(a, testNow); ok {
		t.Error("Expected unknown remaining without a start time")
	}

	a.LastScrobbleTime = ago(time.Second)
	a.Enrichment = nil
	if _, ok := Remaining(a, testNow); ok {
		t.Error("Expected unknown remaining without metadata")
	}

	if _, ok := Remaining(domain.Album{}, testNow); ok {
		t.Error("Expected unknown remaining when nothing plays")
	}
}
