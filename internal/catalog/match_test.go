package catalog

import "testing"

func candidate(name, artist string) albumResource {
	var a albumResource
	a.ID = name
	a.Attributes.Name = name
	a.Attributes.ArtistName = artist
	return a
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"OK Computer":             "ok computer",
		"Hail to the Thief!":      "hail to the thief",
		"  Weird   Fishes/Arpeggi": "weird fishes arpeggi",
		"Sigur Rós":               "sigur rós",
		"":                        "",
	}
	for in, want := range tests {
		if got := normalize(in); got != want {
			t.Errorf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAlternateTerm(t *testing.T) {
	if got := alternateTerm("Radiohead", "OK Computer (Collector's Edition)"); got != "radiohead ok computer" {
		t.Errorf("unexpected alternate term %q", got)
	}
	if got := stripQualifiers("(What's the Story)"); got != "(What's the Story)" {
		t.Errorf("Expected fully bracketed name to be kept, got %q", got)
	}
}

func TestMatchPolicy(t *testing.T) {
	results := []albumResource{
		candidate("OK Computer OKNOTOK 1997 2017", "Radiohead"),
		candidate("OK Computer", "Radiohead"),
	}

	if m := matchExact(results, "radiohead", "ok computer"); m == nil || m.ID != "OK Computer" {
		t.Errorf("Expected exact match, got %+v", m)
	}
	if m := matchNormalized(results, "Radiohead", "OK Computer (Deluxe)"); m == nil || m.ID != "OK Computer" {
		t.Errorf("Expected normalized match, got %+v", m)
	}
	if m := matchSubstring(results[:1], "Radiohead", "OK Computer"); m == nil {
		t.Error("Expected substring match")
	}
	if m := matchSubstring(results, "Portishead", "Dummy"); m != nil {
		t.Errorf("Expected no match, got %+v", m)
	}
}
