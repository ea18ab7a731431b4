package catalog

import (
	"strings"
	"unicode"
)

// MatchLevel records which rule selected a search result.
type MatchLevel int

const (
	NoMatch MatchLevel = iota
	MatchSubstring
	MatchAlternate
	MatchExact
)

func (l MatchLevel) String() string {
	switch l {
	case MatchExact:
		return "exact"
	case MatchAlternate:
		return "alternate"
	case MatchSubstring:
		return "substring"
	default:
		return "none"
	}
}

// normalize lowercases s and drops punctuation, collapsing whitespace.
func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			space = true
		}
	}
	return b.String()
}

// searchTerm is the primary free-text query for an album.
func searchTerm(artist, album string) string {
	return strings.TrimSpace(artist + " " + album)
}

// alternateTerm strips bracketed qualifiers such as "(Deluxe Edition)" and
// punctuation from the album name.
func alternateTerm(artist, album string) string {
	return strings.TrimSpace(normalize(artist) + " " + normalize(stripQualifiers(album)))
}

func stripQualifiers(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	if out := strings.TrimSpace(b.String()); out != "" {
		return out
	}
	return s
}

func matchExact(candidates []albumResource, artist, album string) *albumResource {
	for i := range candidates {
		a := candidates[i].Attributes
		if strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(album)) &&
			strings.EqualFold(strings.TrimSpace(a.ArtistName), strings.TrimSpace(artist)) {
			return &candidates[i]
		}
	}
	return nil
}

func matchNormalized(candidates []albumResource, artist, album string) *albumResource {
	wantAlbum := normalize(stripQualifiers(album))
	wantArtist := normalize(artist)
	for i := range candidates {
		a := candidates[i].Attributes
		if normalize(stripQualifiers(a.Name)) == wantAlbum && normalize(a.ArtistName) == wantArtist {
			return &candidates[i]
		}
	}
	return nil
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func matchSubstring(candidates []albumResource, artist, album string) *albumResource {
	wantAlbum := normalize(album)
	wantArtist := normalize(artist)
	for i := range candidates {
		a := candidates[i].Attributes
		if containsEither(normalize(a.Name), wantAlbum) && containsEither(normalize(a.ArtistName), wantArtist) {
			return &candidates[i]
		}
	}
	return nil
}
