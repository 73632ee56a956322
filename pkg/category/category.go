// Package category maps free-text search terms and source URLs to the
// fixed set of collection category labels.
package category

import "strings"

// Fallback is returned when no keyword rule matches.
const Fallback = "misc"

// rule pairs a category label with the keywords that select it.
type rule struct {
	label    string
	keywords []string
}

// rules are evaluated in order and the first match wins, so the more
// specific labels come before the broad catch-alls. Editing the order
// changes classification for terms that match several rules.
var rules = []rule{
	{"4k", []string{"4k", "uhd", "ultra hd", "2160p"}},
	{"space", []string{"space", "galaxy", "nebula", "stars", "universe", "cosmos", "astronomy", "planet"}},
	{"anime", []string{"anime", "manga", "otaku"}},
	{"cyberpunk", []string{"cyberpunk", "futuristic", "sci-fi", "dystopian", "cyber"}},
	{"neon", []string{"neon", "synthwave", "fluorescent", "glowing"}},
	{"gaming", []string{"gaming", "esports", "video game", "console", "controller", "gamer"}},
	{"cars", []string{"car", "automotive", "vehicle", "supercar", "racing", "motor"}},
	{"sports", []string{"sport", "fitness", "athletic", "basketball", "football", "soccer", "tennis", "exercise"}},
	{"music", []string{"music", "instrument", "concert", "melody", "rhythm", "band", "acoustic"}},
	{"movies", []string{"movie", "cinema", "film", "theater", "cinematic"}},
	{"technology", []string{"technology", "tech", "computer", "circuit", "electronic", "coding", "data"}},
	{"architecture", []string{"architecture", "building", "skyscraper", "urban", "city", "bridge"}},
	{"nature", []string{"nature", "landscape", "mountain", "forest", "ocean", "lake", "river", "tree", "flower", "sunset", "sunrise", "wildlife", "scenic"}},
	{"dark", []string{"dark", "moody", "black", "shadow", "gothic", "noir", "night"}},
	{"pastel", []string{"pastel", "kawaii", "dreamy", "soft", "pale"}},
	{"vintage", []string{"vintage", "retro", "antique", "nostalgic", "classic"}},
	{"seasonal", []string{"seasonal", "holiday", "christmas", "halloween", "spring", "summer", "autumn", "winter", "festive"}},
	{"gradient", []string{"gradient", "ombre", "spectrum", "blend"}},
	{"minimal", []string{"minimal", "clean", "simple", "monochrome", "zen"}},
	{"art", []string{"art", "painting", "illustration", "artistic", "creative"}},
	{"abstract", []string{"abstract", "geometric", "pattern", "texture"}},
}

// Classify returns the category for a search term and source URL by
// substring matching, first rule wins. Unmatched input falls back to
// "misc". Pure function.
func Classify(searchTerm, sourceURL string) string {
	haystack := strings.ToLower(searchTerm + " " + sourceURL)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(haystack, kw) {
				return r.label
			}
		}
	}
	return Fallback
}

// Labels returns every known category label in rule order, with the
// fallback label last.
func Labels() []string {
	out := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.label)
	}
	return append(out, Fallback)
}

// IsValid reports whether label is a known category.
func IsValid(label string) bool {
	if label == Fallback {
		return true
	}
	for _, r := range rules {
		if r.label == label {
			return true
		}
	}
	return false
}
