package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		term string
		url  string
		want string
	}{
		{"basketball wallpaper", "", "sports"},
		{"4k ultra hd", "", "4k"},
		{"galaxy nebula", "", "space"},
		{"anime girl", "", "anime"},
		{"mountain landscape", "", "nature"},
		{"neon lights tokyo", "", "neon"},
		{"cyberpunk city", "", "cyberpunk"},
		{"minimal desk setup", "", "minimal"},
		{"", "https://example.com/photos/sunset-beach", "nature"},
		{"", "https://example.com/photos/vintage-camera", "vintage"},
		{"qwxzy nonsense", "", Fallback},
		{"", "", Fallback},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.term, tt.url), "term=%q url=%q", tt.term, tt.url)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	// "dark forest" matches both nature and dark; rule order decides and
	// must not vary between calls.
	first := Classify("dark forest", "")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Classify("dark forest", ""))
	}
	assert.Equal(t, "nature", first)
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "space", Classify("GALAXY Wallpaper", ""))
}

func TestLabels(t *testing.T) {
	labels := Labels()
	assert.Len(t, labels, 22)
	assert.Equal(t, Fallback, labels[len(labels)-1])

	seen := make(map[string]bool)
	for _, l := range labels {
		assert.False(t, seen[l], "duplicate label %q", l)
		seen[l] = true
		assert.True(t, IsValid(l))
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("nature"))
	assert.True(t, IsValid(Fallback))
	assert.False(t, IsValid("not-a-category"))
}
