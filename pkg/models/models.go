package models

import "time"

// Candidate is a fetched-but-not-yet-accepted image under evaluation. It is
// transient: it exists for a single fetch-assess cycle and is discarded on
// rejection.
type Candidate struct {
	URL          string
	RemoteID     string
	Title        string
	Photographer string
	Source       string
	SearchTerm   string
	Tags         []string
	Width        int
	Height       int
}

// Wallpaper is the JSON sidecar record for one accepted image. Once written
// it is treated as immutable; updates are additive under new sequence
// numbers.
type Wallpaper struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	URLs     URLs     `json:"urls"`
	Metadata Metadata `json:"metadata"`
}

// URLs holds the published raw and thumbnail locations for a wallpaper.
type URLs struct {
	Raw   string `json:"raw"`
	Thumb string `json:"thumb"`
}

// Metadata carries the per-image facts recorded at acceptance time.
type Metadata struct {
	Dimensions   Dimensions `json:"dimensions"`
	FileSize     int64      `json:"file_size"`
	AddedAt      time.Time  `json:"added_at"`
	Photographer string     `json:"photographer,omitempty"`
	Source       string     `json:"source,omitempty"`
	SearchTerm   string     `json:"search_term,omitempty"`
}

// Dimensions is a decoded image size in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
