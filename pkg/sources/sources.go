// Package sources implements the image provider clients. Each provider
// exposes the same Search surface; a missing API key disables a provider
// rather than failing the run.
package sources

import (
	"wallscraper/pkg/config"
	"wallscraper/pkg/fetch"
	"wallscraper/pkg/models"
)

// Source is one image provider.
type Source interface {
	// Name identifies the provider in logs and sidecar metadata.
	Name() string
	// Enabled reports whether the provider can be queried at all.
	Enabled() bool
	// Search returns up to count candidates for the search term.
	Search(term string, count int) ([]models.Candidate, error)
}

// All returns every known provider, enabled or not, in query order.
func All(cfg *config.SourcesConfig, client *fetch.Client) []Source {
	return []Source{
		NewUnsplash(cfg.UnsplashAccessKey, client),
		NewPexels(cfg.PexelsAPIKey, client),
		NewPixabay(cfg.PixabayAPIKey, client),
		NewWallhaven(cfg.WallhavenAPIKey, client),
	}
}

// Enabled returns only the providers that can be queried.
func Enabled(cfg *config.SourcesConfig, client *fetch.Client) []Source {
	var out []Source
	for _, s := range All(cfg, client) {
		if s.Enabled() {
			out = append(out, s)
		}
	}
	return out
}
