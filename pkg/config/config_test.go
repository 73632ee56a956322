package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Quality.MinWidth != 1080 || cfg.Quality.MinHeight != 1920 {
		t.Errorf("unexpected default minimum resolution: %dx%d", cfg.Quality.MinWidth, cfg.Quality.MinHeight)
	}
	if cfg.Download.Workers != 3 {
		t.Errorf("expected 3 default workers, got %d", cfg.Download.Workers)
	}
	if cfg.Output.ThumbWidth != 400 || cfg.Output.ThumbHeight != 600 {
		t.Errorf("unexpected default thumbnail size: %dx%d", cfg.Output.ThumbWidth, cfg.Output.ThumbHeight)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("UNSPLASH_ACCESS_KEY", "unsplash-key")
	t.Setenv("PEXELS_API_KEY", "pexels-key")
	t.Setenv("WALLSCRAPER_WORKERS", "5")
	t.Setenv("WALLSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	if cfg.Sources.UnsplashAccessKey != "unsplash-key" {
		t.Errorf("unsplash key not loaded from env")
	}
	if cfg.Sources.PexelsAPIKey != "pexels-key" {
		t.Errorf("pexels key not loaded from env")
	}
	if cfg.Download.Workers != 5 {
		t.Errorf("expected 5 workers, got %d", cfg.Download.Workers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug log level, got %s", cfg.Logging.Level)
	}
}

func TestMissingAPIKeysAreNotErrors(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("config without API keys must validate: %v", err)
	}
	// Wallhaven needs no key, so at least one source stays enabled.
	if got := cfg.EnabledSourceCount(); got != 1 {
		t.Errorf("expected 1 enabled source without keys, got %d", got)
	}

	cfg.Sources.PixabayAPIKey = "px"
	if got := cfg.EnabledSourceCount(); got != 2 {
		t.Errorf("expected 2 enabled sources, got %d", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
quality:
  min_width: 800
  min_height: 600
  enable_scoring: true
download:
  workers: 6
  download_timeout: 10s
output:
  collection_root: /tmp/walls
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Quality.MinWidth != 800 || cfg.Quality.MinHeight != 600 {
		t.Errorf("relaxed resolution not applied: %dx%d", cfg.Quality.MinWidth, cfg.Quality.MinHeight)
	}
	if !cfg.Quality.EnableScoring {
		t.Error("scoring should be enabled")
	}
	if cfg.Download.Workers != 6 {
		t.Errorf("expected 6 workers, got %d", cfg.Download.Workers)
	}
	if cfg.Download.DownloadTimeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.Download.DownloadTimeout)
	}
	if cfg.Output.CollectionRoot != "/tmp/walls" {
		t.Errorf("collection root not applied: %s", cfg.Output.CollectionRoot)
	}
	// Untouched fields keep their defaults.
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("default rate limit lost: %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Download.Workers = 0 }},
		{"too many workers", func(c *Config) { c.Download.Workers = 50 }},
		{"zero rpm", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }},
		{"empty collection root", func(c *Config) { c.Output.CollectionRoot = "" }},
		{"inverted aspect bounds", func(c *Config) { c.Quality.MinAspectRatio = 5; c.Quality.MaxAspectRatio = 1 }},
		{"inverted score thresholds", func(c *Config) { c.Quality.AutoRejectScore = 9; c.Quality.AutoApproveScore = 4 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad thumb quality", func(c *Config) { c.Output.ThumbQuality = 150 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"collection-root": "/data/collection",
		"workers":         8,
		"min-width":       800,
		"scoring":         true,
	})

	if cfg.Output.CollectionRoot != "/data/collection" {
		t.Errorf("collection root flag not merged")
	}
	if cfg.Download.Workers != 8 {
		t.Errorf("workers flag not merged")
	}
	if cfg.Quality.MinWidth != 800 {
		t.Errorf("min-width flag not merged")
	}
	if !cfg.Quality.EnableScoring {
		t.Errorf("scoring flag not merged")
	}
}
