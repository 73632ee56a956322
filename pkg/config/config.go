package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the wallpaper scraper.
type Config struct {
	// API keys and headers for the image sources
	Sources SourcesConfig `yaml:"sources" json:"sources"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Quality gate thresholds
	Quality QualityConfig `yaml:"quality" json:"quality"`

	// Collection output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SourcesConfig holds per-source API keys. An empty key disables that source
// rather than failing the run.
type SourcesConfig struct {
	UnsplashAccessKey string `yaml:"unsplash_access_key" json:"unsplash_access_key"`
	PexelsAPIKey      string `yaml:"pexels_api_key" json:"pexels_api_key"`
	PixabayAPIKey     string `yaml:"pixabay_api_key" json:"pixabay_api_key"`
	WallhavenAPIKey   string `yaml:"wallhaven_api_key" json:"wallhaven_api_key"`
	UserAgent         string `yaml:"user_agent" json:"user_agent"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MinDelay          time.Duration `yaml:"min_delay" json:"min_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" json:"max_delay"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// QualityConfig holds the quality gate thresholds. The strict defaults match
// the mobile-wallpaper collection; the relaxed variants of the old scripts
// map to lowering MinWidth/MinHeight per run.
type QualityConfig struct {
	MinWidth       int     `yaml:"min_width" json:"min_width"`
	MinHeight      int     `yaml:"min_height" json:"min_height"`
	MinFileSize    int64   `yaml:"min_file_size" json:"min_file_size"`
	MaxFileSize    int64   `yaml:"max_file_size" json:"max_file_size"`
	MinAspectRatio float64 `yaml:"min_aspect_ratio" json:"min_aspect_ratio"`
	MaxAspectRatio float64 `yaml:"max_aspect_ratio" json:"max_aspect_ratio"`

	// Heuristic scoring on pixel statistics; when disabled only the hard
	// checks above apply.
	EnableScoring    bool    `yaml:"enable_scoring" json:"enable_scoring"`
	AutoApproveScore float64 `yaml:"auto_approve_score" json:"auto_approve_score"`
	AutoRejectScore  float64 `yaml:"auto_reject_score" json:"auto_reject_score"`
}

// OutputConfig holds the collection layout configuration.
type OutputConfig struct {
	CollectionRoot string `yaml:"collection_root" json:"collection_root"`
	BaseURL        string `yaml:"base_url" json:"base_url"`
	LedgerFile     string `yaml:"ledger_file" json:"ledger_file"`
	ThumbWidth     int    `yaml:"thumb_width" json:"thumb_width"`
	ThumbHeight    int    `yaml:"thumb_height" json:"thumb_height"`
	ThumbQuality   int    `yaml:"thumb_quality" json:"thumb_quality"`
}

// DownloadConfig holds download-specific configuration.
type DownloadConfig struct {
	Workers         int           `yaml:"workers" json:"workers"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	TargetCount     int           `yaml:"target_count" json:"target_count"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			MinDelay:          500 * time.Millisecond,
			MaxDelay:          2 * time.Second,
			MaxRetries:        3,
			RetryDelay:        5 * time.Second,
		},
		Quality: QualityConfig{
			MinWidth:         1080,
			MinHeight:        1920,
			MinFileSize:      50 * 1024,
			MaxFileSize:      10 * 1024 * 1024,
			MinAspectRatio:   0.3,
			MaxAspectRatio:   3.0,
			EnableScoring:    false,
			AutoApproveScore: 8.0,
			AutoRejectScore:  4.0,
		},
		Output: OutputConfig{
			CollectionRoot: "./collection",
			BaseURL:        "https://raw.githubusercontent.com/ddh4r4m/wallpaper-collection/main",
			LedgerFile:     "downloaded_hashes.json",
			ThumbWidth:     400,
			ThumbHeight:    600,
			ThumbQuality:   80,
		},
		Download: DownloadConfig{
			Workers:         3,
			DownloadTimeout: 30 * time.Second,
			TargetCount:     10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables. Source API
// keys use the service-native variable names; everything else is prefixed.
func (c *Config) LoadFromEnv() error {
	if key := os.Getenv("UNSPLASH_ACCESS_KEY"); key != "" {
		c.Sources.UnsplashAccessKey = key
	}
	if key := os.Getenv("PEXELS_API_KEY"); key != "" {
		c.Sources.PexelsAPIKey = key
	}
	if key := os.Getenv("PIXABAY_API_KEY"); key != "" {
		c.Sources.PixabayAPIKey = key
	}
	if key := os.Getenv("WALLHAVEN_API_KEY"); key != "" {
		c.Sources.WallhavenAPIKey = key
	}

	if outputDir := os.Getenv("WALLSCRAPER_COLLECTION_ROOT"); outputDir != "" {
		c.Output.CollectionRoot = outputDir
	}
	if workers := os.Getenv("WALLSCRAPER_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Download.Workers = val
		}
	}
	if rpm := os.Getenv("WALLSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("WALLSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the standard locations; finding nothing is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".wallscraper.yaml",
		".wallscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "wallscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "wallscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".wallscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// EnabledSourceCount returns how many sources have a usable configuration.
// Wallhaven works without a key, so it always counts.
func (c *Config) EnabledSourceCount() int {
	count := 1 // wallhaven
	if c.Sources.UnsplashAccessKey != "" {
		count++
	}
	if c.Sources.PexelsAPIKey != "" {
		count++
	}
	if c.Sources.PixabayAPIKey != "" {
		count++
	}
	return count
}

// Validate checks if the configuration is valid. Missing API keys are not
// errors: they disable the source.
func (c *Config) Validate() error {
	var errs []error

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.RateLimit.MinDelay > c.RateLimit.MaxDelay {
		errs = append(errs, errors.New("min delay cannot exceed max delay"))
	}

	if c.Download.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Download.Workers > 12 {
		errs = append(errs, errors.New("workers should not exceed 12"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Quality.MinWidth <= 0 || c.Quality.MinHeight <= 0 {
		errs = append(errs, errors.New("minimum resolution must be positive"))
	}
	if c.Quality.MinFileSize < 0 {
		errs = append(errs, errors.New("minimum file size cannot be negative"))
	}
	if c.Quality.MaxFileSize > 0 && c.Quality.MaxFileSize < c.Quality.MinFileSize {
		errs = append(errs, errors.New("maximum file size cannot be below minimum"))
	}
	if c.Quality.MinAspectRatio <= 0 || c.Quality.MaxAspectRatio < c.Quality.MinAspectRatio {
		errs = append(errs, errors.New("aspect ratio bounds are invalid"))
	}
	if c.Quality.AutoRejectScore > c.Quality.AutoApproveScore {
		errs = append(errs, errors.New("auto-reject score cannot exceed auto-approve score"))
	}

	if c.Output.CollectionRoot == "" {
		errs = append(errs, errors.New("collection root is required"))
	}
	if c.Output.ThumbWidth <= 0 || c.Output.ThumbHeight <= 0 {
		errs = append(errs, errors.New("thumbnail dimensions must be positive"))
	}
	if c.Output.ThumbQuality <= 0 || c.Output.ThumbQuality > 100 {
		errs = append(errs, errors.New("thumbnail quality must be in 1-100"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["collection-root"].(string); ok && outputDir != "" {
		c.Output.CollectionRoot = outputDir
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Download.Workers = workers
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if target, ok := flags["target-count"].(int); ok && target > 0 {
		c.Download.TargetCount = target
	}
	if minWidth, ok := flags["min-width"].(int); ok && minWidth > 0 {
		c.Quality.MinWidth = minWidth
	}
	if minHeight, ok := flags["min-height"].(int); ok && minHeight > 0 {
		c.Quality.MinHeight = minHeight
	}
	if scoring, ok := flags["scoring"].(bool); ok {
		c.Quality.EnableScoring = scoring
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence:
// command line flags > environment variables > .env file > config file >
// defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".wallscraper.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
