// Package index regenerates the static JSON API from the collection on
// disk. The build is a read-only scan of the collection followed by a
// full overwrite of api/v1, so it is safe to re-run at any time.
package index

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"wallscraper/pkg/config"
	"wallscraper/pkg/logger"
	"wallscraper/pkg/models"
)

const apiVersion = "1.0"

var categoryDescriptions = map[string]string{
	"4k":           "Ultra high definition wallpapers at 4K resolution and above",
	"abstract":     "Abstract patterns, geometric designs, and artistic visualizations",
	"nature":       "Landscapes, wildlife, forests, mountains, and natural scenes",
	"space":        "Galaxies, nebulae, planets, stars, and cosmic photography",
	"minimal":      "Clean, simple designs with minimalist aesthetics",
	"cyberpunk":    "Futuristic cityscapes, neon lights, and sci-fi themes",
	"gaming":       "Video game characters, scenes, and gaming-inspired artwork",
	"anime":        "Anime characters, manga art, and Japanese animation styles",
	"movies":       "Film posters, movie scenes, and cinematic artwork",
	"music":        "Musical instruments, concert photography, and audio visualizations",
	"cars":         "Automotive photography, sports cars, and vehicle designs",
	"sports":       "Athletic photography, sports action, and fitness themes",
	"technology":   "Gadgets, circuits, futuristic tech, and digital interfaces",
	"architecture": "Buildings, bridges, modern structures, and urban photography",
	"art":          "Digital art, paintings, illustrations, and creative designs",
	"dark":         "Dark themes, gothic aesthetics, and mysterious atmospheres",
	"neon":         "Neon lighting, synthwave aesthetics, and electric themes",
	"pastel":       "Soft colors, gentle aesthetics, and dream-like themes",
	"vintage":      "Retro designs, nostalgic themes, and classic aesthetics",
	"gradient":     "Color transitions, smooth blends, and abstract flows",
	"seasonal":     "Holiday themes, seasonal changes, and weather phenomena",
}

// Meta is the envelope header every endpoint carries.
type Meta struct {
	Version         string `json:"version"`
	GeneratedAt     string `json:"generated_at"`
	TotalCount      int    `json:"total_count,omitempty"`
	Categories      int    `json:"categories,omitempty"`
	Category        string `json:"category,omitempty"`
	TotalCategories int    `json:"total_categories,omitempty"`
}

// CategorySummary describes one category in categories.json.
type CategorySummary struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// TagCount marshals as a ["tag", count] pair.
type TagCount struct {
	Tag   string
	Count int
}

func (tc TagCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{tc.Tag, tc.Count})
}

// FileStats aggregates size and dimension statistics.
type FileStats struct {
	TotalSizeMB       float64            `json:"total_size_mb"`
	AverageFileSizeKB float64            `json:"average_file_size_kb"`
	AverageDimensions *models.Dimensions `json:"average_dimensions"`
	TotalFiles        int                `json:"total_files"`
}

// Summary reports what a build produced.
type Summary struct {
	TotalWallpapers int
	TotalCategories int
	FilesGenerated  int
}

// Builder scans the collection tree and writes the api/v1 endpoints.
type Builder struct {
	root    string
	baseURL string
	logger  logger.Logger
	now     func() time.Time
}

// NewBuilder creates a builder for the collection at cfg.CollectionRoot.
func NewBuilder(cfg *config.OutputConfig, log logger.Logger) *Builder {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Builder{
		root:    cfg.CollectionRoot,
		baseURL: cfg.BaseURL,
		logger:  log,
		now:     time.Now,
	}
}

// Build regenerates every endpoint and returns a summary.
func (b *Builder) Build() (*Summary, error) {
	wallpapers, err := b.scan()
	if err != nil {
		return nil, err
	}

	apiDir := filepath.Join(b.root, "api", "v1")
	if err := os.MkdirAll(apiDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create api directory: %w", err)
	}

	timestamp := b.now().UTC().Format(time.RFC3339)

	byCategory := make(map[string][]models.Wallpaper)
	for _, w := range wallpapers {
		byCategory[w.Category] = append(byCategory[w.Category], w)
	}

	summaries := make(map[string]CategorySummary, len(byCategory))
	for cat, ws := range byCategory {
		desc, ok := categoryDescriptions[cat]
		if !ok {
			desc = titleCase(cat) + " wallpapers"
		}
		summaries[cat] = CategorySummary{
			Name:        titleCase(cat),
			Count:       len(ws),
			Description: desc,
		}
	}

	files := 0
	write := func(name string, payload interface{}) error {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		if err := writeAtomic(filepath.Join(apiDir, name), data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		files++
		return nil
	}

	if err := write("all.json", map[string]interface{}{
		"meta": Meta{
			Version:     apiVersion,
			GeneratedAt: timestamp,
			TotalCount:  len(wallpapers),
			Categories:  len(byCategory),
		},
		"data": wallpapers,
	}); err != nil {
		return nil, err
	}

	if err := write("categories.json", map[string]interface{}{
		"meta": Meta{
			Version:         apiVersion,
			GeneratedAt:     timestamp,
			TotalCategories: len(summaries),
		},
		"data": summaries,
	}); err != nil {
		return nil, err
	}

	for cat, ws := range byCategory {
		if err := write(cat+".json", map[string]interface{}{
			"meta": Meta{
				Version:     apiVersion,
				GeneratedAt: timestamp,
				Category:    cat,
				TotalCount:  len(ws),
			},
			"data": ws,
		}); err != nil {
			return nil, err
		}
	}

	featured := newestFirst(wallpapers)
	if len(featured) > 20 {
		featured = featured[:20]
	}
	if err := write("featured.json", map[string]interface{}{
		"meta": Meta{
			Version:     apiVersion,
			GeneratedAt: timestamp,
			TotalCount:  len(featured),
		},
		"data": featured,
	}); err != nil {
		return nil, err
	}

	recent := featured
	if len(recent) > 10 {
		recent = recent[:10]
	}
	if err := write("stats.json", map[string]interface{}{
		"meta": Meta{Version: apiVersion, GeneratedAt: timestamp},
		"data": map[string]interface{}{
			"total_wallpapers": len(wallpapers),
			"total_categories": len(summaries),
			"categories":       summaries,
			"recent_additions": recent,
			"popular_tags":     popularTags(wallpapers, 20),
			"file_stats":       fileStats(wallpapers),
		},
	}); err != nil {
		return nil, err
	}

	b.logger.InfoWithFields("api index built", map[string]interface{}{
		"wallpapers": len(wallpapers),
		"categories": len(summaries),
		"files":      files,
	})

	return &Summary{
		TotalWallpapers: len(wallpapers),
		TotalCategories: len(summaries),
		FilesGenerated:  files,
	}, nil
}

// scan walks wallpapers/{category} and pairs images with their sidecars.
// Images without a readable sidecar get a synthesized minimal entry so
// hand-dropped files still show up in the API.
func (b *Builder) scan() ([]models.Wallpaper, error) {
	wallpapersDir := filepath.Join(b.root, "wallpapers")

	var out []models.Wallpaper
	// Enumerate the directories actually present rather than the known
	// label set, so hand-dropped categories still reach the API.
	cats, err := os.ReadDir(wallpapersDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read wallpapers directory: %w", err)
	}

	for _, catEntry := range cats {
		if !catEntry.IsDir() {
			continue
		}
		cat := catEntry.Name()
		dir := filepath.Join(wallpapersDir, cat)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read category directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !isImageFile(entry.Name()) {
				continue
			}
			name := entry.Name()
			stem := strings.TrimSuffix(name, filepath.Ext(name))

			record, err := b.loadSidecar(cat, stem, name)
			if err != nil {
				b.logger.WarnWithFields("skipping unreadable sidecar", map[string]interface{}{
					"category": cat,
					"image":    name,
					"error":    err.Error(),
				})
				record = nil
			}
			if record == nil {
				record = b.synthesize(cat, stem, filepath.Join(dir, name))
			}
			out = append(out, *record)
		}
	}
	return out, nil
}

func (b *Builder) loadSidecar(cat, stem, imageName string) (*models.Wallpaper, error) {
	path := filepath.Join(b.root, "metadata", cat, stem+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record models.Wallpaper
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	if record.ID == "" {
		record.ID = fmt.Sprintf("%s_%s", cat, stem)
	}
	if record.Category == "" {
		record.Category = cat
	}

	// URLs are always recomputed so a base URL change propagates.
	record.URLs = models.URLs{
		Raw:   fmt.Sprintf("%s/wallpapers/%s/%s", b.baseURL, cat, imageName),
		Thumb: fmt.Sprintf("%s/thumbnails/%s/%s.jpg", b.baseURL, cat, stem),
	}
	return &record, nil
}

func (b *Builder) synthesize(cat, stem, imagePath string) *models.Wallpaper {
	record := &models.Wallpaper{
		ID:       fmt.Sprintf("%s_%s", cat, stem),
		Category: cat,
		Title:    fmt.Sprintf("%s Wallpaper %s", titleCase(cat), stem),
		Tags:     []string{cat},
		URLs: models.URLs{
			Raw:   fmt.Sprintf("%s/wallpapers/%s/%s", b.baseURL, cat, filepath.Base(imagePath)),
			Thumb: fmt.Sprintf("%s/thumbnails/%s/%s.jpg", b.baseURL, cat, stem),
		},
	}

	if info, err := os.Stat(imagePath); err == nil {
		record.Metadata.FileSize = info.Size()
		record.Metadata.AddedAt = info.ModTime().UTC()
	}
	if f, err := os.Open(imagePath); err == nil {
		if cfg, _, err := image.DecodeConfig(f); err == nil {
			record.Metadata.Dimensions = models.Dimensions{Width: cfg.Width, Height: cfg.Height}
		}
		f.Close()
	}
	return record
}

func newestFirst(wallpapers []models.Wallpaper) []models.Wallpaper {
	sorted := make([]models.Wallpaper, len(wallpapers))
	copy(sorted, wallpapers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Metadata.AddedAt.Equal(sorted[j].Metadata.AddedAt) {
			return sorted[i].Metadata.AddedAt.After(sorted[j].Metadata.AddedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func popularTags(wallpapers []models.Wallpaper, limit int) []TagCount {
	counts := make(map[string]int)
	for _, w := range wallpapers {
		for _, tag := range w.Tags {
			counts[tag]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

func fileStats(wallpapers []models.Wallpaper) FileStats {
	stats := FileStats{TotalFiles: len(wallpapers)}
	if len(wallpapers) == 0 {
		return stats
	}

	var totalSize int64
	var sumW, sumH, withDims int
	for _, w := range wallpapers {
		totalSize += w.Metadata.FileSize
		if w.Metadata.Dimensions.Width > 0 && w.Metadata.Dimensions.Height > 0 {
			sumW += w.Metadata.Dimensions.Width
			sumH += w.Metadata.Dimensions.Height
			withDims++
		}
	}

	stats.TotalSizeMB = round2(float64(totalSize) / (1024 * 1024))
	stats.AverageFileSizeKB = round2(float64(totalSize) / float64(len(wallpapers)) / 1024)
	if withDims > 0 {
		stats.AverageDimensions = &models.Dimensions{
			Width:  sumW / withDims,
			Height: sumH / withDims,
		}
	}
	return stats
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return true
	}
	return false
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
