package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallscraper/pkg/config"
	"wallscraper/pkg/models"
)

func testBuilder(root string) *Builder {
	b := NewBuilder(&config.OutputConfig{
		CollectionRoot: root,
		BaseURL:        "https://cdn.example.com/collection",
	}, nil)
	b.now = func() time.Time { return time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC) }
	return b
}

func writeRecord(t *testing.T, root, cat, stem string, addedAt time.Time, tags []string) {
	t.Helper()

	imgDir := filepath.Join(root, "wallpapers", cat)
	metaDir := filepath.Join(root, "metadata", cat)
	require.NoError(t, os.MkdirAll(imgDir, 0755))
	require.NoError(t, os.MkdirAll(metaDir, 0755))

	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(filepath.Join(imgDir, stem+".jpg"), buf.Bytes(), 0644))

	record := models.Wallpaper{
		ID:       fmt.Sprintf("%s_%s", cat, stem),
		Category: cat,
		Title:    "Test " + stem,
		Tags:     tags,
		Metadata: models.Metadata{
			Dimensions: models.Dimensions{Width: 40, Height: 60},
			FileSize:   int64(buf.Len()),
			AddedAt:    addedAt,
		},
	}
	data, err := json.MarshalIndent(record, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, stem+".json"), data, 0644))
}

func readEndpoint(t *testing.T, root, name string, out interface{}) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "api", "v1", name))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestBuildEndpoints(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	writeRecord(t, root, "nature", "001", base, []string{"nature", "mountain"})
	writeRecord(t, root, "nature", "002", base.Add(time.Hour), []string{"nature", "forest"})
	writeRecord(t, root, "space", "001", base.Add(2*time.Hour), []string{"space", "galaxy"})

	summary, err := testBuilder(root).Build()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalWallpapers)
	assert.Equal(t, 2, summary.TotalCategories)
	// all, categories, featured, stats, plus one per category.
	assert.Equal(t, 6, summary.FilesGenerated)

	var all struct {
		Meta Meta               `json:"meta"`
		Data []models.Wallpaper `json:"data"`
	}
	readEndpoint(t, root, "all.json", &all)
	assert.Equal(t, "1.0", all.Meta.Version)
	assert.Equal(t, 3, all.Meta.TotalCount)
	assert.Len(t, all.Data, 3)
	assert.Equal(t, "https://cdn.example.com/collection/wallpapers/nature/001.jpg", all.Data[0].URLs.Raw)

	var categories struct {
		Data map[string]CategorySummary `json:"data"`
	}
	readEndpoint(t, root, "categories.json", &categories)
	assert.Len(t, categories.Data, 2)
	assert.Equal(t, 2, categories.Data["nature"].Count)
	assert.Equal(t, "Nature", categories.Data["nature"].Name)
	assert.NotEmpty(t, categories.Data["space"].Description)

	var nature struct {
		Meta Meta               `json:"meta"`
		Data []models.Wallpaper `json:"data"`
	}
	readEndpoint(t, root, "nature.json", &nature)
	assert.Equal(t, "nature", nature.Meta.Category)
	assert.Len(t, nature.Data, 2)
}

func TestIndexesHandDroppedCategories(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	writeRecord(t, root, "nature", "001", base, []string{"nature"})
	// A directory outside the scraper's own label set, dropped in by hand.
	writeRecord(t, root, "sunsets", "001", base, []string{"sunsets"})

	summary, err := testBuilder(root).Build()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalWallpapers)
	assert.Equal(t, 2, summary.TotalCategories)

	var all struct {
		Data []models.Wallpaper `json:"data"`
	}
	readEndpoint(t, root, "all.json", &all)
	ids := make([]string, 0, len(all.Data))
	for _, wp := range all.Data {
		ids = append(ids, wp.ID)
	}
	assert.Contains(t, ids, "sunsets_001")

	var categories struct {
		Data map[string]CategorySummary `json:"data"`
	}
	readEndpoint(t, root, "categories.json", &categories)
	require.Contains(t, categories.Data, "sunsets")
	assert.Equal(t, 1, categories.Data["sunsets"].Count)
	assert.Equal(t, "Sunsets wallpapers", categories.Data["sunsets"].Description)

	var sunsets struct {
		Meta Meta               `json:"meta"`
		Data []models.Wallpaper `json:"data"`
	}
	readEndpoint(t, root, "sunsets.json", &sunsets)
	assert.Len(t, sunsets.Data, 1)
}

func TestFeaturedIsNewestFirst(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 25; i++ {
		writeRecord(t, root, "abstract", fmt.Sprintf("%03d", i), base.Add(time.Duration(i)*time.Hour), []string{"abstract"})
	}

	_, err := testBuilder(root).Build()
	require.NoError(t, err)

	var featured struct {
		Meta Meta               `json:"meta"`
		Data []models.Wallpaper `json:"data"`
	}
	readEndpoint(t, root, "featured.json", &featured)
	require.Len(t, featured.Data, 20)
	assert.Equal(t, "abstract_025", featured.Data[0].ID)
	assert.Equal(t, "abstract_006", featured.Data[19].ID)
}

func TestStatsEndpoint(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	writeRecord(t, root, "dark", "001", base, []string{"dark", "noir"})
	writeRecord(t, root, "dark", "002", base, []string{"dark"})

	_, err := testBuilder(root).Build()
	require.NoError(t, err)

	var stats struct {
		Data struct {
			TotalWallpapers int                `json:"total_wallpapers"`
			TotalCategories int                `json:"total_categories"`
			PopularTags     [][2]interface{}   `json:"popular_tags"`
			RecentAdditions []models.Wallpaper `json:"recent_additions"`
			FileStats       FileStats          `json:"file_stats"`
		} `json:"data"`
	}
	readEndpoint(t, root, "stats.json", &stats)

	assert.Equal(t, 2, stats.Data.TotalWallpapers)
	assert.Equal(t, 1, stats.Data.TotalCategories)
	require.NotEmpty(t, stats.Data.PopularTags)
	assert.Equal(t, "dark", stats.Data.PopularTags[0][0])
	assert.Equal(t, float64(2), stats.Data.PopularTags[0][1])
	assert.Equal(t, 2, stats.Data.FileStats.TotalFiles)
	require.NotNil(t, stats.Data.FileStats.AverageDimensions)
	assert.Equal(t, 40, stats.Data.FileStats.AverageDimensions.Width)
}

func TestSynthesizesEntryForBareImage(t *testing.T) {
	root := t.TempDir()
	imgDir := filepath.Join(root, "wallpapers", "minimal")
	require.NoError(t, os.MkdirAll(imgDir, 0755))

	img := image.NewRGBA(image.Rect(0, 0, 30, 50))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	require.NoError(t, os.WriteFile(filepath.Join(imgDir, "007.jpg"), buf.Bytes(), 0644))

	_, err := testBuilder(root).Build()
	require.NoError(t, err)

	var all struct {
		Data []models.Wallpaper `json:"data"`
	}
	readEndpoint(t, root, "all.json", &all)
	require.Len(t, all.Data, 1)
	assert.Equal(t, "minimal_007", all.Data[0].ID)
	assert.Equal(t, []string{"minimal"}, all.Data[0].Tags)
	assert.Equal(t, 30, all.Data[0].Metadata.Dimensions.Width)
	assert.NotZero(t, all.Data[0].Metadata.FileSize)
}

func TestBuildIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, root, "neon", "001", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), []string{"neon"})

	b := testBuilder(root)
	_, err := b.Build()
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(root, "api", "v1", "all.json"))
	require.NoError(t, err)

	_, err = b.Build()
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(root, "api", "v1", "all.json"))
	require.NoError(t, err)

	assert.Equal(t, first, second, "rebuild with a fixed clock must be byte-identical")
}
