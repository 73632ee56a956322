package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallscraper/pkg/config"
	"wallscraper/pkg/fingerprint"
	"wallscraper/pkg/models"
	"wallscraper/pkg/quality"
)

func testOutputConfig(root string) *config.OutputConfig {
	return &config.OutputConfig{
		CollectionRoot: root,
		BaseURL:        "https://cdn.example.com/collection",
		ThumbWidth:     400,
		ThumbHeight:    600,
		ThumbQuality:   80,
	}
}

func testImage(w, h int) (image.Image, []byte) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return img, buf.Bytes()
}

func TestWriteProducesAllThreeFiles(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(testOutputConfig(root), nil)
	w.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	img, data := testImage(1080, 1920)
	cand := models.Candidate{
		URL:          "https://example.com/raw.jpg",
		Title:        "Misty Peak",
		Photographer: "Jane Doe",
		Source:       "unsplash",
		SearchTerm:   "mountain landscape",
		Tags:         []string{"mountain", "mist"},
	}

	record, err := w.Write(cand, "nature", img, data, "jpeg")
	require.NoError(t, err)

	assert.Equal(t, "nature_001", record.ID)
	assert.Equal(t, "nature", record.Category)
	assert.Equal(t, "Misty Peak", record.Title)
	assert.Equal(t, []string{"nature", "mountain", "mist"}, record.Tags)
	assert.Equal(t, "https://cdn.example.com/collection/wallpapers/nature/001.jpg", record.URLs.Raw)
	assert.Equal(t, "https://cdn.example.com/collection/thumbnails/nature/001.jpg", record.URLs.Thumb)
	assert.Equal(t, 1080, record.Metadata.Dimensions.Width)
	assert.Equal(t, int64(len(data)), record.Metadata.FileSize)

	saved, err := os.ReadFile(filepath.Join(root, "wallpapers", "nature", "001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, data, saved)

	thumbData, err := os.ReadFile(filepath.Join(root, "thumbnails", "nature", "001.jpg"))
	require.NoError(t, err)
	thumb, err := jpeg.Decode(bytes.NewReader(thumbData))
	require.NoError(t, err)
	assert.LessOrEqual(t, thumb.Bounds().Dx(), 400)
	assert.LessOrEqual(t, thumb.Bounds().Dy(), 600)

	sidecarData, err := os.ReadFile(filepath.Join(root, "metadata", "nature", "001.json"))
	require.NoError(t, err)
	var sidecar models.Wallpaper
	require.NoError(t, json.Unmarshal(sidecarData, &sidecar))
	assert.Equal(t, record.ID, sidecar.ID)
	assert.Equal(t, "Jane Doe", sidecar.Metadata.Photographer)
}

func TestSequenceNumbersIncrement(t *testing.T) {
	w := NewWriter(testOutputConfig(t.TempDir()), nil)
	img, data := testImage(120, 200)

	for i := 1; i <= 3; i++ {
		record, err := w.Write(models.Candidate{}, "abstract", img, data, "jpeg")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("abstract_%03d", i), record.ID)
	}
}

func TestSequencerSeedsFromExistingFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "wallpapers", "space")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "007.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "012.png"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	w := NewWriter(testOutputConfig(root), nil)
	img, data := testImage(120, 200)

	record, err := w.Write(models.Candidate{}, "space", img, data, "jpeg")
	require.NoError(t, err)
	assert.Equal(t, "space_013", record.ID)
}

func TestConcurrentWritersNeverCollide(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(testOutputConfig(root), nil)
	img, data := testImage(120, 200)

	const writers = 12
	ids := make(chan string, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := w.Write(models.Candidate{}, "gaming", img, data, "jpeg")
			if err != nil {
				t.Error(err)
				return
			}
			ids <- record.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, writers)

	entries, err := os.ReadDir(filepath.Join(root, "wallpapers", "gaming"))
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}

func TestWriteReviewStoresImageAndNote(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(testOutputConfig(root), nil)
	w.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	_, data := testImage(900, 1400)
	cand := models.Candidate{
		URL:        "https://example.com/maybe.jpg",
		Source:     "pexels",
		SearchTerm: "neon lights wallpaper",
	}
	assessment := quality.Result{
		Decision: quality.DecisionManualReview,
		Reason:   "score in review band",
		Overall:  0.58,
	}

	imagePath, err := w.WriteReview(cand, "neon", data, "jpeg", assessment)
	require.NoError(t, err)

	name := fingerprint.SHA256(data)[:12]
	assert.Equal(t, filepath.Join(root, "review", "neon", name+".jpg"), imagePath)

	saved, err := os.ReadFile(imagePath)
	require.NoError(t, err)
	assert.Equal(t, data, saved)

	noteData, err := os.ReadFile(filepath.Join(root, "review", "neon", name+".json"))
	require.NoError(t, err)
	var note reviewAssessment
	require.NoError(t, json.Unmarshal(noteData, &note))
	assert.Equal(t, "https://example.com/maybe.jpg", note.URL)
	assert.Equal(t, "neon", note.Category)
	assert.Equal(t, "score in review band", note.Reason)
	assert.Equal(t, 0.58, note.Overall)

	// Same content again lands on the same names instead of piling up.
	_, err = w.WriteReview(cand, "neon", data, "jpeg", assessment)
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(root, "review", "neon"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestExtensionFollowsFormat(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(testOutputConfig(root), nil)
	img, data := testImage(120, 200)

	record, err := w.Write(models.Candidate{}, "minimal", img, data, "png")
	require.NoError(t, err)
	assert.Contains(t, record.URLs.Raw, "/001.png")

	_, err = os.Stat(filepath.Join(root, "wallpapers", "minimal", "001.png"))
	require.NoError(t, err)
}
