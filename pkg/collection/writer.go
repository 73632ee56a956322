// Package collection writes accepted wallpapers into the on-disk
// collection layout: the full-size image, a JPEG thumbnail, and a JSON
// metadata sidecar, all named by a per-category sequence number.
package collection

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"wallscraper/pkg/config"
	"wallscraper/pkg/fingerprint"
	"wallscraper/pkg/logger"
	"wallscraper/pkg/models"
	"wallscraper/pkg/quality"
)

// Writer persists accepted images into the collection tree. Safe for
// concurrent use; sequence numbers are reserved before any file is
// written so two workers can never collide on a name.
type Writer struct {
	root    string
	baseURL string
	thumbW  int
	thumbH  int
	thumbQ  int
	seq     *sequencer
	logger  logger.Logger
	now     func() time.Time
}

// NewWriter creates a writer rooted at cfg.CollectionRoot.
func NewWriter(cfg *config.OutputConfig, log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{
		root:    cfg.CollectionRoot,
		baseURL: cfg.BaseURL,
		thumbW:  cfg.ThumbWidth,
		thumbH:  cfg.ThumbHeight,
		thumbQ:  cfg.ThumbQuality,
		seq:     newSequencer(filepath.Join(cfg.CollectionRoot, "wallpapers")),
		logger:  log,
		now:     time.Now,
	}
}

// Write stores the image, its thumbnail, and the metadata sidecar, and
// returns the immutable wallpaper record. data is the raw downloaded
// bytes; img its decoded form; format the decoded image format.
func (w *Writer) Write(cand models.Candidate, category string, img image.Image, data []byte, format string) (*models.Wallpaper, error) {
	n, err := w.seq.next(category)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate sequence number: %w", err)
	}

	name := fmt.Sprintf("%03d", n)
	ext := extensionFor(format)
	imagePath := filepath.Join(w.root, "wallpapers", category, name+ext)
	thumbPath := filepath.Join(w.root, "thumbnails", category, name+".jpg")
	sidecarPath := filepath.Join(w.root, "metadata", category, name+".json")

	thumb, err := renderThumbnail(img, w.thumbW, w.thumbH, w.thumbQ)
	if err != nil {
		return nil, fmt.Errorf("failed to render thumbnail: %w", err)
	}

	bounds := img.Bounds()
	record := &models.Wallpaper{
		ID:       fmt.Sprintf("%s_%s", category, name),
		Category: category,
		Title:    titleFor(cand, category, n),
		Tags:     tagsFor(cand, category),
		URLs: models.URLs{
			Raw:   fmt.Sprintf("%s/wallpapers/%s/%s%s", w.baseURL, category, name, ext),
			Thumb: fmt.Sprintf("%s/thumbnails/%s/%s.jpg", w.baseURL, category, name),
		},
		Metadata: models.Metadata{
			Dimensions:   models.Dimensions{Width: bounds.Dx(), Height: bounds.Dy()},
			FileSize:     int64(len(data)),
			AddedAt:      w.now().UTC(),
			Photographer: cand.Photographer,
			Source:       cand.Source,
			SearchTerm:   cand.SearchTerm,
		},
	}

	sidecar, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sidecar: %w", err)
	}

	if err := writeFileAtomic(imagePath, data); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := writeFileAtomic(thumbPath, thumb); err != nil {
		return nil, fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := writeFileAtomic(sidecarPath, sidecar); err != nil {
		return nil, fmt.Errorf("failed to write sidecar: %w", err)
	}

	w.logger.InfoWithFields("wallpaper saved", map[string]interface{}{
		"id":       record.ID,
		"category": category,
		"size":     len(data),
		"source":   cand.Source,
	})
	return record, nil
}

// reviewAssessment is the sidecar stored next to an image held for manual
// review, carrying enough context to promote or discard it by hand.
type reviewAssessment struct {
	URL        string          `json:"url"`
	Source     string          `json:"source,omitempty"`
	SearchTerm string          `json:"search_term,omitempty"`
	Category   string          `json:"category"`
	Reason     string          `json:"reason"`
	Overall    float64         `json:"overall_score"`
	Scores     *quality.Scores `json:"scores,omitempty"`
	HeldAt     time.Time       `json:"held_at"`
}

// WriteReview parks an image the quality gate could not decide on under
// review/{category}/, next to a JSON file with the assessment. Files are
// named by content hash so concurrent workers and repeated runs never
// collide, and returns the image path.
func (w *Writer) WriteReview(cand models.Candidate, category string, data []byte, format string, assessment quality.Result) (string, error) {
	name := fingerprint.SHA256(data)[:12]
	imagePath := filepath.Join(w.root, "review", category, name+extensionFor(format))
	notePath := filepath.Join(w.root, "review", category, name+".json")

	note, err := json.MarshalIndent(reviewAssessment{
		URL:        cand.URL,
		Source:     cand.Source,
		SearchTerm: cand.SearchTerm,
		Category:   category,
		Reason:     assessment.Reason,
		Overall:    assessment.Overall,
		Scores:     assessment.Scores,
		HeldAt:     w.now().UTC(),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal review note: %w", err)
	}

	if err := writeFileAtomic(imagePath, data); err != nil {
		return "", fmt.Errorf("failed to write review image: %w", err)
	}
	if err := writeFileAtomic(notePath, note); err != nil {
		return "", fmt.Errorf("failed to write review note: %w", err)
	}

	w.logger.InfoWithFields("candidate held for review", map[string]interface{}{
		"category": category,
		"path":     imagePath,
		"reason":   assessment.Reason,
	})
	return imagePath, nil
}

func titleFor(cand models.Candidate, category string, n int) string {
	if cand.Title != "" {
		return cand.Title
	}
	return fmt.Sprintf("%s wallpaper %03d", category, n)
}

func tagsFor(cand models.Candidate, category string) []string {
	tags := []string{category}
	seen := map[string]bool{category: true}
	for _, t := range cand.Tags {
		if t != "" && !seen[t] {
			tags = append(tags, t)
			seen[t] = true
		}
	}
	return tags
}

func extensionFor(format string) string {
	switch format {
	case "png":
		return ".png"
	case "webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// writeFileAtomic writes via a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
