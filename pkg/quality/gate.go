// Package quality decides whether a downloaded image is good enough for
// the collection. Hard requirements (resolution, file size, aspect ratio)
// always apply; the heuristic scoring pass is optional and sorts the
// survivors into approved, rejected, or manual review.
package quality

import (
	"fmt"
	"image"
	"strings"

	"wallscraper/pkg/config"
)

// Decision is the gate's verdict for one image.
type Decision string

const (
	DecisionApproved     Decision = "approved"
	DecisionRejected     Decision = "rejected"
	DecisionManualReview Decision = "manual_review"
)

// Scores holds the per-metric heuristic scores, each on a 0-10 scale.
type Scores struct {
	Sharpness        float64 `json:"sharpness"`
	Contrast         float64 `json:"contrast"`
	Brightness       float64 `json:"brightness"`
	ColorQuality     float64 `json:"color_quality"`
	Composition      float64 `json:"composition"`
	TechnicalQuality float64 `json:"technical_quality"`
}

// Result is the full assessment of one image.
type Result struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	FileSize int64    `json:"file_size"`
	Overall  float64  `json:"overall_score"`
	Scores   *Scores  `json:"scores,omitempty"`
}

// Metric weights for the overall score.
const (
	weightSharpness   = 0.25
	weightContrast    = 0.15
	weightBrightness  = 0.10
	weightColor       = 0.15
	weightComposition = 0.15
	weightTechnical   = 0.20
)

// Gate applies the configured quality policy.
type Gate struct {
	cfg *config.QualityConfig
}

// NewGate creates a gate with the given policy.
func NewGate(cfg *config.QualityConfig) *Gate {
	return &Gate{cfg: cfg}
}

// Assess evaluates a decoded image. format is the decoded image format
// (jpeg, png, webp, gif) and fileSize the raw download size in bytes.
func (g *Gate) Assess(img image.Image, format string, fileSize int64) Result {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	result := Result{
		Width:    width,
		Height:   height,
		FileSize: fileSize,
	}

	if issues := g.hardChecks(width, height, fileSize); len(issues) > 0 {
		result.Decision = DecisionRejected
		result.Reason = "requirements failed: " + strings.Join(issues, "; ")
		return result
	}

	if !g.cfg.EnableScoring {
		result.Decision = DecisionApproved
		return result
	}

	scores, overall := g.score(img, format, width, height)
	result.Scores = &scores
	result.Overall = overall

	switch {
	case overall >= g.cfg.AutoApproveScore:
		result.Decision = DecisionApproved
	case overall < g.cfg.AutoRejectScore:
		result.Decision = DecisionRejected
		result.Reason = fmt.Sprintf("quality score %.1f below threshold %.1f", overall, g.cfg.AutoRejectScore)
	default:
		result.Decision = DecisionManualReview
		result.Reason = fmt.Sprintf("quality score %.1f needs review", overall)
	}
	return result
}

func (g *Gate) hardChecks(width, height int, fileSize int64) []string {
	var issues []string

	if width < g.cfg.MinWidth || height < g.cfg.MinHeight {
		issues = append(issues, fmt.Sprintf("resolution too low: %dx%d (need %dx%d)",
			width, height, g.cfg.MinWidth, g.cfg.MinHeight))
	}
	if g.cfg.MinFileSize > 0 && fileSize < g.cfg.MinFileSize {
		issues = append(issues, fmt.Sprintf("file too small: %d bytes", fileSize))
	}
	if g.cfg.MaxFileSize > 0 && fileSize > g.cfg.MaxFileSize {
		issues = append(issues, fmt.Sprintf("file too large: %.1fMB", float64(fileSize)/(1024*1024)))
	}

	if height > 0 {
		aspect := float64(width) / float64(height)
		if aspect < g.cfg.MinAspectRatio || aspect > g.cfg.MaxAspectRatio {
			issues = append(issues, fmt.Sprintf("aspect ratio out of range: %.2f", aspect))
		}
	}

	return issues
}

func (g *Gate) score(img image.Image, format string, width, height int) (Scores, float64) {
	gray, w, h := grayPlane(img)

	scores := Scores{
		Sharpness:        clampScore(laplacianVariance(gray, w, h) / 20.0),
		Composition:      g.compositionScore(gray, w, h),
		TechnicalQuality: g.technicalScore(gray, w, h, width, height, format),
	}

	mean, stddev := meanStddev(gray)
	scores.Contrast = clampScore(stddev / 8.0)
	scores.Brightness = clampScore(10.0 - abs(mean-127.0)/12.7)

	satMean, satStd := saturationStats(img)
	scores.ColorQuality = clampScore((clampScore(satMean/25.5) + clampScore(satStd/25.5)) / 2)

	overall := scores.Sharpness*weightSharpness +
		scores.Contrast*weightContrast +
		scores.Brightness*weightBrightness +
		scores.ColorQuality*weightColor +
		scores.Composition*weightComposition +
		scores.TechnicalQuality*weightTechnical

	// Corner text or logos cost a tenth of their penalty score; portrait
	// mobile-friendly framing earns a small bonus.
	overall -= g.watermarkPenalty(gray, w, h) * 0.1
	overall += g.mobileSuitability(width, height) * 0.05

	return scores, clampScore(overall)
}

// compositionScore rewards moderate edge density. Too many edges reads as
// noise, too few as an empty frame; 5% is the sweet spot.
func (g *Gate) compositionScore(gray []float64, w, h int) float64 {
	ratio := edgeRatio(gray, w, h)
	return clampScore(10.0 - abs(ratio-0.05)*100)
}

func (g *Gate) technicalScore(gray []float64, w, h, width, height int, format string) float64 {
	resolutionScore := 5.0
	if width >= 1080 && height >= 1920 {
		resolutionScore = 10.0
	}

	noiseScore := clampScore(10.0 - noiseLevel(gray, w, h)/2.0)

	formatScore := 5.0
	switch format {
	case "jpeg", "png", "webp":
		formatScore = 10.0
	}

	return clampScore((resolutionScore + noiseScore + formatScore) / 3)
}

func (g *Gate) watermarkPenalty(gray []float64, w, h int) float64 {
	var penalty float64
	for _, density := range cornerEdgeDensities(gray, w, h) {
		if density > 0.1 {
			penalty += 2.5
		}
	}
	if penalty > 10 {
		penalty = 10
	}
	return penalty
}

func (g *Gate) mobileSuitability(width, height int) float64 {
	var orientationScore float64
	aspect := float64(width) / float64(height)
	switch {
	case aspect < 1.0:
		orientationScore = 10.0
	case aspect == 1.0:
		orientationScore = 7.0
	default:
		orientationScore = 3.0
	}

	var resolutionScore float64
	switch {
	case width >= 1080 && height >= 1920:
		resolutionScore = 10.0
	case width >= 720 && height >= 1280:
		resolutionScore = 7.0
	default:
		resolutionScore = 4.0
	}

	return (orientationScore + resolutionScore) / 2
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
