package quality

import (
	"image"
	"math"
)

// grayPlane extracts an 8-bit luminance plane from the image as float64
// values, which every statistic below operates on.
func grayPlane(img image.Image) ([]float64, int, int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	plane := make([]float64, w*h)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma, scaled back to 0-255.
			plane[i] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			i++
		}
	}
	return plane, w, h
}

func meanStddev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// laplacianVariance measures focus. Blurry images have weak second
// derivatives everywhere, so the variance of the Laplacian collapses.
func laplacianVariance(gray []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}

	lap := make([]float64, 0, (w-2)*(h-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := gray[y*w+x]
			v := gray[(y-1)*w+x] + gray[(y+1)*w+x] + gray[y*w+x-1] + gray[y*w+x+1] - 4*center
			lap = append(lap, v)
		}
	}

	_, stddev := meanStddev(lap)
	return stddev * stddev
}

// saturationStats returns the mean and standard deviation of the HSV
// saturation channel on a 0-255 scale.
func saturationStats(img image.Image) (float64, float64) {
	bounds := img.Bounds()
	sats := make([]float64, 0, bounds.Dx()*bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rf, gf, bf := float64(r)/257.0, float64(g)/257.0, float64(b)/257.0

			maxC := math.Max(rf, math.Max(gf, bf))
			minC := math.Min(rf, math.Min(gf, bf))

			var s float64
			if maxC > 0 {
				s = (maxC - minC) / maxC * 255.0
			}
			sats = append(sats, s)
		}
	}
	return meanStddev(sats)
}

// edgeRatio reports the fraction of pixels whose gradient magnitude marks
// them as edges. A 3x3 Sobel operator stands in for a full Canny pass; the
// two agree closely on the density statistic this package needs.
func edgeRatio(gray []float64, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}

	const edgeThreshold = 100.0

	edges := 0
	total := (w - 2) * (h - 2)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -gray[(y-1)*w+x-1] + gray[(y-1)*w+x+1] +
				-2*gray[y*w+x-1] + 2*gray[y*w+x+1] +
				-gray[(y+1)*w+x-1] + gray[(y+1)*w+x+1]
			gy := -gray[(y-1)*w+x-1] - 2*gray[(y-1)*w+x] - gray[(y-1)*w+x+1] +
				gray[(y+1)*w+x-1] + 2*gray[(y+1)*w+x] + gray[(y+1)*w+x+1]

			if math.Sqrt(gx*gx+gy*gy) > edgeThreshold {
				edges++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(edges) / float64(total)
}

// noiseLevel is the mean absolute difference between the image and a
// 5x5 Gaussian blur of itself. Clean images change little under blur.
func noiseLevel(gray []float64, w, h int) float64 {
	if w < 5 || h < 5 {
		return 0
	}

	kernel := []float64{1, 4, 6, 4, 1}
	const kernelSum = 16.0

	// Horizontal pass.
	tmp := make([]float64, len(gray))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -2; k <= 2; k++ {
				xx := clampInt(x+k, 0, w-1)
				acc += gray[y*w+xx] * kernel[k+2]
			}
			tmp[y*w+x] = acc / kernelSum
		}
	}

	// Vertical pass plus the difference accumulation.
	var diff float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k := -2; k <= 2; k++ {
				yy := clampInt(y+k, 0, h-1)
				acc += tmp[yy*w+x] * kernel[k+2]
			}
			diff += math.Abs(gray[y*w+x] - acc/kernelSum)
		}
	}
	return diff / float64(w*h)
}

// cornerEdgeDensities returns the edge-pixel density of the four corner
// patches. Dense edges in corners usually mean overlaid text or logos.
func cornerEdgeDensities(gray []float64, w, h int) []float64 {
	size := minInt(w, h) / 10
	if size < 3 {
		return nil
	}

	patchRatio := func(x0, y0 int) float64 {
		patch := make([]float64, 0, size*size)
		for y := y0; y < y0+size; y++ {
			for x := x0; x < x0+size; x++ {
				patch = append(patch, gray[y*w+x])
			}
		}
		return edgeRatio(patch, size, size)
	}

	return []float64{
		patchRatio(0, 0),
		patchRatio(w-size, 0),
		patchRatio(0, h-size),
		patchRatio(w-size, h-size),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}
