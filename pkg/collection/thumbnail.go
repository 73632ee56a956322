package collection

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// renderThumbnail scales the image down to fit inside maxW x maxH while
// preserving aspect ratio, and encodes it as JPEG at the given quality.
// Images already inside the box are re-encoded without scaling.
func renderThumbnail(src image.Image, maxW, maxH, quality int) ([]byte, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxW || h > maxH {
		scale := float64(maxW) / float64(w)
		if hs := float64(maxH) / float64(h); hs < scale {
			scale = hs
		}
		tw := int(float64(w) * scale)
		th := int(float64(h) * scale)
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
