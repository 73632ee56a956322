// Package fingerprint computes content identities for downloaded images.
//
// Two fingerprints are produced per image: a SHA-256 digest over the raw
// bytes, which is the identity used for exact-duplicate detection, and a
// 64-bit perceptual difference hash used to flag near-duplicates such as
// re-encodes of the same photo.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"

	errs "wallscraper/pkg/errors"
)

// SHA256 returns the lowercase hex SHA-256 digest of the raw image bytes.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Decode decodes image bytes into an image.Image and reports the detected
// format (jpeg, png, gif, webp). Undecodable data is a permanent failure
// for the candidate.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errs.Newf(errs.ErrorTypeDecode, 0, "cannot decode image: %v", err)
	}
	return img, format, nil
}

// Perceptual computes a 64-bit difference hash of the decoded image.
func Perceptual(img image.Image) (uint64, error) {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return 0, errs.Newf(errs.ErrorTypeDecode, 0, "cannot compute perceptual hash: %v", err)
	}
	return hash.GetHash(), nil
}

// Distance returns the Hamming distance between two perceptual hashes.
// Small distances mean visually similar images.
func Distance(a, b uint64) int {
	ha := goimagehash.NewImageHash(a, goimagehash.DHash)
	hb := goimagehash.NewImageHash(b, goimagehash.DHash)
	d, err := ha.Distance(hb)
	if err != nil {
		// Same kind and size by construction, distance cannot fail.
		return 64
	}
	return d
}
