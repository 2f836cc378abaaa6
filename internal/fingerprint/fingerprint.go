package fingerprint

import (
	"errors"
	"fmt"
	"image"
	"strconv"

	"github.com/corona10/goimagehash"

	"github.com/kozaktomas/photo-cleaner/internal/constants"
)

// Fingerprint is a 64-bit difference hash. Bit 63 holds the first comparison
// of the first row, bit 0 the last comparison of the last row.
type Fingerprint uint64

// Zero is the fingerprint assigned to images that could not be sampled.
// Any two such images are at distance 0 from each other.
const Zero Fingerprint = 0

// ErrSampleSize is returned when the sample is not exactly 9x8 pixels.
var ErrSampleSize = errors.New("fingerprint sample must be 9x8 pixels")

// DifferenceHash computes a 64-bit difference hash from a 9x8 grayscale sample.
// For each row, every pixel is compared with its right neighbour and emits 1
// when the left pixel is darker. The sample already has the hash size, so
// goimagehash leaves its pixels as they are.
func DifferenceHash(gray *image.Gray) (Fingerprint, error) {
	if gray == nil {
		return Zero, ErrSampleSize
	}
	bounds := gray.Bounds()
	if bounds.Dx() != constants.FingerprintSampleWidth || bounds.Dy() != constants.FingerprintSampleHeight {
		return Zero, fmt.Errorf("%w, got %dx%d", ErrSampleSize, bounds.Dx(), bounds.Dy())
	}

	hash, err := goimagehash.DifferenceHash(gray)
	if err != nil {
		return Zero, fmt.Errorf("difference hash: %w", err)
	}
	return Fingerprint(hash.GetHash()), nil
}

// ImageHash returns the fingerprint as a goimagehash dHash.
func (f Fingerprint) ImageHash() *goimagehash.ImageHash {
	return goimagehash.NewImageHash(uint64(f), goimagehash.DHash)
}

// HammingDistance computes the Hamming distance between two 64-bit hashes.
func HammingDistance(hash1, hash2 Fingerprint) int {
	// Both hashes are DHash kind, so Distance cannot fail.
	distance, _ := hash1.ImageHash().Distance(hash2.ImageHash())
	return distance
}

// Similar returns true if two hashes are within the duplicate threshold.
func Similar(hash1, hash2 Fingerprint) bool {
	return HammingDistance(hash1, hash2) <= constants.DuplicateThreshold
}

// Similarity converts a Hamming distance into a score in [0,1], 1 meaning identical.
func Similarity(distance int) float64 {
	return 1 - float64(distance)/constants.FingerprintBits
}

// String returns the fingerprint as 64 characters of '0' and '1'.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%064b", uint64(f))
}

// Parse reads a fingerprint from its 64 character binary form.
func Parse(s string) (Fingerprint, error) {
	if len(s) != constants.FingerprintBits {
		return Zero, fmt.Errorf("fingerprint must have %d characters, got %d", constants.FingerprintBits, len(s))
	}
	v, err := strconv.ParseUint(s, 2, 64)
	if err != nil {
		return Zero, fmt.Errorf("invalid fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
