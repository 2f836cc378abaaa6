// Package quality scores image sharpness and maps it to a quality tier.
package quality

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/kozaktomas/photo-cleaner/internal/constants"
)

// Tier is a discrete quality grade. Higher values are better.
type Tier int

// Tiers from worst to best.
const (
	Blurry Tier = iota
	Poor
	Fair
	Good
	Excellent
)

// DefaultTier is assigned when an image cannot be sampled or scored.
const DefaultTier = Fair

var tierNames = [...]string{"Blurry", "Poor", "Fair", "Good", "Excellent"}

func (t Tier) String() string {
	if t < Blurry || t > Excellent {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// Rank is the tier's ordinal position, Excellent highest.
func (t Tier) Rank() int {
	return int(t)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	if t < Blurry || t > Excellent {
		return nil, fmt.Errorf("invalid quality tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(text []byte) error {
	for i, name := range tierNames {
		if name == string(text) {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown quality tier %q", string(text))
}

// Sobel kernels for horizontal and vertical gradients.
var (
	sobelX = [9]float64{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	}
	sobelY = [9]float64{
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1,
	}
)

var errEmptyImage = errors.New("empty image")

// Score returns the sharpness of a grayscale sample in [0,1]: the mean
// gradient magnitude of the image divided by the maximum channel value.
func Score(gray *image.Gray) (float64, error) {
	if gray == nil || gray.Bounds().Empty() {
		return 0, errEmptyImage
	}

	opts := &imaging.ConvolveOptions{Abs: true}
	gx := imaging.Convolve3x3(gray, sobelX, opts)
	gy := imaging.Convolve3x3(gray, sobelY, opts)

	var sum float64
	pixels := len(gx.Pix) / 4
	for i := range pixels {
		// Gray input yields identical channels, so R is enough.
		x := float64(gx.Pix[i*4])
		y := float64(gy.Pix[i*4])
		sum += math.Min(math.Hypot(x, y), 255)
	}

	score := sum / float64(pixels) / 255
	return math.Min(score, 1), nil
}

// TierForScore maps a sharpness score to a tier. Each breakpoint is the
// inclusive lower bound of the tier above it.
func TierForScore(score float64) Tier {
	switch {
	case math.IsNaN(score):
		return DefaultTier
	case score < constants.PoorMinSharpness:
		return Blurry
	case score < constants.FairMinSharpness:
		return Poor
	case score < constants.GoodMinSharpness:
		return Fair
	case score < constants.ExcellentMinSharpness:
		return Good
	default:
		return Excellent
	}
}

// Assess scores a sample and returns its tier. A sample that cannot be
// scored gets DefaultTier.
func Assess(gray *image.Gray) (Tier, float64) {
	score, err := Score(gray)
	if err != nil {
		return DefaultTier, 0
	}
	return TierForScore(score), score
}
