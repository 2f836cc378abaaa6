// Package sampler produces small grayscale pixel buffers from media assets.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/kozaktomas/photo-cleaner/internal/media"
)

// ErrTooSmall is returned by Exact sampling when the decoded image is smaller
// than the requested sample in either dimension.
var ErrTooSmall = errors.New("image smaller than requested sample")

// Mode selects how a decoded image is brought to the target size.
type Mode int

const (
	// Fit scales the image down to fit the target box, keeping the aspect
	// ratio. Images already inside the box are left at native size.
	Fit Mode = iota
	// Exact scales the image to exactly the target dimensions. It refuses to
	// upscale and fails with ErrTooSmall instead.
	Exact
)

// Sampler adapts a media.Decoder into grayscale samples.
type Sampler struct {
	decoder media.Decoder
}

// New creates a Sampler on top of the given decoder.
func New(decoder media.Decoder) *Sampler {
	return &Sampler{decoder: decoder}
}

// Request describes one sample of an asset.
type Request struct {
	Width, Height int
	Mode          Mode
}

// Sample decodes the asset and returns a grayscale buffer of at most
// width x height pixels. Errors are per-asset; callers substitute defaults.
func (s *Sampler) Sample(ctx context.Context, asset media.Asset, width, height int, mode Mode) (*image.Gray, error) {
	img, err := s.decode(ctx, asset, width, height)
	if err != nil {
		return nil, err
	}
	return sample(asset, img, Request{Width: width, Height: height, Mode: mode})
}

// SampleEach returns one sample per request, each with its own error. A
// media.NativeDecoder is called once for all of them; other decoders are
// called per request so they can pick a source sized for it.
func (s *Sampler) SampleEach(ctx context.Context, asset media.Asset, reqs ...Request) ([]*image.Gray, []error) {
	grays := make([]*image.Gray, len(reqs))
	errs := make([]error, len(reqs))

	native, ok := s.decoder.(media.NativeDecoder)
	if !ok || !native.DecodesNative() {
		for i, r := range reqs {
			grays[i], errs[i] = s.Sample(ctx, asset, r.Width, r.Height, r.Mode)
		}
		return grays, errs
	}

	var width, height int
	for _, r := range reqs {
		width, height = max(width, r.Width), max(height, r.Height)
	}
	img, err := s.decode(ctx, asset, width, height)
	for i, r := range reqs {
		if err != nil {
			errs[i] = err
			continue
		}
		grays[i], errs[i] = sample(asset, img, r)
	}
	return grays, errs
}

func (s *Sampler) decode(ctx context.Context, asset media.Asset, width, height int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := s.decoder.Decode(ctx, asset, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", media.ErrDecode, asset.ID, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w %s: empty image", media.ErrDecode, asset.ID)
	}
	return img, nil
}

func sample(asset media.Asset, img image.Image, r Request) (*image.Gray, error) {
	switch r.Mode {
	case Exact:
		scaled, err := scaleExact(img, r.Width, r.Height)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset.ID, err)
		}
		return toGray(scaled), nil
	default:
		return toGray(imaging.Fit(img, r.Width, r.Height, imaging.Lanczos)), nil
	}
}

// scaleExact resizes img to width x height using bilinear interpolation.
func scaleExact(img image.Image, width, height int) (image.Image, error) {
	bounds := img.Bounds()
	if bounds.Dx() < width || bounds.Dy() < height {
		return nil, fmt.Errorf("%w: %dx%d < %dx%d", ErrTooSmall, bounds.Dx(), bounds.Dy(), width, height)
	}
	if bounds.Dx() == width && bounds.Dy() == height {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, nil
}

// toGray converts an image to 8-bit grayscale anchored at the origin.
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	if g, ok := img.(*image.Gray); ok && bounds.Min == (image.Point{}) {
		return g
	}

	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}
