// Package media defines the media assets the analysis engine works on and the
// collaborators that own them: the asset store and the image decoder.
package media

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/kozaktomas/photo-cleaner/internal/constants"
)

// Sentinel errors shared by stores, decoders and the engine.
var (
	ErrNotAuthorized = errors.New("media library access not authorized")
	ErrDecode        = errors.New("could not decode asset")
	ErrNotFound      = errors.New("asset not found")
)

// Kind is the media type of an asset.
type Kind string

// Kind values.
const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// AuthState is the authorization state reported by a store.
type AuthState string

// AuthState values.
const (
	AuthNotDetermined AuthState = "not_determined"
	AuthLimited       AuthState = "limited"
	AuthAuthorized    AuthState = "authorized"
	AuthDenied        AuthState = "denied"
)

// Permits reports whether the state allows enumerating the library.
// A limited grant permits analysis over whatever the store chooses to expose.
func (s AuthState) Permits() bool {
	return s == AuthAuthorized || s == AuthLimited
}

// Asset is a photo or video owned by a Store. The engine never mutates it.
type Asset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Kind      Kind      `json:"kind"`
	Size      int64     `json:"size"` // 0 when unknown
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// IsVideo reports whether the asset is a video.
func (a Asset) IsVideo() bool {
	return a.Kind == KindVideo
}

// EstimatedSize returns the known size, or width*height*4 when the size is unknown.
func (a Asset) EstimatedSize() int64 {
	if a.Size > 0 {
		return a.Size
	}
	return int64(a.Width) * int64(a.Height) * constants.FallbackBytesPerPixel
}

// Store enumerates and deletes assets of a media library.
type Store interface {
	// ListAssets returns the assets of the given kind in a stable order.
	ListAssets(ctx context.Context, kind Kind) ([]Asset, error)
	// ByteSize is best effort and never fails; stores fall back to Asset.EstimatedSize.
	ByteSize(ctx context.Context, asset Asset) int64
	// RequestDeletion removes the assets. Any failure means the batch failed.
	RequestDeletion(ctx context.Context, assets []Asset) error
	AuthorizationState(ctx context.Context) AuthState
	// RequestAuthorization asks the library for access and returns the resulting state.
	RequestAuthorization(ctx context.Context) (AuthState, error)
}

// Decoder turns an asset into pixels. The returned image should be close to
// the target size but may be larger; it must not be upscaled past the asset's
// native resolution.
type Decoder interface {
	Decode(ctx context.Context, asset Asset, targetWidth, targetHeight int) (image.Image, error)
}

// NativeDecoder is a Decoder that ignores the target size and always returns
// the asset at native resolution. One decode can then serve several samples.
type NativeDecoder interface {
	Decoder
	DecodesNative() bool
}

// Library is a store that can also decode its own assets.
type Library interface {
	Store
	Decoder
}
