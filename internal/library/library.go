// Package library implements a media library backed by a directory tree on
// the local disk.
package library

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/photo-cleaner/internal/config"
	"github.com/kozaktomas/photo-cleaner/internal/media"
)

// ErrUnsupported is returned when decoding an asset that has no pixel decoder,
// such as a video.
var ErrUnsupported = errors.New("unsupported media type")

// Library serves the media files below a root directory. Asset IDs are
// slash-separated paths relative to the root.
type Library struct {
	root   string
	types  config.MediaTypes
	logger *slog.Logger
}

// New creates a library rooted at root.
func New(root string, types config.MediaTypes, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{root: root, types: types, logger: logger}
}

// Root returns the library's root directory.
func (l *Library) Root() string {
	return l.root
}

// ListAssets walks the root and returns every file of the given kind, newest
// first. Hidden files and directories are skipped.
func (l *Library) ListAssets(ctx context.Context, kind media.Kind) ([]media.Asset, error) {
	if !l.AuthorizationState(ctx).Permits() {
		return nil, media.ErrNotAuthorized
	}

	var assets []media.Asset
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != l.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if k, ok := l.types.Kind(filepath.Ext(path)); !ok || k != kind {
			return nil
		}

		asset, err := l.describe(path, kind)
		if err != nil {
			l.logger.Debug("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		assets = append(assets, asset)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.root, err)
	}

	slices.SortStableFunc(assets, func(a, b media.Asset) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return assets, nil
}

func (l *Library) describe(path string, kind media.Kind) (media.Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return media.Asset{}, err
	}
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return media.Asset{}, err
	}

	// IDs keep the on-disk bytes; names are NFC so decomposed (macOS) and
	// composed spellings display the same.
	asset := media.Asset{
		ID:        filepath.ToSlash(rel),
		Name:      norm.NFC.String(info.Name()),
		Kind:      kind,
		Size:      info.Size(),
		CreatedAt: info.ModTime().UTC(),
	}
	if kind == media.KindImage {
		if taken, ok := captureTime(path); ok {
			asset.CreatedAt = taken
		}
		if w, h, err := dimensions(path); err == nil {
			asset.Width, asset.Height = w, h
		}
	}
	return asset, nil
}

// ByteSize returns the current file size, falling back to the pixel estimate
// when the file is empty or gone.
func (l *Library) ByteSize(_ context.Context, asset media.Asset) int64 {
	path, err := l.path(asset.ID)
	if err != nil {
		return asset.EstimatedSize()
	}
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return info.Size()
	}
	if asset.Width == 0 || asset.Height == 0 {
		if w, h, err := dimensions(path); err == nil {
			asset.Width, asset.Height = w, h
		}
	}
	return asset.EstimatedSize()
}

// Decode opens the asset with EXIF orientation applied. The image is returned
// at native resolution.
func (l *Library) Decode(ctx context.Context, asset media.Asset, _, _ int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if asset.IsVideo() {
		return nil, ErrUnsupported
	}
	path, err := l.path(asset.ID)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", asset.ID, err)
	}
	return img, nil
}

// DecodesNative reports that Decode ignores the target size.
func (l *Library) DecodesNative() bool {
	return true
}

// RequestDeletion removes the files. Every asset is checked before anything
// is removed, so a missing asset fails the batch without deleting the rest.
func (l *Library) RequestDeletion(ctx context.Context, assets []media.Asset) error {
	if state := l.AuthorizationState(ctx); state != media.AuthAuthorized {
		return fmt.Errorf("delete requires write access (state %s): %w", state, media.ErrNotAuthorized)
	}

	paths := make([]string, len(assets))
	for i, asset := range assets {
		path, err := l.path(asset.ID)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", media.ErrNotFound, asset.ID)
		}
		paths[i] = path
	}

	var errs []error
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		l.logger.Debug("file removed", "path", path)
	}
	return errors.Join(errs...)
}

// AuthorizationState maps directory permissions to an authorization state:
// writable is authorized, read-only is limited, anything else is denied.
func (l *Library) AuthorizationState(_ context.Context) media.AuthState {
	if l.root == "" {
		return media.AuthNotDetermined
	}
	info, err := os.Stat(l.root)
	if err != nil || !info.IsDir() {
		return media.AuthDenied
	}
	dir, err := os.Open(l.root)
	if err != nil {
		return media.AuthDenied
	}
	_, err = dir.ReadDir(1)
	dir.Close()
	if err != nil && !errors.Is(err, io.EOF) {
		return media.AuthDenied
	}

	probe, err := os.CreateTemp(l.root, ".photo-cleaner-*")
	if err != nil {
		return media.AuthLimited
	}
	probe.Close()
	os.Remove(probe.Name())
	return media.AuthAuthorized
}

// RequestAuthorization has no prompt to show; it reports the current state.
func (l *Library) RequestAuthorization(ctx context.Context) (media.AuthState, error) {
	if l.root == "" {
		return media.AuthDenied, errors.New("library root not configured (set LIBRARY_ROOT)")
	}
	return l.AuthorizationState(ctx), nil
}

// path resolves an asset ID below the root, rejecting IDs that escape it.
func (l *Library) path(id string) (string, error) {
	local := filepath.FromSlash(id)
	if id == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", media.ErrNotFound, id)
	}
	return filepath.Join(l.root, local), nil
}

func dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
