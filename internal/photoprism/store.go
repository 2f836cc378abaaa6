package photoprism

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/kozaktomas/photo-cleaner/internal/config"
	"github.com/kozaktomas/photo-cleaner/internal/constants"
	"github.com/kozaktomas/photo-cleaner/internal/media"
)

// Store exposes a PhotoPrism instance as a media library. It logs in on
// RequestAuthorization; until then every operation fails with
// media.ErrNotAuthorized.
type Store struct {
	cfg    config.PhotoPrismConfig
	logger *slog.Logger

	mu     sync.RWMutex
	client *PhotoPrism
	state  media.AuthState
	hashes map[string]string // photo UID -> thumbnail hash, from the last image listing
}

// searchQueries filters the search API by kind, so each listing pages only
// its own photos.
var searchQueries = map[media.Kind]string{
	media.KindImage: "type:" + strings.Join([]string{TypeImage, TypeLive, TypeAnimated, TypeRaw}, "|"),
	media.KindVideo: "type:" + TypeVideo,
}

// NewStore creates a store for the configured PhotoPrism instance.
func NewStore(cfg config.PhotoPrismConfig, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cfg:    cfg,
		logger: logger,
		state:  media.AuthNotDetermined,
		hashes: make(map[string]string),
	}
}

// RequestAuthorization logs in with the configured credentials. A rejected
// login is reported as AuthDenied without an error; transport failures
// return both AuthDenied and the error.
func (s *Store) RequestAuthorization(ctx context.Context) (media.AuthState, error) {
	if s.cfg.URL == "" {
		return media.AuthDenied, errors.New("PHOTOPRISM_URL not configured")
	}

	client, err := NewPhotoPrism(ctx, s.cfg.URL, s.cfg.Username, s.cfg.Password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.client = nil
		s.state = media.AuthDenied
		if errors.Is(err, ErrUnauthorized) {
			s.logger.Warn("photoprism login rejected", "url", s.cfg.URL)
			return s.state, nil
		}
		return s.state, err
	}
	s.client = client
	s.state = media.AuthAuthorized
	s.logger.Info("photoprism session established", "url", s.cfg.URL, "user", client.UserUID())
	return s.state, nil
}

// AuthorizationState returns the result of the last login attempt.
func (s *Store) AuthorizationState(context.Context) media.AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) session() (*PhotoPrism, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, media.ErrNotAuthorized
	}
	return s.client, nil
}

// ListAssets returns every photo of the given kind, newest first. Listing
// images replaces the thumbnail hashes Decode works from.
func (s *Store) ListAssets(ctx context.Context, kind media.Kind) ([]media.Asset, error) {
	client, err := s.session()
	if err != nil {
		return nil, err
	}

	photos, err := client.GetAllPhotos(ctx, constants.DefaultPageSize, searchQueries[kind], "newest")
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}

	var assets []media.Asset
	hashes := make(map[string]string, len(photos))
	for _, p := range photos {
		k := media.KindImage
		if p.IsVideo() {
			k = media.KindVideo
		}
		if k != kind {
			continue
		}
		hashes[p.UID] = p.Hash
		assets = append(assets, media.Asset{
			ID:        p.UID,
			Name:      p.DisplayName(),
			Kind:      k,
			Size:      p.FileSize,
			Width:     p.Width,
			Height:    p.Height,
			CreatedAt: p.Taken(),
		})
	}
	if kind == media.KindImage {
		s.mu.Lock()
		s.hashes = hashes
		s.mu.Unlock()
	}

	s.logger.Debug("photoprism assets listed", "kind", kind, "count", len(assets))
	return assets, nil
}

// ByteSize returns the primary file size reported by PhotoPrism, or the
// pixel estimate when it is unknown.
func (s *Store) ByteSize(_ context.Context, asset media.Asset) int64 {
	return asset.EstimatedSize()
}

// Decode downloads the smallest thumbnail that covers the requested size.
func (s *Store) Decode(ctx context.Context, asset media.Asset, width, height int) (image.Image, error) {
	client, err := s.session()
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	hash, ok := s.hashes[asset.ID]
	s.mu.RUnlock()
	if !ok || hash == "" {
		return nil, fmt.Errorf("%w: no thumbnail hash for %s", media.ErrNotFound, asset.ID)
	}

	size := ThumbFit720
	if max(width, height) <= 224 {
		size = ThumbTile224
	}
	data, _, err := client.GetPhotoThumbnail(ctx, hash, size)
	if IsNotFoundError(err) {
		return nil, fmt.Errorf("%w: thumbnail %s: %w", media.ErrNotFound, asset.ID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("thumbnail %s: %w", asset.ID, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail %s: %w", asset.ID, err)
	}
	return img, nil
}

// RequestDeletion archives the photos and then deletes them permanently.
func (s *Store) RequestDeletion(ctx context.Context, assets []media.Asset) error {
	client, err := s.session()
	if err != nil {
		return err
	}
	uids := make([]string, len(assets))
	for i, a := range assets {
		uids[i] = a.ID
	}

	if err := client.ArchivePhotos(ctx, uids); err != nil {
		return fmt.Errorf("archive photos: %w", err)
	}
	if err := client.DeletePhotos(ctx, uids); err != nil {
		return fmt.Errorf("delete archived photos: %w", err)
	}

	s.mu.Lock()
	for _, uid := range uids {
		delete(s.hashes, uid)
	}
	s.mu.Unlock()
	s.logger.Info("photoprism photos deleted", "count", len(uids))
	return nil
}

// Close ends the PhotoPrism session.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.state = media.AuthNotDetermined
	s.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Logout(ctx)
}
