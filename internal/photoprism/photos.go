package photoprism

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// GetPhotos retrieves a page of photos with an optional search query and ordering.
// Query examples: "type:video", "year:2024"
// Order examples: "newest", "oldest", "added", "edited", "name", "title", "size", "random"
func (pp *PhotoPrism) GetPhotos(ctx context.Context, count, offset int, query, order string) ([]Photo, error) {
	endpoint := fmt.Sprintf("photos?count=%d&offset=%d", count, offset)
	if query != "" {
		endpoint += "&q=" + url.QueryEscape(query)
	}
	if order != "" {
		endpoint += "&order=" + url.QueryEscape(order)
	}

	result, err := doGetJSON[[]Photo](ctx, pp, endpoint)
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// GetAllPhotos pages through the search API until a short page is returned.
func (pp *PhotoPrism) GetAllPhotos(ctx context.Context, pageSize int, query, order string) ([]Photo, error) {
	var all []Photo
	for offset := 0; ; offset += pageSize {
		page, err := pp.GetPhotos(ctx, pageSize, offset, query, order)
		if err != nil {
			return nil, fmt.Errorf("photos at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// GetPhotoThumbnail downloads a thumbnail for a photo
// size can be one of: tile_50, tile_100, left_224, right_224, tile_224, tile_500,
// fit_720, tile_1080, fit_1280, fit_1600, fit_1920, fit_2048, fit_2560, fit_3840, fit_4096, fit_7680
func (pp *PhotoPrism) GetPhotoThumbnail(ctx context.Context, thumbHash string, size string) ([]byte, string, error) {
	url := fmt.Sprintf("%s/t/%s/%s/%s", pp.Url, thumbHash, pp.downloadToken, size)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("could not create request: %w", err)
	}

	resp, err := pp.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("could not read response body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

type photoSelection struct {
	Photos []string `json:"photos"`
}

// ArchivePhotos archives (soft-deletes) multiple photos by their UIDs
func (pp *PhotoPrism) ArchivePhotos(ctx context.Context, photoUIDs []string) error {
	if len(photoUIDs) == 0 {
		return nil
	}
	return doRequestRaw(ctx, pp, http.MethodPost, "batch/photos/archive", photoSelection{Photos: photoUIDs})
}

// DeletePhotos permanently removes archived photos and their files.
func (pp *PhotoPrism) DeletePhotos(ctx context.Context, photoUIDs []string) error {
	if len(photoUIDs) == 0 {
		return nil
	}
	return doRequestRaw(ctx, pp, http.MethodPost, "batch/photos/delete", photoSelection{Photos: photoUIDs})
}
