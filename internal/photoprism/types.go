package photoprism

import "time"

// Photo types reported by PhotoPrism.
const (
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeLive     = "live"
	TypeAnimated = "animated"
	TypeRaw      = "raw"
)

// Photo represents a PhotoPrism photo as returned by the search API
type Photo struct {
	UID          string `json:"UID"`
	Title        string `json:"Title"`
	TakenAt      string `json:"TakenAt"`
	Type         string `json:"Type"`
	Hash         string `json:"Hash"` // primary file hash, used for thumbnails
	Width        int    `json:"Width"`
	Height       int    `json:"Height"`
	FileSize     int64  `json:"FileSize"`
	OriginalName string `json:"OriginalName"` // Original filename when uploaded
	FileName     string `json:"FileName"`     // Current filename
}

// IsVideo reports whether PhotoPrism indexed the photo as a video.
func (p Photo) IsVideo() bool {
	return p.Type == TypeVideo
}

// DisplayName returns the original file name, falling back to the stored one.
func (p Photo) DisplayName() string {
	if p.OriginalName != "" {
		return p.OriginalName
	}
	return p.FileName
}

// Taken parses TakenAt; the zero time is returned when it is missing or malformed.
func (p Photo) Taken() time.Time {
	t, err := time.Parse(time.RFC3339, p.TakenAt)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Thumbnail sizes used for decoding.
const (
	ThumbTile224 = "tile_224"
	ThumbFit720  = "fit_720"
)
