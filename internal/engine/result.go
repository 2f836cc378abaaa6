package engine

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/kozaktomas/photo-cleaner/internal/cluster"
	"github.com/kozaktomas/photo-cleaner/internal/fingerprint"
	"github.com/kozaktomas/photo-cleaner/internal/quality"
)

// Result is the outcome of one complete analysis run. It is never modified
// after the engine publishes it.
type Result struct {
	RunID       uuid.UUID `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	TotalPhotos int   `json:"total_photos"`
	TotalVideos int   `json:"total_videos"`
	TotalBytes  int64 `json:"total_bytes"`

	Duplicates []*cluster.Cluster `json:"duplicates"`
	LowQuality []*cluster.Photo   `json:"low_quality"`
	Blurry     []*cluster.Photo   `json:"blurry"`

	// ReclaimableBytes covers every cluster's removable members plus all
	// low-quality and blurry photos.
	ReclaimableBytes int64 `json:"reclaimable_bytes"`

	photos   map[string]*cluster.Photo
	clusters map[fingerprint.Fingerprint]*cluster.Cluster
}

func newResult(runID uuid.UUID, started time.Time, photos []*cluster.Photo, clusters []*cluster.Cluster, videoCount int, videoBytes int64) *Result {
	r := &Result{
		RunID:       runID,
		StartedAt:   started,
		TotalPhotos: len(photos),
		TotalVideos: videoCount,
		TotalBytes:  videoBytes,
		Duplicates:  clusters,
		LowQuality:  []*cluster.Photo{},
		Blurry:      []*cluster.Photo{},
		photos:      make(map[string]*cluster.Photo, len(photos)),
		clusters:    cluster.Index(clusters),
	}
	if r.Duplicates == nil {
		r.Duplicates = []*cluster.Cluster{}
	}

	for _, p := range photos {
		r.photos[p.Asset.ID] = p
		r.TotalBytes += p.Size
		if p.InCluster() {
			continue
		}
		switch p.Quality {
		case quality.Poor:
			r.LowQuality = append(r.LowQuality, p)
			r.ReclaimableBytes += p.Size
		case quality.Blurry:
			r.Blurry = append(r.Blurry, p)
			r.ReclaimableBytes += p.Size
		}
	}
	for _, c := range clusters {
		r.ReclaimableBytes += c.ReclaimableBytes
	}

	r.CompletedAt = time.Now()
	return r
}

// Photo looks up an analyzed photo by asset ID.
func (r *Result) Photo(id string) (*cluster.Photo, bool) {
	p, ok := r.photos[id]
	return p, ok
}

// Cluster looks up a duplicate cluster by its ID.
func (r *Result) Cluster(id fingerprint.Fingerprint) (*cluster.Cluster, bool) {
	c, ok := r.clusters[id]
	return c, ok
}

// TotalIssues counts every cluster member plus low-quality and blurry photos.
func (r *Result) TotalIssues() int {
	n := len(r.LowQuality) + len(r.Blurry)
	for _, c := range r.Duplicates {
		n += len(c.Photos)
	}
	return n
}

// FormattedSavings returns ReclaimableBytes in human-readable form.
func (r *Result) FormattedSavings() string {
	return humanize.Bytes(uint64(max(r.ReclaimableBytes, 0)))
}

// Selection chooses which categories of a result are offered for deletion.
type Selection struct {
	Duplicates bool `json:"duplicates"`
	LowQuality bool `json:"low_quality"`
	Blurry     bool `json:"blurry"`
}

// Candidates returns the photos a selection would delete. Each cluster's
// keep candidate is never included.
func (r *Result) Candidates(sel Selection) []*cluster.Photo {
	var out []*cluster.Photo
	if sel.Duplicates {
		for _, c := range r.Duplicates {
			out = append(out, c.Removable()...)
		}
	}
	if sel.LowQuality {
		out = append(out, r.LowQuality...)
	}
	if sel.Blurry {
		out = append(out, r.Blurry...)
	}
	return out
}
