// Package cluster groups analyzed photos into near-duplicate clusters and
// picks the member worth keeping in each.
package cluster

import (
	"slices"

	"github.com/kozaktomas/photo-cleaner/internal/fingerprint"
	"github.com/kozaktomas/photo-cleaner/internal/media"
	"github.com/kozaktomas/photo-cleaner/internal/quality"
)

// Photo is the analysis record of a single image. Only the membership fields
// (Duplicate, ClusterID, Similarity) change after creation, and only once,
// when a cluster claims the photo.
type Photo struct {
	Asset        media.Asset             `json:"asset"`
	Fingerprint  fingerprint.Fingerprint `json:"fingerprint"`
	SampleFailed bool                    `json:"sample_failed,omitempty"` // fingerprint is the zero fallback
	Quality      quality.Tier            `json:"quality"`
	Sharpness    float64                 `json:"sharpness"`
	Size         int64                   `json:"size"`

	Duplicate  bool                     `json:"duplicate"`
	ClusterID  *fingerprint.Fingerprint `json:"cluster_id,omitempty"`
	Similarity *float64                 `json:"similarity,omitempty"`
}

// InCluster reports whether the photo belongs to a duplicate cluster,
// either as anchor or as duplicate.
func (p *Photo) InCluster() bool {
	return p.ClusterID != nil
}

func (p *Photo) claim(id fingerprint.Fingerprint, distance int, duplicate bool) {
	similarity := fingerprint.Similarity(distance)
	p.ClusterID = &id
	p.Similarity = &similarity
	p.Duplicate = duplicate
}

// Cluster is a set of near-duplicate photos. Photos[0] is the anchor, the
// photo that seeded the cluster; it is not necessarily the one to keep.
type Cluster struct {
	ID               fingerprint.Fingerprint `json:"id"`
	Photos           []*Photo                `json:"photos"`
	KeepIndex        int                     `json:"keep_index"`
	ReclaimableBytes int64                   `json:"reclaimable_bytes"`
}

// Anchor returns the photo that seeded the cluster.
func (c *Cluster) Anchor() *Photo {
	return c.Photos[0]
}

// Keep returns the best quality member.
func (c *Cluster) Keep() *Photo {
	return c.Photos[c.KeepIndex]
}

// Removable returns every member except the one to keep, in cluster order.
func (c *Cluster) Removable() []*Photo {
	out := make([]*Photo, 0, len(c.Photos)-1)
	for i, p := range c.Photos {
		if i != c.KeepIndex {
			out = append(out, p)
		}
	}
	return out
}

// Group clusters photos by fingerprint in a single greedy pass. The input
// order decides anchors and tie-breaks, so it must be stable across runs.
//
// Each unclaimed fingerprint becomes an anchor and claims every later,
// unclaimed photo for which fingerprint.Similar holds. A photo belongs to
// at most one cluster and clusters always have at least two members. The
// result is sorted by reclaimable bytes, largest first.
func Group(photos []*Photo) []*Cluster {
	claimedFingerprints := make(map[fingerprint.Fingerprint]struct{})
	claimed := make([]bool, len(photos))
	var clusters []*Cluster

	for i, anchor := range photos {
		id := anchor.Fingerprint
		if _, ok := claimedFingerprints[id]; ok {
			continue
		}

		members := []*Photo{anchor}
		for j := i + 1; j < len(photos); j++ {
			if claimed[j] {
				continue
			}
			candidate := photos[j]
			if !fingerprint.Similar(id, candidate.Fingerprint) {
				continue
			}
			distance := fingerprint.HammingDistance(id, candidate.Fingerprint)
			claimed[j] = true
			claimedFingerprints[candidate.Fingerprint] = struct{}{}
			candidate.claim(id, distance, true)
			members = append(members, candidate)
		}
		claimedFingerprints[id] = struct{}{}

		if len(members) < 2 {
			continue
		}
		anchor.claim(id, 0, false)
		clusters = append(clusters, newCluster(id, members))
	}

	slices.SortStableFunc(clusters, func(a, b *Cluster) int {
		switch {
		case a.ReclaimableBytes > b.ReclaimableBytes:
			return -1
		case a.ReclaimableBytes < b.ReclaimableBytes:
			return 1
		default:
			return 0
		}
	})

	return clusters
}

func newCluster(id fingerprint.Fingerprint, members []*Photo) *Cluster {
	c := &Cluster{ID: id, Photos: members, KeepIndex: keepIndex(members)}
	for i, p := range members {
		if i != c.KeepIndex {
			c.ReclaimableBytes += p.Size
		}
	}
	return c
}

// keepIndex returns the member with the highest quality rank. Equal ranks
// resolve to the earliest member, as a stable sort by rank would.
func keepIndex(members []*Photo) int {
	best := 0
	for i, p := range members[1:] {
		if p.Quality.Rank() > members[best].Quality.Rank() {
			best = i + 1
		}
	}
	return best
}

// Index maps cluster IDs to clusters.
func Index(clusters []*Cluster) map[fingerprint.Fingerprint]*Cluster {
	index := make(map[fingerprint.Fingerprint]*Cluster, len(clusters))
	for _, c := range clusters {
		index[c.ID] = c
	}
	return index
}
