package cluster

import (
	"testing"

	"github.com/kozaktomas/photo-cleaner/internal/fingerprint"
	"github.com/kozaktomas/photo-cleaner/internal/media"
	"github.com/kozaktomas/photo-cleaner/internal/quality"
)

func newPhoto(id string, fp fingerprint.Fingerprint, size int64, tier quality.Tier) *Photo {
	return &Photo{
		Asset:       media.Asset{ID: id, Kind: media.KindImage, Size: size},
		Fingerprint: fp,
		Quality:     tier,
		Size:        size,
	}
}

// flipBits returns fp with the lowest n bits inverted.
func flipBits(fp fingerprint.Fingerprint, n int) fingerprint.Fingerprint {
	return fp ^ fingerprint.Fingerprint(uint64(1)<<n-1)
}

func TestGroupThreshold(t *testing.T) {
	base := fingerprint.Fingerprint(0xF0F0F0F0F0F0F0F0)
	a := newPhoto("a", base, 100, quality.Good)
	b := newPhoto("b", flipBits(base, 3), 250, quality.Fair)
	c := newPhoto("c", flipBits(base, 20), 80, quality.Good)

	clusters := Group([]*Photo{a, b, c})

	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	cl := clusters[0]
	if len(cl.Photos) != 2 || cl.Photos[0] != a || cl.Photos[1] != b {
		t.Errorf("expected cluster {a, b}, got %v", photoIDs(cl.Photos))
	}
	if cl.ID != base {
		t.Errorf("cluster ID should be the anchor fingerprint")
	}
	if cl.ReclaimableBytes != 250 {
		t.Errorf("expected 250 reclaimable bytes (Fair b removed), got %d", cl.ReclaimableBytes)
	}
	if c.InCluster() {
		t.Error("c should not be in a cluster")
	}
}

func TestGroupReclaimableBytes(t *testing.T) {
	fp := fingerprint.Fingerprint(0x123456789ABCDEF0)
	photos := []*Photo{
		newPhoto("good", fp, 100, quality.Good),
		newPhoto("excellent", fp, 250, quality.Excellent),
		newPhoto("fair", fp, 80, quality.Fair),
	}

	clusters := Group(photos)

	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	cl := clusters[0]
	if cl.ReclaimableBytes != 180 {
		t.Errorf("expected 180 reclaimable bytes, got %d", cl.ReclaimableBytes)
	}
	if cl.Keep().Asset.ID != "excellent" {
		t.Errorf("expected to keep the Excellent photo, got %s", cl.Keep().Asset.ID)
	}
	if cl.Anchor().Asset.ID != "good" {
		t.Errorf("anchor should be the first photo, got %s", cl.Anchor().Asset.ID)
	}
	removable := photoIDs(cl.Removable())
	if len(removable) != 2 || removable[0] != "good" || removable[1] != "fair" {
		t.Errorf("unexpected removable set %v", removable)
	}
}

func TestGroupTieKeepsFirst(t *testing.T) {
	fp := fingerprint.Fingerprint(42)
	photos := []*Photo{
		newPhoto("first", fp, 10, quality.Good),
		newPhoto("second", fp, 5000, quality.Good),
	}

	cl := Group(photos)[0]
	if cl.Keep().Asset.ID != "first" {
		t.Errorf("equal tiers should keep the first member, got %s", cl.Keep().Asset.ID)
	}
	if cl.ReclaimableBytes != 5000 {
		t.Errorf("expected 5000 reclaimable bytes, got %d", cl.ReclaimableBytes)
	}
}

func TestGroupDisjoint(t *testing.T) {
	// a~c and b~c but a is 6 bits from b.
	a := newPhoto("a", 0b000000, 1, quality.Fair)
	b := newPhoto("b", 0b111111, 1, quality.Fair)
	c := newPhoto("c", 0b000111, 1, quality.Fair)
	d := newPhoto("d", 0b111111, 1, quality.Fair)

	clusters := Group([]*Photo{a, b, c, d})

	seen := make(map[string]int)
	for _, cl := range clusters {
		if len(cl.Photos) < 2 {
			t.Errorf("cluster %s has %d members", cl.ID, len(cl.Photos))
		}
		for _, p := range cl.Photos {
			seen[p.Asset.ID]++
		}
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("photo %s appears in %d clusters", id, n)
		}
	}
	if len(clusters) != 2 {
		t.Fatalf("expected clusters {a, c} and {b, d}, got %d clusters", len(clusters))
	}
}

func TestGroupClaimedFingerprintSkipped(t *testing.T) {
	fp := fingerprint.Fingerprint(0xAAAA)
	photos := []*Photo{
		newPhoto("a", fp, 1, quality.Good),
		newPhoto("b", fp, 1, quality.Good),
		newPhoto("c", fp, 1, quality.Good),
	}

	clusters := Group(photos)
	if len(clusters) != 1 {
		t.Fatalf("identical fingerprints should form one cluster, got %d", len(clusters))
	}
	if len(clusters[0].Photos) != 3 {
		t.Errorf("expected 3 members, got %d", len(clusters[0].Photos))
	}
}

func TestGroupNoDuplicates(t *testing.T) {
	photos := []*Photo{
		newPhoto("a", 0x0, 1, quality.Good),
		newPhoto("b", 0xFFFF, 1, quality.Good),
		newPhoto("c", 0xFFFF0000, 1, quality.Good),
	}
	if clusters := Group(photos); len(clusters) != 0 {
		t.Errorf("expected no clusters, got %d", len(clusters))
	}
	for _, p := range photos {
		if p.InCluster() || p.Duplicate || p.Similarity != nil {
			t.Errorf("photo %s should not carry membership fields", p.Asset.ID)
		}
	}
	if clusters := Group(nil); len(clusters) != 0 {
		t.Errorf("expected no clusters for empty input")
	}
}

func TestGroupMembershipFields(t *testing.T) {
	base := fingerprint.Fingerprint(0xFF)
	a := newPhoto("a", base, 1, quality.Good)
	b := newPhoto("b", flipBits(base, 4), 1, quality.Good)

	Group([]*Photo{a, b})

	if a.Duplicate {
		t.Error("anchor should not be flagged as duplicate")
	}
	if !b.Duplicate {
		t.Error("b should be flagged as duplicate")
	}
	if a.ClusterID == nil || b.ClusterID == nil || *a.ClusterID != base || *b.ClusterID != base {
		t.Error("both photos should point at the anchor's cluster")
	}
	if *b.Similarity != 1-4.0/64 {
		t.Errorf("expected similarity %v, got %v", 1-4.0/64, *b.Similarity)
	}
	if *a.Similarity != 1 {
		t.Errorf("anchor similarity should be 1, got %v", *a.Similarity)
	}
}

func TestGroupSortedByReclaimable(t *testing.T) {
	photos := []*Photo{
		newPhoto("small-1", 0x0, 10, quality.Good),
		newPhoto("small-2", 0x0, 10, quality.Good),
		newPhoto("large-1", 0xFFFFFFFFFFFFFFFF, 1000, quality.Good),
		newPhoto("large-2", 0xFFFFFFFFFFFFFFFF, 1000, quality.Good),
	}

	clusters := Group(photos)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if clusters[0].ReclaimableBytes != 1000 || clusters[1].ReclaimableBytes != 10 {
		t.Errorf("clusters not sorted by reclaimable bytes: %d, %d",
			clusters[0].ReclaimableBytes, clusters[1].ReclaimableBytes)
	}

	index := Index(clusters)
	if index[0xFFFFFFFFFFFFFFFF] != clusters[0] || index[0x0] != clusters[1] {
		t.Error("Index should map cluster IDs to clusters")
	}
}

func TestGroupDeterministic(t *testing.T) {
	build := func() []*Photo {
		return []*Photo{
			newPhoto("a", 0x1, 5, quality.Poor),
			newPhoto("b", 0x3, 6, quality.Good),
			newPhoto("c", 0xF0000, 7, quality.Fair),
			newPhoto("d", 0xF0001, 8, quality.Excellent),
		}
	}

	first := Group(build())
	second := Group(build())
	if len(first) != len(second) {
		t.Fatalf("cluster count differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].ReclaimableBytes != second[i].ReclaimableBytes {
			t.Errorf("cluster %d differs between runs", i)
		}
	}
}

func photoIDs(photos []*Photo) []string {
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.Asset.ID
	}
	return ids
}
