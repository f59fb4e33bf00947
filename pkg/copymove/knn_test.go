package copymove

import (
	"math"
	"testing"
)

func TestMetrics(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		a, b   Descriptor
		want   float64
	}{
		{"l2 3-4-5", L2, Descriptor{0, 0}, Descriptor{3, 4}, 5},
		{"l2 identical", L2, Descriptor{1, 2, 3}, Descriptor{1, 2, 3}, 0},
		{"l2 empty", L2, Descriptor{}, Descriptor{}, 0},
		{"hamming nibble", Hamming, Descriptor{0xff, 0}, Descriptor{0x0f, 0}, 4},
		{"hamming all bits", Hamming, Descriptor{0, 0}, Descriptor{255, 255}, 16},
		{"hamming orb length", Hamming, make(Descriptor, 32), filledDescriptor(32, 0x81), 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.metric.Distance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestParseMetric(t *testing.T) {
	if m, err := ParseMetric("hamming"); err != nil || m != Hamming {
		t.Errorf("expected Hamming, got %v (%v)", m, err)
	}
	if m, err := ParseMetric(""); err != nil || m != L2 {
		t.Errorf("expected L2 default, got %v (%v)", m, err)
	}
	if _, err := ParseMetric("cosine"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestBruteForceKNN(t *testing.T) {
	descs := []Descriptor{{0}, {10}, {1}, {3}, {1}}
	idx, err := NewBruteForceIndex(descs, L2)
	if err != nil {
		t.Fatal(err)
	}
	bf := idx.(*BruteForceIndex)

	got := bf.KNN(Descriptor{0}, 3)
	want := []Neighbor{{0, 0}, {2, 1}, {4, 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d neighbours, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("neighbour %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if n := len(bf.KNN(Descriptor{0}, 50)); n != len(descs) {
		t.Errorf("k larger than the index should return all %d, got %d", len(descs), n)
	}
	if n := len(bf.KNN(Descriptor{0}, 0)); n != 0 {
		t.Errorf("k=0 should return nothing, got %d", n)
	}
}

func TestBruteForceSelfJoin(t *testing.T) {
	descs := []Descriptor{{5, 5}, {5, 5}, {0, 0}}
	idx, _ := NewBruteForceIndex(descs, nil)

	joined, err := idx.SelfJoin(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(joined) != 3 {
		t.Fatalf("expected 3 lists, got %d", len(joined))
	}
	for i, ns := range joined {
		if len(ns) != 2 {
			t.Errorf("query %d: expected 2 neighbours, got %d", i, len(ns))
		}
		for j := 1; j < len(ns); j++ {
			if ns[j].Distance < ns[j-1].Distance {
				t.Errorf("query %d: neighbours not sorted: %+v", i, ns)
			}
		}
	}
	// Equal distances are ordered by index, so query 1 sees 0 before itself.
	if joined[1][0].Index != 0 || joined[1][1].Index != 1 {
		t.Errorf("unexpected tie order for query 1: %+v", joined[1])
	}
}

func filledDescriptor(n int, v float64) Descriptor {
	d := make(Descriptor, n)
	for i := range d {
		d[i] = v
	}
	return d
}
