package copymove

import (
	"math"
	"reflect"
	"testing"
)

func TestInconsistency(t *testing.T) {
	d := Linkage(twoGroups, LinkageSingle)

	tests := []struct {
		name  string
		depth int
		want  []InconsistencyStat
	}{
		{
			name:  "depth 1",
			depth: 1,
			want: []InconsistencyStat{
				{Mean: 1, Count: 1},
				{Mean: 1, Count: 1},
				{Mean: 4, Count: 1},
			},
		},
		{
			name:  "depth 2",
			depth: 2,
			want: []InconsistencyStat{
				{Mean: 1, Count: 1},
				{Mean: 1, Count: 1},
				{Mean: 2, StdDev: math.Sqrt(3), Count: 3, Coefficient: 2 / math.Sqrt(3)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Inconsistency(d, tt.depth)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d stats, got %d", len(tt.want), len(got))
			}
			for i, w := range tt.want {
				g := got[i]
				if g.Count != w.Count ||
					math.Abs(g.Mean-w.Mean) > 1e-9 ||
					math.Abs(g.StdDev-w.StdDev) > 1e-9 ||
					math.Abs(g.Coefficient-w.Coefficient) > 1e-9 {
					t.Errorf("link %d: expected %+v, got %+v", i, w, g)
				}
			}
		})
	}
}

func TestInconsistencyZeroHeightChildren(t *testing.T) {
	// A link over c-1 zero-height links has coefficient (c-1)/sqrt(c).
	const h = 7.0
	d := Dendrogram{Leaves: 4, Links: []Link{
		{Left: 0, Right: 1, Height: 0, Size: 2},
		{Left: 2, Right: 3, Height: 0, Size: 2},
		{Left: 4, Right: 5, Height: h, Size: 4},
	}}

	stats := Inconsistency(d, 4)
	if stats[0].Coefficient != 0 || stats[1].Coefficient != 0 {
		t.Errorf("expected zero coefficients for leaf links, got %+v", stats[:2])
	}
	want := 2 / math.Sqrt(3)
	if got := stats[2]; got.Count != 3 || math.Abs(got.Coefficient-want) > 1e-9 {
		t.Errorf("expected count 3 and coefficient %f, got %+v", want, got)
	}
}

func TestFlatClusters(t *testing.T) {
	d := Linkage(twoGroups, LinkageSingle)

	tests := []struct {
		name      string
		threshold float64
		want      []int
	}{
		{"split at root", 1.0, []int{1, 1, 2, 2}},
		{"split everything inconsistent", 0, []int{1, 1, 2, 2}},
		{"single cluster", 2.2, []int{1, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InconsistentClusters(d, tt.threshold, 2)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFlatClustersLeftFirst(t *testing.T) {
	// Leaf 2 hangs directly off an inconsistent root.
	d := Dendrogram{Leaves: 3, Links: []Link{
		{Left: 0, Right: 1, Height: 1, Size: 2},
		{Left: 2, Right: 3, Height: 10, Size: 3},
	}}

	got := FlatClusters(d, []float64{0, 5}, 1)
	want := []int{2, 2, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got = FlatClusters(d, []float64{5, 5}, 1)
	want = []int{2, 3, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected singletons %v, got %v", want, got)
	}
}

func TestMaxInconsistencyIsMonotonic(t *testing.T) {
	d := Dendrogram{Leaves: 3, Links: []Link{
		{Left: 0, Right: 1, Height: 1, Size: 2},
		{Left: 2, Right: 3, Height: 2, Size: 3},
	}}
	stats := []InconsistencyStat{{Coefficient: 3}, {Coefficient: 0.5}}

	got := maxInconsistency(d, stats)
	if got[0] != 3 || got[1] != 3 {
		t.Errorf("expected [3 3], got %v", got)
	}
}
