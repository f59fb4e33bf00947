package copymove

import (
	"reflect"
	"testing"
)

func repeatPoint(p Point2d, n int) []Point2d {
	out := make([]Point2d, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func TestFilterNoise(t *testing.T) {
	a, b := Point2d{X: 10, Y: 10}, Point2d{X: 300, Y: 10}
	c, d := Point2d{X: 500, Y: 500}, Point2d{X: 800, Y: 800}

	tests := []struct {
		name             string
		points1, points2 []Point2d
		labels           []int
		wantLabels       []int
		wantRemoved      int
		wantNoise        int
	}{
		{
			name:        "five and two pair regions",
			points1:     append(repeatPoint(a, 5), repeatPoint(c, 2)...),
			points2:     append(repeatPoint(b, 5), repeatPoint(d, 2)...),
			labels:      []int{1, 1, 1, 1, 1, 3, 3, 2, 2, 2, 2, 2, 4, 4},
			wantLabels:  []int{1, 1, 1, 1, 1, 2, 2, 2, 2, 2},
			wantRemoved: 2,
			wantNoise:   2,
		},
		{
			name:        "removal cascades",
			points1:     repeatPoint(a, 9),
			points2:     repeatPoint(b, 9),
			labels:      []int{1, 1, 1, 1, 2, 6, 6, 6, 6, 2, 2, 2, 3, 5, 5, 5, 5, 5},
			wantLabels:  []int{6, 6, 6, 6, 5, 5, 5, 5},
			wantRemoved: 5,
			wantNoise:   1,
		},
		{
			name:        "everything is noise",
			points1:     repeatPoint(a, 3),
			points2:     repeatPoint(b, 3),
			labels:      []int{1, 1, 1, 2, 2, 2},
			wantLabels:  []int{},
			wantRemoved: 3,
			wantNoise:   2,
		},
		{
			name:        "nothing is noise",
			points1:     repeatPoint(a, 2),
			points2:     repeatPoint(b, 2),
			labels:      []int{1, 1, 1, 1},
			wantLabels:  []int{1, 1, 1, 1},
			wantRemoved: 0,
			wantNoise:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterNoise(tt.points1, tt.points2, tt.labels, 3)

			if !reflect.DeepEqual(got.Labels, tt.wantLabels) {
				t.Errorf("expected labels %v, got %v", tt.wantLabels, got.Labels)
			}
			if got.RemovedPairs != tt.wantRemoved {
				t.Errorf("expected %d removed pairs, got %d", tt.wantRemoved, got.RemovedPairs)
			}
			if got.NoiseClusters != tt.wantNoise {
				t.Errorf("expected %d noise clusters, got %d", tt.wantNoise, got.NoiseClusters)
			}
			m := len(got.Points1)
			if len(got.Points2) != m || len(got.Labels) != 2*m {
				t.Fatalf("sides not aligned: %d, %d, %d labels", m, len(got.Points2), len(got.Labels))
			}
			if m+got.RemovedPairs != len(tt.points1) {
				t.Errorf("retained %d plus removed %d != %d input pairs", m, got.RemovedPairs, len(tt.points1))
			}
			for l, count := range countLabels(got.Labels, nil, m) {
				if count <= 3 {
					t.Errorf("label %d kept with only %d members", l, count)
				}
			}
		})
	}
}

func TestFilterNoiseKeepsPairing(t *testing.T) {
	points1 := []Point2d{{X: 1}, {X: 2}, {X: 3}, {X: 4}, {X: 5}}
	points2 := []Point2d{{Y: 1}, {Y: 2}, {Y: 3}, {Y: 4}, {Y: 5}}
	labels := []int{1, 1, 7, 1, 1, 2, 2, 8, 2, 2}

	got := filterNoise(points1, points2, labels, 3)

	want1 := []Point2d{{X: 1}, {X: 2}, {X: 4}, {X: 5}}
	want2 := []Point2d{{Y: 1}, {Y: 2}, {Y: 4}, {Y: 5}}
	if !reflect.DeepEqual(got.Points1, want1) || !reflect.DeepEqual(got.Points2, want2) {
		t.Errorf("expected %v / %v, got %v / %v", want1, want2, got.Points1, got.Points2)
	}
}

func TestCluster(t *testing.T) {
	a, b := Point2d{X: 10, Y: 10}, Point2d{X: 300, Y: 10}
	c, d := Point2d{X: 500, Y: 500}, Point2d{X: 800, Y: 800}
	points1 := append(repeatPoint(a, 5), c)
	points2 := append(repeatPoint(b, 5), d)

	p := NewDetectorParams()
	p.InconsistencyThreshold = 1.0
	got := Cluster(points1, points2, p)

	if got.Clusters != 3 || got.NoiseClusters != 1 {
		t.Errorf("expected 3 clusters with 1 noise, got %d and %d", got.Clusters, got.NoiseClusters)
	}
	if got.RemovedPairs != 1 {
		t.Errorf("expected the stray pair removed, got %d removed", got.RemovedPairs)
	}
	if !reflect.DeepEqual(got.Points1, repeatPoint(a, 5)) || !reflect.DeepEqual(got.Points2, repeatPoint(b, 5)) {
		t.Errorf("unexpected retained pairs %v -> %v", got.Points1, got.Points2)
	}
	if len(got.Labels) != 10 {
		t.Fatalf("expected 10 labels, got %d", len(got.Labels))
	}
	for i := 1; i < 5; i++ {
		if got.Labels[i] != got.Labels[0] || got.Labels[5+i] != got.Labels[5] {
			t.Errorf("copies of one location split across clusters: %v", got.Labels)
		}
	}
	if got.Labels[0] == got.Labels[5] {
		t.Errorf("expected source and copy in different clusters: %v", got.Labels)
	}
}

func TestClusterPanics(t *testing.T) {
	tests := []struct {
		name             string
		points1, points2 []Point2d
	}{
		{"mismatched", []Point2d{{X: 1}}, nil},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			Cluster(tt.points1, tt.points2, NewDetectorParams())
		})
	}
}

func TestClusterNilParams(t *testing.T) {
	points1 := repeatPoint(Point2d{X: 10, Y: 10}, 4)
	points2 := repeatPoint(Point2d{X: 300, Y: 10}, 4)

	got := Cluster(points1, points2, nil)
	want := Cluster(points1, points2, NewDetectorParams())
	if !reflect.DeepEqual(got, want) {
		t.Errorf("nil params should behave as defaults: %+v vs %+v", got, want)
	}
}
