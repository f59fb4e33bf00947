package copymove

import (
	"math"
	"math/rand"
	"testing"
)

// twoGroups is two tight pairs on the x axis: {0, 1} and {5, 6}.
var twoGroups = []Point2d{{X: 0}, {X: 1}, {X: 5}, {X: 6}}

func TestLinkageTwoGroups(t *testing.T) {
	tests := []struct {
		method LinkageMethod
		top    float64
	}{
		{LinkageSingle, 4},
		{LinkageComplete, 6},
		{LinkageAverage, 5},
		{LinkageWeighted, 5},
		{LinkageCentroid, 5},
		{LinkageMedian, 5},
		{LinkageWard, math.Sqrt(50)},
	}

	for _, tt := range tests {
		t.Run(tt.method.String(), func(t *testing.T) {
			d := Linkage(twoGroups, tt.method)
			if d.Leaves != 4 || len(d.Links) != 3 {
				t.Fatalf("expected 4 leaves and 3 links, got %d and %d", d.Leaves, len(d.Links))
			}

			want := []Link{
				{Left: 0, Right: 1, Height: 1, Size: 2},
				{Left: 2, Right: 3, Height: 1, Size: 2},
				{Left: 4, Right: 5, Height: tt.top, Size: 4},
			}
			for i, w := range want {
				got := d.Links[i]
				if got.Left != w.Left || got.Right != w.Right || got.Size != w.Size {
					t.Errorf("link %d: expected %+v, got %+v", i, w, got)
				}
				if math.Abs(got.Height-w.Height) > 1e-9 {
					t.Errorf("link %d: expected height %f, got %f", i, w.Height, got.Height)
				}
			}
		})
	}
}

func TestLinkageStructure(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	points := make([]Point2d, 40)
	for i := range points {
		points[i] = Point2d{X: r.Float64() * 100, Y: r.Float64() * 100}
	}

	for _, method := range []LinkageMethod{LinkageWard, LinkageSingle, LinkageComplete, LinkageAverage, LinkageWeighted} {
		t.Run(method.String(), func(t *testing.T) {
			d := Linkage(points, method)
			n := d.Leaves
			sizes := make([]int, 2*n-1)
			for i := 0; i < n; i++ {
				sizes[i] = 1
			}
			used := make([]bool, 2*n-1)

			for i, l := range d.Links {
				if i > 0 && l.Height < d.Links[i-1].Height {
					t.Errorf("link %d: height %f below previous %f", i, l.Height, d.Links[i-1].Height)
				}
				if l.Left >= l.Right || l.Right >= n+i {
					t.Errorf("link %d: bad children %d, %d", i, l.Left, l.Right)
					continue
				}
				if used[l.Left] || used[l.Right] {
					t.Errorf("link %d: child merged twice", i)
				}
				used[l.Left], used[l.Right] = true, true
				sizes[n+i] = sizes[l.Left] + sizes[l.Right]
				if l.Size != sizes[n+i] {
					t.Errorf("link %d: expected size %d, got %d", i, sizes[n+i], l.Size)
				}
			}
			if root := d.Links[len(d.Links)-1]; root.Size != n {
				t.Errorf("root covers %d leaves, expected %d", root.Size, n)
			}
		})
	}
}

func TestLinkageSinglePair(t *testing.T) {
	d := Linkage([]Point2d{{X: 0, Y: 0}, {X: 3, Y: 4}}, LinkageWard)
	if len(d.Links) != 1 || d.Links[0].Height != 5 || d.Links[0].Size != 2 {
		t.Errorf("unexpected dendrogram %+v", d)
	}
}

func TestLinkagePanicsOnOnePoint(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a single point")
		}
	}()
	Linkage([]Point2d{{X: 1, Y: 1}}, LinkageWard)
}

func TestParseLinkageMethod(t *testing.T) {
	for _, name := range []string{"ward", "single", "complete", "average", "weighted", "centroid", "median"} {
		m, err := ParseLinkageMethod(name)
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
			continue
		}
		if m.String() != name {
			t.Errorf("expected %s, got %s", name, m)
		}
	}
	if _, err := ParseLinkageMethod("centroids"); err == nil {
		t.Error("expected error for unknown method")
	}
}
