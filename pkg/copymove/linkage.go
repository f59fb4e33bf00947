package copymove

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Link is one merge of an agglomerative clustering. Leaves are numbered
// 0..n-1; the cluster formed by Links[i] is numbered n+i.
type Link struct {
	Left, Right int
	Height      float64
	Size        int
}

// Dendrogram is the full merge history over Leaves points, ordered by
// non-decreasing height for reducible linkage methods.
type Dendrogram struct {
	Leaves int
	Links  []Link
}

// Linkage performs agglomerative hierarchical clustering of points using
// Euclidean distances and the given linkage method.
//
// The working distance matrix holds len(points)^2 float64 values, so memory
// and time grow quadratically with the number of points.
func Linkage(points []Point2d, method LinkageMethod) Dendrogram {
	n := len(points)
	if n < 2 {
		panic(fmt.Sprintf("linkage needs at least 2 points, got %d", n))
	}

	dist := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist.SetSym(i, j, points[i].Distance(points[j]))
		}
	}

	var merges []Link
	switch method {
	case LinkageCentroid, LinkageMedian:
		merges = genericLinkage(dist, method)
	default:
		merges = nnChainLinkage(dist, method)
		sort.SliceStable(merges, func(i, j int) bool { return merges[i].Height < merges[j].Height })
	}
	relabel(merges, n)
	return Dendrogram{Leaves: n, Links: merges}
}

// nnChainLinkage follows nearest-neighbour chains until a reciprocal pair is
// found. Valid for methods satisfying the reducibility property. Links carry
// slot indices; relabel converts them to cluster ids.
func nnChainLinkage(dist *mat.SymDense, method LinkageMethod) []Link {
	n, _ := dist.Dims()
	size := make([]int, n)
	for i := range size {
		size[i] = 1
	}
	merges := make([]Link, 0, n-1)
	chain := make([]int, 0, n)

	for k := 0; k < n-1; k++ {
		if len(chain) == 0 {
			for i := 0; i < n; i++ {
				if size[i] > 0 {
					chain = append(chain, i)
					break
				}
			}
		}

		var x, y int
		var currentMin float64
		for {
			x = chain[len(chain)-1]
			currentMin = math.Inf(1)
			if len(chain) > 1 {
				y = chain[len(chain)-2]
				currentMin = dist.At(x, y)
			}
			for i := 0; i < n; i++ {
				if size[i] == 0 || i == x {
					continue
				}
				if d := dist.At(x, i); d < currentMin {
					currentMin = d
					y = i
				}
			}
			if len(chain) > 1 && y == chain[len(chain)-2] {
				break
			}
			chain = append(chain, y)
		}
		chain = chain[:len(chain)-2]

		if x > y {
			x, y = y, x
		}
		nx, ny := size[x], size[y]
		merges = append(merges, Link{Left: x, Right: y, Height: currentMin, Size: nx + ny})
		size[x] = 0
		size[y] = nx + ny
		for i := 0; i < n; i++ {
			ni := size[i]
			if ni == 0 || i == y {
				continue
			}
			dist.SetSym(i, y, updateDistance(method, dist.At(i, x), dist.At(i, y), currentMin, nx, ny, ni))
		}
	}
	return merges
}

// genericLinkage repeatedly merges the globally closest pair. Used for the
// centroid and median methods, which may produce height inversions.
func genericLinkage(dist *mat.SymDense, method LinkageMethod) []Link {
	n, _ := dist.Dims()
	size := make([]int, n)
	for i := range size {
		size[i] = 1
	}
	merges := make([]Link, 0, n-1)

	for k := 0; k < n-1; k++ {
		x, y := -1, -1
		currentMin := math.Inf(1)
		for i := 0; i < n; i++ {
			if size[i] == 0 {
				continue
			}
			for j := i + 1; j < n; j++ {
				if size[j] == 0 {
					continue
				}
				if d := dist.At(i, j); d < currentMin || x < 0 {
					currentMin = d
					x, y = i, j
				}
			}
		}

		nx, ny := size[x], size[y]
		merges = append(merges, Link{Left: x, Right: y, Height: currentMin, Size: nx + ny})
		size[x] = 0
		size[y] = nx + ny
		for i := 0; i < n; i++ {
			ni := size[i]
			if ni == 0 || i == y {
				continue
			}
			dist.SetSym(i, y, updateDistance(method, dist.At(i, x), dist.At(i, y), currentMin, nx, ny, ni))
		}
	}
	return merges
}

// updateDistance is the Lance-Williams update: the distance from cluster i to
// the union of clusters x and y.
func updateDistance(method LinkageMethod, dxi, dyi, dxy float64, nx, ny, ni int) float64 {
	fx, fy, fi := float64(nx), float64(ny), float64(ni)
	switch method {
	case LinkageSingle:
		return math.Min(dxi, dyi)
	case LinkageComplete:
		return math.Max(dxi, dyi)
	case LinkageAverage:
		return (fx*dxi + fy*dyi) / (fx + fy)
	case LinkageWeighted:
		return 0.5 * (dxi + dyi)
	case LinkageCentroid:
		v := (fx*dxi*dxi+fy*dyi*dyi)/(fx+fy) - fx*fy*dxy*dxy/((fx+fy)*(fx+fy))
		return math.Sqrt(math.Max(0, v))
	case LinkageMedian:
		return math.Sqrt(math.Max(0, 0.5*(dxi*dxi+dyi*dyi)-0.25*dxy*dxy))
	default:
		t := 1.0 / (fx + fy + fi)
		v := (fi+fx)*t*dxi*dxi + (fi+fy)*t*dyi*dyi - fi*t*dxy*dxy
		return math.Sqrt(math.Max(0, v))
	}
}

// relabel replaces slot indices with cluster ids: the cluster created by
// merges[i] becomes n+i. The smaller id is stored as Left.
func relabel(merges []Link, n int) {
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			parent[x], x = root, parent[x]
		}
		return root
	}

	for i := range merges {
		xr, yr := find(merges[i].Left), find(merges[i].Right)
		if xr > yr {
			xr, yr = yr, xr
		}
		merges[i].Left, merges[i].Right = xr, yr
		parent[xr] = n + i
		parent[yr] = n + i
	}
}
