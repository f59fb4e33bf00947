package copymove

import (
	"container/heap"
	"sort"
)

// Neighbor is one entry of a k-nearest-neighbour answer.
type Neighbor struct {
	Index    int
	Distance float64
}

// Index is a k-nearest-neighbour structure over a fixed set of descriptors
// that can be queried with its own members (a self join).
type Index interface {
	// SelfJoin returns, for every indexed descriptor in order, up to k
	// neighbours among all indexed descriptors (itself included) sorted by
	// ascending distance.
	SelfJoin(k int) ([][]Neighbor, error)
}

// IndexBuilder creates an Index over descriptors compared with metric m.
type IndexBuilder func(descriptors []Descriptor, m Metric) (Index, error)

// BruteForceIndex compares every query against every indexed descriptor.
// It works with any Metric.
type BruteForceIndex struct {
	descriptors []Descriptor
	metric      Metric
}

// NewBruteForceIndex builds a BruteForceIndex. It satisfies IndexBuilder.
func NewBruteForceIndex(descriptors []Descriptor, m Metric) (Index, error) {
	if m == nil {
		m = L2
	}
	return &BruteForceIndex{descriptors: descriptors, metric: m}, nil
}

// Len returns the number of indexed descriptors.
func (idx *BruteForceIndex) Len() int { return len(idx.descriptors) }

// KNN returns up to k neighbours of query, nearest first. Equal distances
// are ordered by ascending index.
func (idx *BruteForceIndex) KNN(query Descriptor, k int) []Neighbor {
	if k <= 0 || len(idx.descriptors) == 0 {
		return nil
	}
	h := make(neighborHeap, 0, k)
	for i, d := range idx.descriptors {
		n := Neighbor{Index: i, Distance: idx.metric.Distance(query, d)}
		if len(h) < k {
			heap.Push(&h, n)
			continue
		}
		if n.Distance < h[0].Distance {
			h[0] = n
			heap.Fix(&h, 0)
		}
	}
	out := []Neighbor(h)
	sortNeighbors(out)
	return out
}

func (idx *BruteForceIndex) SelfJoin(k int) ([][]Neighbor, error) {
	out := make([][]Neighbor, len(idx.descriptors))
	for i, d := range idx.descriptors {
		out[i] = idx.KNN(d, k)
	}
	return out, nil
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		return ns[i].Index < ns[j].Index
	})
}

// neighborHeap is a max-heap on distance; the root is the worst kept neighbour.
type neighborHeap []Neighbor

func (h neighborHeap) Len() int { return len(h) }
func (h neighborHeap) Less(i, j int) bool {
	if h[i].Distance != h[j].Distance {
		return h[i].Distance > h[j].Distance
	}
	return h[i].Index > h[j].Index
}
func (h neighborHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *neighborHeap) Push(x interface{}) {
	*h = append(*h, x.(Neighbor))
}

func (h *neighborHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
