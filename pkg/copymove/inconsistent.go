package copymove

import "gonum.org/v1/gonum/stat"

// InconsistencyStat summarises the heights of a link and its non-singleton
// descendants up to a fixed depth.
type InconsistencyStat struct {
	Mean        float64
	StdDev      float64
	Count       int
	Coefficient float64
}

// Inconsistency computes, for every link, the statistics of the link heights
// found within depth levels below it (the link itself is level one). The
// coefficient is (height - mean) / stddev, or 0 when stddev is 0.
func Inconsistency(d Dendrogram, depth int) []InconsistencyStat {
	n := d.Leaves
	out := make([]InconsistencyStat, len(d.Links))
	heights := make([]float64, 0, 1<<uint(minInt(depth, 16)))

	var collect func(link, level int)
	collect = func(link, level int) {
		l := d.Links[link]
		heights = append(heights, l.Height)
		if level+1 >= depth {
			return
		}
		if l.Left >= n {
			collect(l.Left-n, level+1)
		}
		if l.Right >= n {
			collect(l.Right-n, level+1)
		}
	}

	for i, l := range d.Links {
		heights = heights[:0]
		collect(i, 0)

		s := InconsistencyStat{Count: len(heights), Mean: heights[0]}
		if len(heights) > 1 {
			s.Mean, s.StdDev = stat.MeanStdDev(heights, nil)
		}
		if s.StdDev > 0 {
			s.Coefficient = (l.Height - s.Mean) / s.StdDev
		}
		out[i] = s
	}
	return out
}

// maxInconsistency returns, for every link, the largest coefficient found
// in the subtree it roots.
func maxInconsistency(d Dendrogram, stats []InconsistencyStat) []float64 {
	n := d.Leaves
	out := make([]float64, len(d.Links))
	for i, l := range d.Links {
		m := stats[i].Coefficient
		if l.Left >= n && out[l.Left-n] > m {
			m = out[l.Left-n]
		}
		if l.Right >= n && out[l.Right-n] > m {
			m = out[l.Right-n]
		}
		out[i] = m
	}
	return out
}

// FlatClusters cuts the dendrogram top-down: the first link whose monotonic
// criterion is <= threshold on every path from the root becomes a flat
// cluster holding all leaves below it. Leaves never covered by such a link
// form singleton clusters. Labels start at 1 and follow a left-first walk.
func FlatClusters(d Dendrogram, criterion []float64, threshold float64) []int {
	n := d.Leaves
	labels := make([]int, n)
	if len(d.Links) == 0 {
		for i := range labels {
			labels[i] = i + 1
		}
		return labels
	}

	next := 0
	var visit func(link int, inCluster bool)
	visit = func(link int, inCluster bool) {
		if !inCluster && criterion[link] <= threshold {
			next++
			inCluster = true
		}
		l := d.Links[link]
		for _, child := range [2]int{l.Left, l.Right} {
			if child >= n {
				visit(child-n, inCluster)
				continue
			}
			if !inCluster {
				next++
			}
			labels[child] = next
		}
	}
	visit(len(d.Links)-1, false)
	return labels
}

// InconsistentClusters assigns flat cluster labels using the inconsistency
// criterion: a link and everything below it stay together while no
// coefficient in its subtree exceeds threshold.
func InconsistentClusters(d Dendrogram, threshold float64, depth int) []int {
	stats := Inconsistency(d, depth)
	return FlatClusters(d, maxInconsistency(d, stats), threshold)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
