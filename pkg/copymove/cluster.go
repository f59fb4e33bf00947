package copymove

import (
	"fmt"
	"sort"
)

// ClusterResult is the output of the cluster filter.
type ClusterResult struct {
	Points1 []Point2d
	Points2 []Point2d
	// Labels holds one label per retained point of Points1 ++ Points2.
	Labels []int

	Clusters      int
	NoiseClusters int
	RemovedPairs  int
}

// Cluster groups the matched locations of both sides spatially and removes
// pairs that touch a noise cluster, one whose membership on the combined
// point array is at most p.NoiseClusterSize. Removal is repeated until
// every label left has more than p.NoiseClusterSize members, so the retained
// sides stay index aligned.
//
// Cost is quadratic in the number of pairs (see Linkage). Mismatched or
// empty inputs are invariant violations and panic. A nil p selects
// NewDetectorParams.
func Cluster(points1, points2 []Point2d, p *DetectorParams) *ClusterResult {
	if p == nil {
		p = NewDetectorParams()
	}
	n := len(points1)
	if n != len(points2) {
		panic(fmt.Sprintf("cluster filter: %d side-1 points vs %d side-2 points", n, len(points2)))
	}
	if n == 0 {
		panic("cluster filter: no point pairs to cluster")
	}

	combined := make([]Point2d, 0, 2*n)
	combined = append(combined, points1...)
	combined = append(combined, points2...)

	dendrogram := Linkage(combined, p.Linkage)
	labels := InconsistentClusters(dendrogram, p.InconsistencyThreshold, p.InconsistencyDepth)
	return filterNoise(points1, points2, labels, p.NoiseClusterSize)
}

// filterNoise applies the noise-cluster keep-mask to n pairs whose combined
// point array carries labels.
func filterNoise(points1, points2 []Point2d, labels []int, noiseSize int) *ClusterResult {
	n := len(points1)
	result := &ClusterResult{}
	counts := countLabels(labels, nil, n)
	result.Clusters = len(counts)
	for _, c := range counts {
		if c <= noiseSize {
			result.NoiseClusters++
		}
	}

	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	for {
		changed := false
		for i := 0; i < n; i++ {
			if !keep[i] {
				continue
			}
			if counts[labels[i]] <= noiseSize || counts[labels[n+i]] <= noiseSize {
				keep[i] = false
				changed = true
			}
		}
		if !changed {
			break
		}
		counts = countLabels(labels, keep, n)
	}

	labels1 := make([]int, 0, n)
	labels2 := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !keep[i] {
			result.RemovedPairs++
			continue
		}
		result.Points1 = append(result.Points1, points1[i])
		result.Points2 = append(result.Points2, points2[i])
		labels1 = append(labels1, labels[i])
		labels2 = append(labels2, labels[n+i])
	}
	result.Labels = append(labels1, labels2...)
	return result
}

// countLabels counts label membership over the combined array of n pairs,
// considering only pairs marked in keep (all pairs when keep is nil).
func countLabels(labels []int, keep []bool, n int) map[int]int {
	counts := make(map[int]int)
	for i := 0; i < n; i++ {
		if keep != nil && !keep[i] {
			continue
		}
		counts[labels[i]]++
		counts[labels[n+i]]++
	}
	return counts
}

// distinctLabels returns the sorted set of labels.
func distinctLabels(labels []int) []int {
	seen := make(map[int]bool)
	out := make([]int, 0)
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}
