package copymove

import (
	"sort"

	"github.com/paulmach/orb"
)

// Detect runs the full copy-move detection pipeline over the features of one
// image: self matching, pair collection, spatial clustering and noise
// removal. A nil p selects NewDetectorParams.
//
// When matching yields no pairs the result has Tampered false and the
// cluster filter is not run. Detect is deterministic for a given input.
func Detect(fs FeatureSet, p *DetectorParams) (*DetectorResult, error) {
	if p == nil {
		p = NewDetectorParams()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}

	metrics := &DetectorMetrics{}

	// Step 1: Self matching with ratio test and spatial separation
	candidates, err := match(fs, p, metrics)
	if err != nil {
		return nil, err
	}

	// Step 2: Location pairs, duplicates removed
	points1, points2, duplicates := collectPairs(fs, candidates)
	metrics.DuplicatePairs = duplicates
	metrics.Pairs = len(points1)
	if len(points1) == 0 {
		return &DetectorResult{Metrics: metrics}, nil
	}

	// Step 3: Hierarchical clustering and noise removal
	metrics.ClusteringRan = true
	clustered := Cluster(points1, points2, p)
	metrics.Clusters = clustered.Clusters
	metrics.NoiseClusters = clustered.NoiseClusters
	metrics.RemovedPairs = clustered.RemovedPairs
	metrics.RetainedPairs = len(clustered.Points1)
	metrics.RetainedClusters = len(distinctLabels(clustered.Labels))

	return &DetectorResult{
		Tampered: len(clustered.Points1) > 0,
		Points1:  clustered.Points1,
		Points2:  clustered.Points2,
		Labels:   clustered.Labels,
		Regions:  buildRegions(clustered),
		Metrics:  metrics,
	}, nil
}

// buildRegions merges labels joined by a retained pair (union-find over
// labels) and reports one Region per connected group, ordered by smallest
// label.
func buildRegions(c *ClusterResult) []Region {
	m := len(c.Points1)
	parent := make(map[int]int)
	var find func(l int) int
	find = func(l int) int {
		p, ok := parent[l]
		if !ok {
			parent[l] = l
			return l
		}
		if p != l {
			p = find(p)
			parent[l] = p
		}
		return p
	}
	for i := 0; i < m; i++ {
		a, b := find(c.Labels[i]), find(c.Labels[m+i])
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		parent[b] = a
	}

	type group struct {
		labels       []int
		side1, side2 orb.MultiPoint
	}
	groups := make(map[int]*group)
	for _, l := range distinctLabels(c.Labels) {
		root := find(l)
		if groups[root] == nil {
			groups[root] = &group{}
		}
		groups[root].labels = append(groups[root].labels, l)
	}
	for i := 0; i < m; i++ {
		g := groups[find(c.Labels[i])]
		p1, p2 := c.Points1[i], c.Points2[i]
		if pointLess(p2, p1) {
			p1, p2 = p2, p1
		}
		g.side1 = append(g.side1, p1.orb())
		g.side2 = append(g.side2, p2.orb())
	}

	regions := make([]Region, 0, len(groups))
	for _, g := range groups {
		regions = append(regions, Region{
			Labels: g.labels,
			Pairs:  len(g.side1),
			Side1:  g.side1.Bound(),
			Side2:  g.side2.Bound(),
		})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Labels[0] < regions[j].Labels[0] })
	return regions
}

func pointLess(a, b Point2d) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
