package copymove

import "fmt"

// Match runs the self matcher: every keypoint is matched against all
// keypoints of the same image, neighbours are accepted by the ratio test and
// spatially close matches are discarded. Candidates are ordered by query
// index, then by neighbour rank. A nil p selects NewDetectorParams.
func Match(fs FeatureSet, p *DetectorParams) ([]MatchCandidate, error) {
	if p == nil {
		p = NewDetectorParams()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return match(fs, p, &DetectorMetrics{})
}

func match(fs FeatureSet, p *DetectorParams, metrics *DetectorMetrics) ([]MatchCandidate, error) {
	metrics.Keypoints = len(fs)
	if len(fs) < 2 {
		return nil, nil
	}

	descriptors := make([]Descriptor, len(fs))
	for i, kp := range fs {
		descriptors[i] = kp.Descriptor
	}

	build := p.IndexBuilder
	if build == nil {
		build = NewBruteForceIndex
	}
	index, err := build(descriptors, p.metric())
	if err != nil {
		return nil, fmt.Errorf("building neighbour index: %w", err)
	}
	neighbors, err := index.SelfJoin(p.K)
	if err != nil {
		return nil, fmt.Errorf("searching neighbours: %w", err)
	}

	candidates := make([]MatchCandidate, 0)
	for query, ns := range neighbors {
		ns = promoteSelf(query, ns)
		end := ratioCut(neighborDistances(ns), p.Ratio)

		for rank := 1; rank < end; rank++ {
			nb := ns[rank]
			metrics.RatioAccepted++
			if nb.Index == query {
				metrics.SelfMatches++
				continue
			}
			if fs[query].Location.Distance(fs[nb.Index].Location) <= p.MinSeparation {
				metrics.TooClose++
				continue
			}
			candidates = append(candidates, MatchCandidate{
				QueryIndex:    query,
				NeighborIndex: nb.Index,
				Distance:      nb.Distance,
			})
		}
	}
	metrics.Candidates = len(candidates)
	return candidates, nil
}

// ratioCut scans a neighbour distance list sorted ascending, where entry 0
// is the query itself, and returns the end (exclusive) of the accepted run:
// entries 1..end-1 are each closer than ratio times their successor.
// The last entry has no successor and is never accepted.
func ratioCut(dists []float64, ratio float64) int {
	j := 1
	for j+1 < len(dists) && dists[j] < ratio*dists[j+1] {
		j++
	}
	return j
}

// promoteSelf moves the query to the front of its neighbour list when it is
// tied with the nearest entry, so that rank 0 is always the trivial match.
func promoteSelf(query int, ns []Neighbor) []Neighbor {
	for s := 1; s < len(ns); s++ {
		if ns[s].Index != query {
			continue
		}
		if ns[s].Distance != ns[0].Distance {
			break
		}
		out := make([]Neighbor, 0, len(ns))
		out = append(out, ns[s])
		out = append(out, ns[:s]...)
		out = append(out, ns[s+1:]...)
		return out
	}
	return ns
}

func neighborDistances(ns []Neighbor) []float64 {
	out := make([]float64, len(ns))
	for i, n := range ns {
		out[i] = n.Distance
	}
	return out
}
