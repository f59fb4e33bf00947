package copymove

import "sort"

// CollectPairs maps match candidates to their two locations and removes
// duplicate location pairs, which arise when the same pair is reached from
// several query keypoints. The returned slices are index aligned and sorted
// by (x1, y1, x2, y2). Both are nil when there is no evidence.
func CollectPairs(fs FeatureSet, candidates []MatchCandidate) (points1, points2 []Point2d) {
	points1, points2, _ = collectPairs(fs, candidates)
	return points1, points2
}

func collectPairs(fs FeatureSet, candidates []MatchCandidate) (points1, points2 []Point2d, duplicates int) {
	if len(candidates) == 0 {
		return nil, nil, 0
	}

	rows := make([][4]float64, len(candidates))
	for i, c := range candidates {
		p1 := fs[c.QueryIndex].Location
		p2 := fs[c.NeighborIndex].Location
		rows[i] = [4]float64{p1.X, p1.Y, p2.X, p2.Y}
	}

	sort.Slice(rows, func(i, j int) bool { return rowLess(rows[i], rows[j]) })

	unique := rows[:1]
	for _, r := range rows[1:] {
		if r == unique[len(unique)-1] {
			duplicates++
			continue
		}
		unique = append(unique, r)
	}

	points1 = make([]Point2d, len(unique))
	points2 = make([]Point2d, len(unique))
	for i, r := range unique {
		points1[i] = Point2d{X: r[0], Y: r[1]}
		points2[i] = Point2d{X: r[2], Y: r[3]}
	}
	return points1, points2, duplicates
}

func rowLess(a, b [4]float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
