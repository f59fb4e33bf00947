//go:build !purego && !js

package copymove

import (
	"fmt"

	"gocv.io/x/gocv"
)

// BFMatcherIndex delegates the self join to OpenCV's brute-force matcher.
// Only the L2 and Hamming metrics are supported.
type BFMatcherIndex struct {
	descriptors []Descriptor
	norm        gocv.NormType
	matType     gocv.MatType
}

// NewBFMatcherIndex builds a BFMatcherIndex. It satisfies IndexBuilder.
func NewBFMatcherIndex(descriptors []Descriptor, m Metric) (Index, error) {
	switch m {
	case nil, L2:
		return &BFMatcherIndex{descriptors: descriptors, norm: gocv.NormL2, matType: gocv.MatTypeCV32F}, nil
	case Hamming:
		return &BFMatcherIndex{descriptors: descriptors, norm: gocv.NormHamming, matType: gocv.MatTypeCV8U}, nil
	default:
		return nil, fmt.Errorf("%w: BFMatcher does not support metric %s", ErrInvalidParams, metricName(m))
	}
}

func (idx *BFMatcherIndex) SelfJoin(k int) ([][]Neighbor, error) {
	n := len(idx.descriptors)
	if n == 0 {
		return nil, nil
	}
	dim := len(idx.descriptors[0])
	if dim == 0 {
		// OpenCV rejects empty descriptor rows; every distance is zero.
		bf, _ := NewBruteForceIndex(idx.descriptors, L2)
		return bf.SelfJoin(k)
	}

	desc := gocv.NewMatWithSize(n, dim, idx.matType)
	defer desc.Close()
	for r, d := range idx.descriptors {
		for c, v := range d {
			if idx.matType == gocv.MatTypeCV8U {
				desc.SetUCharAt(r, c, uint8(int(v)&0xff))
			} else {
				desc.SetFloatAt(r, c, float32(v))
			}
		}
	}

	matcher := gocv.NewBFMatcherWithParams(idx.norm, false)
	defer matcher.Close()

	if k > n {
		k = n
	}
	matches := matcher.KnnMatch(desc, desc, k)
	if len(matches) != n {
		return nil, fmt.Errorf("BFMatcher returned %d match lists for %d descriptors", len(matches), n)
	}

	out := make([][]Neighbor, n)
	for i, ms := range matches {
		ns := make([]Neighbor, len(ms))
		for j, m := range ms {
			ns[j] = Neighbor{Index: m.TrainIdx, Distance: m.Distance}
		}
		sortNeighbors(ns)
		out[i] = ns
	}
	return out, nil
}
