package copymove

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

var (
	// ErrInvalidParams is returned when detector parameters are out of range.
	ErrInvalidParams = errors.New("invalid detector params")

	// ErrInvalidFeatureSet is returned when a feature set is malformed.
	ErrInvalidFeatureSet = errors.New("invalid feature set")
)

// LinkageMethod selects how inter-cluster distances are updated during
// agglomerative clustering.
type LinkageMethod int

const (
	LinkageWard LinkageMethod = iota
	LinkageSingle
	LinkageComplete
	LinkageAverage
	LinkageWeighted
	LinkageCentroid
	LinkageMedian
)

var linkageNames = map[LinkageMethod]string{
	LinkageWard:     "ward",
	LinkageSingle:   "single",
	LinkageComplete: "complete",
	LinkageAverage:  "average",
	LinkageWeighted: "weighted",
	LinkageCentroid: "centroid",
	LinkageMedian:   "median",
}

func (m LinkageMethod) String() string {
	if name, ok := linkageNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseLinkageMethod returns the linkage method with the given name.
func ParseLinkageMethod(name string) (LinkageMethod, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, n := range linkageNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown linkage method %q", ErrInvalidParams, name)
}

// Point2d represents a 2D point with float64 coordinates in image pixel space.
type Point2d struct {
	X, Y float64
}

// Distance returns the Euclidean distance between p and q.
func (p Point2d) Distance(q Point2d) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point2d) orb() orb.Point { return orb.Point{p.X, p.Y} }

// Descriptor is a fixed-length local appearance vector.
type Descriptor []float64

// Keypoint is a feature location with its descriptor, as produced by an
// external extractor.
type Keypoint struct {
	Index      int
	Location   Point2d
	Descriptor Descriptor
}

// FeatureSet is the ordered list of keypoints of one image.
type FeatureSet []Keypoint

// NewFeatureSet builds a FeatureSet from parallel location and descriptor
// slices, assigning indices in order.
func NewFeatureSet(locations []Point2d, descriptors []Descriptor) (FeatureSet, error) {
	if len(locations) != len(descriptors) {
		return nil, fmt.Errorf("%w: %d locations vs %d descriptors", ErrInvalidFeatureSet, len(locations), len(descriptors))
	}
	fs := make(FeatureSet, len(locations))
	for i := range locations {
		fs[i] = Keypoint{Index: i, Location: locations[i], Descriptor: descriptors[i]}
	}
	return fs, nil
}

// Dim returns the descriptor dimension, or 0 for an empty set.
func (fs FeatureSet) Dim() int {
	if len(fs) == 0 {
		return 0
	}
	return len(fs[0].Descriptor)
}

// Validate checks that every keypoint carries its position as Index and
// that all descriptors share one dimension.
func (fs FeatureSet) Validate() error {
	dim := fs.Dim()
	for i, kp := range fs {
		if kp.Index != i {
			return fmt.Errorf("%w: keypoint %d has index %d", ErrInvalidFeatureSet, i, kp.Index)
		}
		if len(kp.Descriptor) != dim {
			return fmt.Errorf("%w: keypoint %d has descriptor dimension %d, want %d", ErrInvalidFeatureSet, i, len(kp.Descriptor), dim)
		}
		if math.IsNaN(kp.Location.X) || math.IsNaN(kp.Location.Y) {
			return fmt.Errorf("%w: keypoint %d has NaN location", ErrInvalidFeatureSet, i)
		}
	}
	return nil
}

// MatchCandidate is a query keypoint matched to one of its descriptor-space
// neighbours.
type MatchCandidate struct {
	QueryIndex    int
	NeighborIndex int
	Distance      float64
}

// PointPair states that location P1 appears to duplicate location P2.
type PointPair struct {
	P1, P2 Point2d
}

// DetectorParams contains all tunables of the detection pipeline.
type DetectorParams struct {
	// K is the number of descriptor neighbours searched per keypoint,
	// including the keypoint itself.
	K int
	// Ratio is the ratio-test threshold between consecutive neighbour distances.
	Ratio float64
	// MinSeparation is the spatial distance in pixels a match must exceed.
	MinSeparation float64
	// Metric is the descriptor distance. Nil means L2.
	Metric Metric
	// IndexBuilder creates the neighbour index. Nil means NewBruteForceIndex.
	IndexBuilder IndexBuilder

	Linkage                LinkageMethod
	InconsistencyThreshold float64
	InconsistencyDepth     int
	// NoiseClusterSize is the largest cluster membership, counted on the
	// combined point array, that is still treated as noise.
	NoiseClusterSize int
}

// NewDetectorParams creates a DetectorParams with default values.
func NewDetectorParams() *DetectorParams {
	return &DetectorParams{
		K:                      10,
		Ratio:                  0.5,
		MinSeparation:          10,
		Metric:                 L2,
		Linkage:                LinkageWard,
		InconsistencyThreshold: 2.2,
		InconsistencyDepth:     4,
		NoiseClusterSize:       3,
	}
}

// Validate reports parameters that cannot drive the pipeline.
func (p *DetectorParams) Validate() error {
	if p.K < 2 {
		return fmt.Errorf("%w: K must be at least 2, got %d", ErrInvalidParams, p.K)
	}
	if p.Ratio <= 0 || p.Ratio > 1 {
		return fmt.Errorf("%w: ratio must be in (0, 1], got %f", ErrInvalidParams, p.Ratio)
	}
	if p.MinSeparation < 0 {
		return fmt.Errorf("%w: min separation must not be negative, got %f", ErrInvalidParams, p.MinSeparation)
	}
	if _, ok := linkageNames[p.Linkage]; !ok {
		return fmt.Errorf("%w: unknown linkage method %d", ErrInvalidParams, int(p.Linkage))
	}
	if p.InconsistencyThreshold < 0 {
		return fmt.Errorf("%w: inconsistency threshold must not be negative, got %f", ErrInvalidParams, p.InconsistencyThreshold)
	}
	if p.InconsistencyDepth < 1 {
		return fmt.Errorf("%w: inconsistency depth must be positive, got %d", ErrInvalidParams, p.InconsistencyDepth)
	}
	if p.NoiseClusterSize < 0 {
		return fmt.Errorf("%w: noise cluster size must not be negative, got %d", ErrInvalidParams, p.NoiseClusterSize)
	}
	return nil
}

func (p *DetectorParams) metric() Metric {
	if p.Metric == nil {
		return L2
	}
	return p.Metric
}

func (p *DetectorParams) String() string {
	return fmt.Sprintf("{K=%d, Ratio=%f, MinSeparation=%f, Metric=%s, Linkage=%s, Threshold=%f, Depth=%d, NoiseClusterSize=%d}",
		p.K, p.Ratio, p.MinSeparation, metricName(p.metric()), p.Linkage, p.InconsistencyThreshold, p.InconsistencyDepth, p.NoiseClusterSize)
}

// DetectorMetrics tracks how many items each pipeline stage filtered out.
type DetectorMetrics struct {
	Keypoints        int
	RatioAccepted    int
	SelfMatches      int
	TooClose         int
	Candidates       int
	DuplicatePairs   int
	Pairs            int
	ClusteringRan    bool
	Clusters         int
	NoiseClusters    int
	RemovedPairs     int
	RetainedPairs    int
	RetainedClusters int
}

func (m *DetectorMetrics) String() string {
	return fmt.Sprintf("{Keypoints=%d, RatioAccepted=%d, SelfMatches=%d, TooClose=%d, Candidates=%d, DuplicatePairs=%d, Pairs=%d, Clusters=%d, NoiseClusters=%d, RemovedPairs=%d, RetainedPairs=%d}",
		m.Keypoints, m.RatioAccepted, m.SelfMatches, m.TooClose, m.Candidates, m.DuplicatePairs, m.Pairs, m.Clusters, m.NoiseClusters, m.RemovedPairs, m.RetainedPairs)
}

// Region is one duplicated region: the retained pairs whose cluster labels
// are linked to each other through pairs, in either direction. Each pair is
// oriented so that Side1 bounds the lexicographically smaller point (by x,
// then y) and Side2 bounds its partner.
type Region struct {
	Labels []int
	Pairs  int
	Side1  orb.Bound
	Side2  orb.Bound
}

// DetectorResult is the output of the detection pipeline.
type DetectorResult struct {
	// Tampered is true when duplicated-region evidence survived filtering.
	Tampered bool
	Points1  []Point2d
	Points2  []Point2d
	// Labels holds one cluster label per point of the combined array
	// Points1 ++ Points2.
	Labels  []int
	Regions []Region
	Metrics *DetectorMetrics
}

// SideLabels returns the cluster labels of the side-1 points, used for
// colouring the overlay.
func (r *DetectorResult) SideLabels() []int {
	return r.Labels[:len(r.Points1)]
}

// Pairs returns the retained point pairs.
func (r *DetectorResult) Pairs() []PointPair {
	pairs := make([]PointPair, len(r.Points1))
	for i := range r.Points1 {
		pairs[i] = PointPair{P1: r.Points1[i], P2: r.Points2[i]}
	}
	return pairs
}
