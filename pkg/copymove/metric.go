package copymove

import (
	"fmt"

	"github.com/steakknife/hamming"
	"gonum.org/v1/gonum/floats"
)

// Metric measures the dissimilarity of two descriptors of equal dimension.
type Metric interface {
	Distance(a, b Descriptor) float64
}

var (
	// L2 is the Euclidean distance, suited to float descriptors such as SIFT.
	L2 Metric = l2Metric{}

	// Hamming counts differing bits between descriptors whose components are
	// packed bytes (0..255), as produced by binary extractors such as ORB.
	Hamming Metric = hammingMetric{}
)

type l2Metric struct{}

func (l2Metric) Distance(a, b Descriptor) float64 {
	return floats.Distance(a, b, 2)
}

func (l2Metric) String() string { return "l2" }

type hammingMetric struct{}

func (hammingMetric) Distance(a, b Descriptor) float64 {
	return float64(hamming.Bytes(packBytes(a), packBytes(b)))
}

func (hammingMetric) String() string { return "hamming" }

func packBytes(d Descriptor) []byte {
	out := make([]byte, len(d))
	for i, v := range d {
		out[i] = byte(int(v) & 0xff)
	}
	return out
}

// ParseMetric returns the metric with the given name ("l2" or "hamming").
func ParseMetric(name string) (Metric, error) {
	switch name {
	case "", "l2":
		return L2, nil
	case "hamming":
		return Hamming, nil
	default:
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidParams, name)
	}
}

func metricName(m Metric) string {
	if s, ok := m.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", m)
}
