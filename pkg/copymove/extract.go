package copymove

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrExtractorUnavailable is returned by NewExtractor in builds without
// OpenCV (purego or js).
var ErrExtractorUnavailable = errors.New("feature extraction requires the OpenCV build")

// FeatureExtractor detects keypoints and computes their descriptors.
type FeatureExtractor interface {
	Extract(img image.Image) (FeatureSet, error)
	// Metric returns the descriptor distance suited to the extractor.
	Metric() Metric
}

// ExtractorKind selects a local feature algorithm.
type ExtractorKind int

const (
	ExtractorSIFT ExtractorKind = iota
	ExtractorORB
)

func (k ExtractorKind) String() string {
	switch k {
	case ExtractorSIFT:
		return "sift"
	case ExtractorORB:
		return "orb"
	default:
		return "unknown"
	}
}

// ParseExtractorKind returns the extractor kind with the given name.
func ParseExtractorKind(name string) (ExtractorKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sift":
		return ExtractorSIFT, nil
	case "orb":
		return ExtractorORB, nil
	default:
		return 0, fmt.Errorf("%w: unknown extractor %q", ErrInvalidParams, name)
	}
}
