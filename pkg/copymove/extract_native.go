//go:build !purego && !js

package copymove

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GoCVExtractor computes SIFT or ORB features with OpenCV.
type GoCVExtractor struct {
	Kind ExtractorKind
}

// NewExtractor returns an OpenCV-backed extractor of the given kind.
func NewExtractor(kind ExtractorKind) (FeatureExtractor, error) {
	switch kind {
	case ExtractorSIFT, ExtractorORB:
		return &GoCVExtractor{Kind: kind}, nil
	default:
		return nil, fmt.Errorf("%w: unknown extractor %d", ErrInvalidParams, int(kind))
	}
}

func (e *GoCVExtractor) Metric() Metric {
	if e.Kind == ExtractorORB {
		return Hamming
	}
	return L2
}

// Extract converts img to grayscale and computes its features.
func (e *GoCVExtractor) Extract(img image.Image) (FeatureSet, error) {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return e.ExtractMat(gray)
}

// ExtractMat computes features of an 8-bit grayscale Mat.
func (e *GoCVExtractor) ExtractMat(gray gocv.Mat) (FeatureSet, error) {
	if gray.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	mask := gocv.NewMat()
	defer mask.Close()

	var kps []gocv.KeyPoint
	var desc gocv.Mat
	switch e.Kind {
	case ExtractorORB:
		orb := gocv.NewORB()
		defer orb.Close()
		kps, desc = orb.DetectAndCompute(gray, mask)
	default:
		sift := gocv.NewSIFT()
		defer sift.Close()
		kps, desc = sift.DetectAndCompute(gray, mask)
	}
	defer desc.Close()

	if len(kps) == 0 {
		return FeatureSet{}, nil
	}
	if desc.Rows() != len(kps) {
		return nil, fmt.Errorf("got %d descriptors for %d keypoints", desc.Rows(), len(kps))
	}

	dim := desc.Cols()
	binary := desc.Type() == gocv.MatTypeCV8U
	fs := make(FeatureSet, len(kps))
	for r, kp := range kps {
		d := make(Descriptor, dim)
		for c := 0; c < dim; c++ {
			if binary {
				d[c] = float64(desc.GetUCharAt(r, c))
			} else {
				d[c] = float64(desc.GetFloatAt(r, c))
			}
		}
		fs[r] = Keypoint{Index: r, Location: Point2d{X: kp.X, Y: kp.Y}, Descriptor: d}
	}
	return fs, nil
}
