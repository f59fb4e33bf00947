//go:build purego || js

package copymove

// NewExtractor always fails without OpenCV; supply features with
// ReadFeatureSet instead.
func NewExtractor(kind ExtractorKind) (FeatureExtractor, error) {
	return nil, ErrExtractorUnavailable
}
