package copymove

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type featureFile struct {
	Width     int           `json:"width,omitempty"`
	Height    int           `json:"height,omitempty"`
	Metric    string        `json:"metric,omitempty"`
	Keypoints []featureJSON `json:"keypoints"`
}

type featureJSON struct {
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Descriptor []float64 `json:"descriptor"`
}

// FeatureData is a feature set together with the image metadata stored
// alongside it.
type FeatureData struct {
	Width    int
	Height   int
	Metric   string
	Features FeatureSet
}

// DecodeFeatureSet reads the JSON feature format:
//
//	{"width": 640, "height": 480, "metric": "l2",
//	 "keypoints": [{"x": 1.5, "y": 2, "descriptor": [0, 1, ...]}, ...]}
//
// width, height and metric are optional.
func DecodeFeatureSet(r io.Reader) (*FeatureData, error) {
	var f featureFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding features: %w", err)
	}

	fs := make(FeatureSet, len(f.Keypoints))
	for i, kp := range f.Keypoints {
		fs[i] = Keypoint{
			Index:      i,
			Location:   Point2d{X: kp.X, Y: kp.Y},
			Descriptor: Descriptor(kp.Descriptor),
		}
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return &FeatureData{Width: f.Width, Height: f.Height, Metric: f.Metric, Features: fs}, nil
}

// ReadFeatureSet reads a JSON feature file from disk.
func ReadFeatureSet(path string) (*FeatureData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening features: %w", err)
	}
	defer f.Close()
	return DecodeFeatureSet(f)
}

// EncodeFeatureSet writes fd in the format read by DecodeFeatureSet.
func EncodeFeatureSet(w io.Writer, fd *FeatureData) error {
	f := featureFile{
		Width:     fd.Width,
		Height:    fd.Height,
		Metric:    fd.Metric,
		Keypoints: make([]featureJSON, len(fd.Features)),
	}
	for i, kp := range fd.Features {
		desc := kp.Descriptor
		if desc == nil {
			desc = Descriptor{}
		}
		f.Keypoints[i] = featureJSON{X: kp.Location.X, Y: kp.Location.Y, Descriptor: desc}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(f)
}
