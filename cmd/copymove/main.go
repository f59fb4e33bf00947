package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"copymove/internal/config"
	cm "copymove/pkg/copymove"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	imagePath    string
	featuresPath string
	overlayPath  string
	reportPath   string
	debugDir     string
	envFile      string
	nativeIndex  bool
	verbose      bool
}

func run(args []string) error {
	var opts options
	fs := flag.NewFlagSet("copymove", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: copymove [flags] [<image>]\n")
		fs.PrintDefaults()
	}

	defaults := cm.NewDetectorParams()
	fs.StringVar(&opts.featuresPath, "features", "", "read keypoints and descriptors from a JSON file instead of extracting them")
	fs.StringVar(&opts.overlayPath, "overlay", "", "write the match overlay JPEG to this path (needs <image>)")
	fs.StringVar(&opts.reportPath, "json", "", "write a JSON report to this path")
	fs.StringVar(&opts.debugDir, "debug-dir", "", "write intermediate stage outputs to this existing directory")
	fs.StringVar(&opts.envFile, "env", "", "load settings from this env file instead of .env")
	fs.BoolVar(&opts.nativeIndex, "native-matcher", false, "use the OpenCV brute-force matcher for neighbour search")
	fs.BoolVar(&opts.verbose, "v", false, "print per-stage details")
	extractor := fs.String("extractor", "sift", "feature extractor: sift or orb")
	metric := fs.String("metric", "", "descriptor metric: l2 or hamming (default: extractor's)")
	k := fs.Int("k", defaults.K, "neighbours searched per keypoint, self included")
	ratio := fs.Float64("ratio", defaults.Ratio, "ratio-test threshold")
	minSep := fs.Float64("min-separation", defaults.MinSeparation, "minimum spatial distance of a match in pixels")
	linkage := fs.String("linkage", defaults.Linkage.String(), "linkage method: ward, single, complete, average, weighted, centroid, median")
	threshold := fs.Float64("threshold", defaults.InconsistencyThreshold, "inconsistency threshold")
	depth := fs.Int("depth", defaults.InconsistencyDepth, "inconsistency depth")
	noise := fs.Int("noise-size", defaults.NoiseClusterSize, "clusters with at most this many points are noise")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		opts.imagePath = fs.Arg(0)
	}
	if opts.imagePath == "" && opts.featuresPath == "" {
		fs.Usage()
		return fmt.Errorf("an image or -features file is required")
	}

	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "extractor":
			cfg.Extractor = *extractor
		case "metric":
			cfg.Metric = *metric
		case "k":
			cfg.K = *k
		case "ratio":
			cfg.Ratio = *ratio
		case "min-separation":
			cfg.MinSeparation = *minSep
		case "linkage":
			cfg.Linkage = *linkage
		case "threshold":
			cfg.InconsistencyThreshold = *threshold
		case "depth":
			cfg.InconsistencyDepth = *depth
		case "noise-size":
			cfg.NoiseClusterSize = *noise
		}
	})

	var img image.Image
	if opts.imagePath != "" {
		fmt.Printf("Loading: %s\n", opts.imagePath)
		if img, err = loadImage(opts.imagePath); err != nil {
			return err
		}
	}

	features, defaultMetric, err := loadFeatures(opts, cfg, img)
	if err != nil {
		return err
	}

	params, err := cfg.DetectorParams(defaultMetric)
	if err != nil {
		return err
	}
	if params.IndexBuilder, err = indexBuilder(opts.nativeIndex); err != nil {
		return err
	}
	if opts.verbose {
		fmt.Printf("Params: %s\n", params)
	}

	if opts.debugDir != "" {
		if err := writeStages(opts.debugDir, features, params); err != nil {
			return err
		}
	}

	startTime := time.Now()
	result, err := cm.Detect(features, params)
	if err != nil {
		return fmt.Errorf("detecting forgery: %w", err)
	}
	elapsed := time.Since(startTime)

	printResult(result, len(features), elapsed, opts.verbose)

	if opts.overlayPath != "" {
		if img == nil {
			return fmt.Errorf("-overlay needs the source image")
		}
		if err := cm.RenderOverlay(img, result, opts.overlayPath); err != nil {
			return fmt.Errorf("rendering overlay: %w", err)
		}
		fmt.Printf("Overlay written to %s\n", opts.overlayPath)
	}

	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, opts, result); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", opts.reportPath)
	}

	return nil
}

func loadFeatures(opts options, cfg *config.Config, img image.Image) (cm.FeatureSet, cm.Metric, error) {
	if opts.featuresPath != "" {
		fd, err := cm.ReadFeatureSet(opts.featuresPath)
		if err != nil {
			return nil, nil, err
		}
		metric, err := cm.ParseMetric(fd.Metric)
		if err != nil {
			return nil, nil, err
		}
		fmt.Printf("Features loaded: %d keypoints, dimension %d\n", len(fd.Features), fd.Features.Dim())
		return fd.Features, metric, nil
	}

	kind, err := cm.ParseExtractorKind(cfg.Extractor)
	if err != nil {
		return nil, nil, err
	}
	extractor, err := cm.NewExtractor(kind)
	if err != nil {
		return nil, nil, err
	}

	extractStart := time.Now()
	features, err := extractor.Extract(img)
	if err != nil {
		return nil, nil, fmt.Errorf("extracting features: %w", err)
	}
	fmt.Printf("Extracted %d %s keypoints in %.1fs\n", len(features), kind, time.Since(extractStart).Seconds())
	return features, extractor.Metric(), nil
}

func printResult(result *cm.DetectorResult, keypoints int, elapsed time.Duration, verbose bool) {
	m := result.Metrics
	fmt.Println()
	fmt.Printf("=== Copy-Move Detection Results (%.1fs) ===\n", elapsed.Seconds())
	fmt.Printf("  Keypoints:        %d\n", keypoints)
	fmt.Printf("  Match candidates: %d\n", m.Candidates)
	fmt.Printf("  Unique pairs:     %d\n", m.Pairs)
	if m.ClusteringRan {
		fmt.Printf("  Clusters:         %d (%d noise)\n", m.Clusters, m.NoiseClusters)
		fmt.Printf("  Retained pairs:   %d\n", m.RetainedPairs)
	}
	if verbose {
		fmt.Printf("  Ratio accepted:   %d (self %d, too close %d)\n", m.RatioAccepted, m.SelfMatches, m.TooClose)
		fmt.Printf("  Duplicate pairs:  %d\n", m.DuplicatePairs)
	}
	if result.Tampered {
		fmt.Println()
		fmt.Println("  Tampering detected")
		for i, r := range result.Regions {
			fmt.Printf("  [region %d, clusters %v] %3d pairs  (%.0f,%.0f)-(%.0f,%.0f) <=> (%.0f,%.0f)-(%.0f,%.0f)\n",
				i+1, r.Labels, r.Pairs,
				r.Side1.Min.X(), r.Side1.Min.Y(), r.Side1.Max.X(), r.Side1.Max.Y(),
				r.Side2.Min.X(), r.Side2.Min.Y(), r.Side2.Max.X(), r.Side2.Max.Y())
		}
	} else {
		fmt.Println("  No tampering was found")
	}
	fmt.Println("==============================")
}

type reportPair struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Label1 int     `json:"label1"`
	Label2 int     `json:"label2"`
}

type report struct {
	RunID    string              `json:"run_id"`
	Image    string              `json:"image,omitempty"`
	Features string              `json:"features,omitempty"`
	Tampered bool                `json:"tampered"`
	Pairs    []reportPair        `json:"pairs"`
	Regions  []cm.Region         `json:"regions"`
	Metrics  *cm.DetectorMetrics `json:"metrics"`
}

func writeReport(path string, opts options, result *cm.DetectorResult) error {
	rep := report{
		RunID:    uuid.NewString(),
		Image:    opts.imagePath,
		Features: opts.featuresPath,
		Tampered: result.Tampered,
		Pairs:    make([]reportPair, len(result.Points1)),
		Regions:  result.Regions,
		Metrics:  result.Metrics,
	}
	m := len(result.Points1)
	for i := 0; i < m; i++ {
		rep.Pairs[i] = reportPair{
			X1: result.Points1[i].X, Y1: result.Points1[i].Y,
			X2: result.Points2[i].X, Y2: result.Points2[i].Y,
			Label1: result.Labels[i], Label2: result.Labels[m+i],
		}
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// writeStages dumps the matcher and pair-collector outputs as text files.
func writeStages(dir string, features cm.FeatureSet, params *cm.DetectorParams) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("debug dir: %w", err)
	}

	candidates, err := cm.Match(features, params)
	if err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	var text []byte
	for _, c := range candidates {
		text = fmt.Appendf(text, "%d %d %f\n", c.QueryIndex, c.NeighborIndex, c.Distance)
	}
	if err := os.WriteFile(filepath.Join(dir, "01-candidates.txt"), text, 0644); err != nil {
		return err
	}

	points1, points2 := cm.CollectPairs(features, candidates)
	text = text[:0]
	for i := range points1 {
		text = fmt.Appendf(text, "%f %f %f %f\n", points1[i].X, points1[i].Y, points2[i].X, points2[i].Y)
	}
	return os.WriteFile(filepath.Join(dir, "02-pairs.txt"), text, 0644)
}
