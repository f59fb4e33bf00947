package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	cm "copymove/pkg/copymove"
)

// Config holds detector settings read from the environment.
type Config struct {
	Extractor string
	Metric    string

	K                      int
	Ratio                  float64
	MinSeparation          float64
	Linkage                string
	InconsistencyThreshold float64
	InconsistencyDepth     int
	NoiseClusterSize       int
}

// Load reads the given env files, or an optional .env when none are given,
// then COPYMOVE_* environment variables. Unset variables keep the detector
// defaults. Only a missing default .env is tolerated.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	d := cm.NewDetectorParams()
	cfg := &Config{
		Extractor: getEnv("COPYMOVE_EXTRACTOR", "sift"),
		Metric:    getEnv("COPYMOVE_METRIC", ""),
		Linkage:   getEnv("COPYMOVE_LINKAGE", d.Linkage.String()),
	}

	var err error
	if cfg.K, err = getEnvInt("COPYMOVE_K", d.K); err != nil {
		return nil, err
	}
	if cfg.Ratio, err = getEnvFloat("COPYMOVE_RATIO", d.Ratio); err != nil {
		return nil, err
	}
	if cfg.MinSeparation, err = getEnvFloat("COPYMOVE_MIN_SEPARATION", d.MinSeparation); err != nil {
		return nil, err
	}
	if cfg.InconsistencyThreshold, err = getEnvFloat("COPYMOVE_THRESHOLD", d.InconsistencyThreshold); err != nil {
		return nil, err
	}
	if cfg.InconsistencyDepth, err = getEnvInt("COPYMOVE_DEPTH", d.InconsistencyDepth); err != nil {
		return nil, err
	}
	if cfg.NoiseClusterSize, err = getEnvInt("COPYMOVE_NOISE_CLUSTER_SIZE", d.NoiseClusterSize); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DetectorParams converts the configuration into validated detector params.
// An empty Metric falls back to fallback.
func (c *Config) DetectorParams(fallback cm.Metric) (*cm.DetectorParams, error) {
	p := cm.NewDetectorParams()
	p.K = c.K
	p.Ratio = c.Ratio
	p.MinSeparation = c.MinSeparation
	p.InconsistencyThreshold = c.InconsistencyThreshold
	p.InconsistencyDepth = c.InconsistencyDepth
	p.NoiseClusterSize = c.NoiseClusterSize

	linkage, err := cm.ParseLinkageMethod(c.Linkage)
	if err != nil {
		return nil, err
	}
	p.Linkage = linkage

	p.Metric = fallback
	if c.Metric != "" {
		if p.Metric, err = cm.ParseMetric(c.Metric); err != nil {
			return nil, err
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
