// Package config handles loading and validating the config.toml configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/varga-lab/threatscope/internal/entropy"
	"github.com/varga-lab/threatscope/internal/learner"
	"github.com/varga-lab/threatscope/internal/primitive"
)

// Config is the top-level configuration.
type Config struct {
	Learner    LearnerConfig         `toml:"learner"`
	Output     OutputConfig          `toml:"output"`
	Scenarios  map[string]bool       `toml:"scenarios"`
	Thresholds map[string]TierConfig `toml:"thresholds"`
}

// LearnerConfig bounds the L* query loop.
type LearnerConfig struct {
	// MaxIterations caps hypothesis-refinement rounds per learning run.
	MaxIterations int `toml:"max_iterations"`
	// SampleSize is the held-out trace count for accuracy scoring.
	SampleSize int `toml:"sample_size"`
	// Seed drives held-out sampling; fixed so runs are reproducible.
	Seed int64 `toml:"seed"`
}

// OutputConfig configures output behavior.
type OutputConfig struct {
	Dir         string `toml:"dir"`
	OpenBrowser bool   `toml:"open_browser"`
	KeepRaw     bool   `toml:"keep_raw"`
}

// TierConfig is the on-disk shape of one capability tier's thresholds.
// Zero-valued fields fall back to the built-in table for that tier.
type TierConfig struct {
	Medium         float64 `toml:"medium"`
	High           float64 `toml:"high"`
	Critical       float64 `toml:"critical"`
	CriticalCutoff float64 `toml:"critical_cutoff"`
	BandMin        float64 `toml:"band_min"`
	BandMax        float64 `toml:"band_max"`
	MinDistinct    int     `toml:"min_distinct"`
}

// Default returns the built-in configuration used when no config file
// is present.
func Default() *Config {
	return &Config{
		Learner: LearnerConfig{
			MaxIterations: learner.DefaultMaxIterations,
			SampleSize:    learner.DefaultSampleSize,
			Seed:          1,
		},
		Output: OutputConfig{
			Dir:     "output",
			KeepRaw: true,
		},
		Scenarios: make(map[string]bool),
	}
}

// Load reads a config.toml file and returns a validated Config. A
// missing file is not an error: the analyzer is fully self-contained
// and runs on the built-in defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// Environment variable overrides
	if dir := os.Getenv("THREATSCOPE_OUTPUT_DIR"); dir != "" {
		cfg.Output.Dir = dir
	}
	if seed := os.Getenv("THREATSCOPE_SEED"); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("THREATSCOPE_SEED: %w", err)
		}
		cfg.Learner.Seed = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks bounds and the merged threshold table.
func (c *Config) Validate() error {
	if c.Learner.MaxIterations < 0 {
		return fmt.Errorf("learner.max_iterations must not be negative")
	}
	if c.Learner.SampleSize < 0 {
		return fmt.Errorf("learner.sample_size must not be negative")
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}

	for name := range c.Thresholds {
		if _, err := primitive.ParseAPTLevel(name); err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
	}

	merged, err := c.EntropyThresholds()
	if err != nil {
		return err
	}
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	return nil
}

// EntropyThresholds merges the configured tier overrides over the
// built-in table and returns the result.
func (c *Config) EntropyThresholds() (entropy.Thresholds, error) {
	merged := entropy.DefaultThresholds()
	for name, tc := range c.Thresholds {
		level, err := primitive.ParseAPTLevel(name)
		if err != nil {
			return nil, fmt.Errorf("thresholds: %w", err)
		}
		tier := merged[level]
		if tc.Medium != 0 {
			tier.Medium = tc.Medium
		}
		if tc.High != 0 {
			tier.High = tc.High
		}
		if tc.Critical != 0 {
			tier.Critical = tc.Critical
		}
		if tc.CriticalCutoff != 0 {
			tier.CriticalCutoff = tc.CriticalCutoff
		}
		if tc.BandMin != 0 {
			tier.BandMin = tc.BandMin
		}
		if tc.BandMax != 0 {
			tier.BandMax = tc.BandMax
		}
		if tc.MinDistinct != 0 {
			tier.MinDistinct = tc.MinDistinct
		}
		merged[level] = tier
	}
	return merged, nil
}
