// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"flag"

	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
)

// Config holds the defaults and limits of an Estimator.
type Config struct {
	DefaultMethod    Method    `yaml:"default_method"`
	DefaultNaNPolicy NaNPolicy `yaml:"default_nan_policy"`

	// MaxConcurrency is the number of goroutines estimating independent slices of
	// a single call. 1 disables parallelism.
	MaxConcurrency int `yaml:"max_concurrency"`
	// ParallelSliceThreshold is the minimum number of slices a call must have
	// before it is split across goroutines.
	ParallelSliceThreshold int `yaml:"parallel_slice_threshold" category:"advanced"`

	// MaxSamples limits the number of sample values a call may materialize after
	// broadcasting. It is checked from the input shapes, before any copy is
	// made. 0 means unlimited.
	MaxSamples int `yaml:"max_samples"`
}

// RegisterFlags registers the Config flags and sets their defaults.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.DefaultMethod = Linear
	f.Var(&cfg.DefaultMethod, "quantile.default-method", "Estimator used when a call doesn't specify one. Supported values: "+quotedList(Methods)+".")
	cfg.DefaultNaNPolicy = Propagate
	f.Var(&cfg.DefaultNaNPolicy, "quantile.default-nan-policy", "How NaNs in the sample are handled when a call doesn't specify a policy. Supported values: "+quotedList(NaNPolicies)+".")
	f.IntVar(&cfg.MaxConcurrency, "quantile.max-concurrency", 1, "Maximum number of goroutines estimating the slices of a single call. 1 disables parallelism.")
	f.IntVar(&cfg.ParallelSliceThreshold, "quantile.parallel-slice-threshold", 256, "Minimum number of independent slices a call must have before it is estimated in parallel.")
	f.IntVar(&cfg.MaxSamples, "quantile.max-samples", 0, "Maximum number of sample values a single call may materialize after broadcasting. 0 to disable.")
}

// Validate the config.
func (cfg *Config) Validate() error {
	if !cfg.DefaultMethod.IsValid() {
		return errors.Errorf("invalid default method %q", cfg.DefaultMethod)
	}
	if !cfg.DefaultNaNPolicy.IsValid() {
		return errors.Errorf("invalid default nan policy %q", cfg.DefaultNaNPolicy)
	}
	if cfg.MaxConcurrency < 1 {
		return errors.New("max concurrency must be at least 1")
	}
	if cfg.ParallelSliceThreshold < 1 {
		return errors.New("parallel slice threshold must be at least 1")
	}
	if cfg.MaxSamples < 0 {
		return errors.New("max samples must not be negative")
	}
	return nil
}

// DefaultConfig returns a Config with every flag default applied.
func DefaultConfig() Config {
	var cfg Config
	flagext.DefaultValues(&cfg)
	return cfg
}
