// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/grafana/quantile/pkg/ndarray"
)

// batchesPerWorker controls how finely a parallel call is split, so a slow batch
// doesn't leave the other workers idle.
const batchesPerWorker = 4

// Estimator computes quantiles. It is safe for concurrent use.
type Estimator struct {
	cfg     Config
	logger  log.Logger
	metrics *metrics
}

// NewEstimator returns an Estimator. reg may be nil, in which case no metrics are registered.
func NewEstimator(cfg Config, logger log.Logger, reg prometheus.Registerer) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid quantile estimator config")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Estimator{
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(reg),
	}, nil
}

// Quantile computes the quantiles of x at the probabilities p along opts.Axis.
//
// p must be broadcastable against x on every axis but the computation axis,
// where it holds the probabilities requested for each slice. Probabilities
// outside [0, 1] or NaN produce NaN. The result has the broadcast shape of p;
// the computation axis is dropped when only one probability is requested per
// slice, unless opts.KeepDims says otherwise. A result without dimensions is
// returned as a 0-dimensional array; use Item to get its value.
func (e *Estimator) Quantile(ctx context.Context, x, p *ndarray.Array, opts Options) (_ *ndarray.Array, err error) {
	start := time.Now()
	if opts.Method == "" {
		opts.Method = e.cfg.DefaultMethod
	}
	if opts.NaNPolicy == "" {
		opts.NaNPolicy = e.cfg.DefaultNaNPolicy
	}

	defer func() {
		if err != nil {
			e.metrics.failures.WithLabelValues(failureReason(err)).Inc()
			return
		}
		e.metrics.estimations.WithLabelValues(string(opts.Method)).Inc()
		e.metrics.duration.WithLabelValues(string(opts.Method)).Observe(time.Since(start).Seconds())
	}()

	if err := opts.validate(); err != nil {
		return nil, err
	}

	prep, err := prepare(x, p, opts, e.cfg.MaxSamples)
	if err != nil {
		if errors.Is(err, ErrTooManySamples) {
			level.Warn(e.logger).Log("msg", "rejected quantile computation exceeding the sample limit", "err", err)
		}
		return nil, err
	}

	y, counts := applyNaNPolicy(prep.y, opts.NaNPolicy, opts.Method, prep.containsNaN)
	if counts.nanOutCount > 0 {
		e.metrics.nanSlices.WithLabelValues(string(opts.NaNPolicy)).Add(float64(counts.nanOutCount))
		level.Debug(e.logger).Log("msg", "sample slices have no usable observations, their quantiles are NaN", "slices", counts.nanOutCount, "nan_policy", opts.NaNPolicy)
	}

	probs, pMask, masked := sanitizeProbabilities(prep.p)
	if masked > 0 {
		e.metrics.maskedProbabilities.Add(float64(masked))
		level.Debug(e.logger).Log("msg", "probabilities outside [0, 1] or NaN, their quantiles are NaN", "count", masked)
	}

	res, err := e.estimate(ctx, opts.Method, y, probs, counts)
	if err != nil {
		return nil, err
	}

	return assemble(res, pMask, prep)
}

// estimate runs the estimator for method over every slice. The result has the
// shape of probs.
func (e *Estimator) estimate(ctx context.Context, method Method, y, probs *ndarray.Array, counts laneCounts) (*ndarray.Array, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := ndarray.New(probs.Shape()...)
	lanes, _ := y.Lanes()
	if _, width := probs.Lanes(); lanes == 0 || width == 0 {
		return res, nil
	}

	nanWeights := atomic.NewInt64(0)
	run := func(from, to int) {
		for i := from; i < to; i++ {
			if method == HarrellDavis {
				harrellDavis(y.Lane(i), counts.n[i], probs.Lane(i), res.Lane(i), nanWeights)
			} else {
				hyndmanFan(method, y.Lane(i), counts.n[i], probs.Lane(i), res.Lane(i))
			}
		}
	}

	if e.cfg.MaxConcurrency <= 1 || lanes < e.cfg.ParallelSliceThreshold {
		run(0, lanes)
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.MaxConcurrency)

		batchSize := max(1, lanes/(e.cfg.MaxConcurrency*batchesPerWorker))
		for from := 0; from < lanes; from += batchSize {
			from, to := from, min(from+batchSize, lanes)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				run(from, to)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	if n := nanWeights.Load(); n > 0 {
		level.Debug(e.logger).Log("msg", "replaced NaN Harrell-Davis weights with zero", "weights", n)
	}
	return res, nil
}
