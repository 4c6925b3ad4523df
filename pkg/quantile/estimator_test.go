// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/grafana/quantile/pkg/ndarray"
	"github.com/grafana/quantile/pkg/util/test"
)

func newTestEstimator(t *testing.T, cfg Config, reg prometheus.Registerer) *Estimator {
	t.Helper()
	e, err := NewEstimator(cfg, log.NewNopLogger(), reg)
	require.NoError(t, err)
	return e
}

func TestNewEstimator_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrency = 0

	_, err := NewEstimator(cfg, nil, nil)
	require.ErrorContains(t, err, "max concurrency")
}

func TestEstimator_DefaultsFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultMethod = InvertedCDF
	cfg.DefaultNaNPolicy = Omit
	e := newTestEstimator(t, cfg, nil)

	x := ndarray.MustFrom([]float64{4, nan, 1, 3, 2})
	res, err := e.Quantile(context.Background(), x, ndarray.Scalar(0.4), Options{})
	require.NoError(t, err)
	v, err := res.Item()
	require.NoError(t, err)
	// Four observations left: 0.4*4 - 1 = 0.6, so the inverted CDF steps up to the second one.
	require.Equal(t, 2.0, v)

	// Explicit options win over the configured defaults.
	res, err = e.Quantile(context.Background(), x, ndarray.Scalar(0.4), Options{Method: Linear, NaNPolicy: Propagate})
	require.NoError(t, err)
	v, err = res.Item()
	require.NoError(t, err)
	require.True(t, math.IsNaN(v), "expected NaN, got %v", v)
}

func TestEstimator_Metrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	e := newTestEstimator(t, DefaultConfig(), reg)
	ctx := context.Background()

	_, err := e.Quantile(ctx, ndarray.MustFrom([]float64{1, 2, 3, nan}), ndarray.MustFrom([]float64{0.5, 2}), Options{})
	require.NoError(t, err)

	_, err = e.Quantile(ctx, ndarray.MustFrom([]float64{1, 2, nan}), ndarray.Scalar(0.5), Options{NaNPolicy: Raise})
	require.ErrorIs(t, err, ErrNaNInput)

	_, err = e.Quantile(ctx, ndarray.MustFrom([]float64{1, 2, 3}), ndarray.MustFrom([]float64{0.1, 0.2, 2}), Options{Method: Hazen})
	require.NoError(t, err)

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
		# HELP quantile_estimations_total Total number of successful quantile computations.
		# TYPE quantile_estimations_total counter
		quantile_estimations_total{method="hazen"} 1
		quantile_estimations_total{method="linear"} 1
		# HELP quantile_estimation_failures_total Total number of quantile computations that returned an error.
		# TYPE quantile_estimation_failures_total counter
		quantile_estimation_failures_total{reason="invalid_argument"} 1
		# HELP quantile_masked_probabilities_total Total number of requested probabilities outside [0, 1] or NaN, answered with NaN.
		# TYPE quantile_masked_probabilities_total counter
		quantile_masked_probabilities_total 2
		# HELP quantile_nan_slices_total Total number of sample slices whose quantiles were NaN because of missing values.
		# TYPE quantile_nan_slices_total counter
		quantile_nan_slices_total{nan_policy="propagate"} 1
	`),
		"quantile_estimations_total",
		"quantile_estimation_failures_total",
		"quantile_masked_probabilities_total",
		"quantile_nan_slices_total",
	))

	require.Equal(t, 2, testutil.CollectAndCount(e.metrics.duration, "quantile_estimation_duration_seconds"))
}

func TestEstimator_Parallel(t *testing.T) {
	test.VerifyNoLeak(t)

	rnd := rand.New(rand.NewSource(4))
	const lanes, width = 300, 7
	values := make([]float64, lanes*width)
	for i := range values {
		values[i] = rnd.NormFloat64()
		if i%37 == 0 {
			values[i] = nan
		}
	}
	x := ndarray.MustFrom(values, lanes, width)
	p := ndarray.MustFrom([]float64{0, 0.1, 0.5, 0.9, 1}, 1, 5)

	sequential := newTestEstimator(t, DefaultConfig(), nil)

	cfg := DefaultConfig()
	cfg.MaxConcurrency = 4
	cfg.ParallelSliceThreshold = 16
	parallel := newTestEstimator(t, cfg, nil)

	for _, method := range Methods {
		for _, policy := range []NaNPolicy{Propagate, Omit} {
			t.Run(string(method)+"/"+string(policy), func(t *testing.T) {
				opts := Options{Method: method, Axis: -1, NaNPolicy: policy}

				expected, err := sequential.Quantile(context.Background(), x, p, opts)
				require.NoError(t, err)
				actual, err := parallel.Quantile(context.Background(), x, p, opts)
				require.NoError(t, err)

				requireArray(t, expected.Shape(), expected.Values(), actual)
				require.Equal(t, []int{lanes, 5}, actual.Shape())
			})
		}
	}
}

func TestEstimator_Canceled(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	e := newTestEstimator(t, DefaultConfig(), reg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Quantile(ctx, rows(), ndarray.Scalar(0.5), Options{Axis: -1})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1.0, testutil.ToFloat64(e.metrics.failures.WithLabelValues(reasonCanceled)))
}

func TestEstimator_MaxSamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSamples = 6
	e := newTestEstimator(t, cfg, prometheus.NewPedanticRegistry())

	_, err := e.Quantile(context.Background(), ndarray.MustFrom([]float64{1, 2, 3, 4, 5, 6}), ndarray.Scalar(0.5), Options{})
	require.NoError(t, err)

	// A single row, but broadcasting the probabilities materializes it twice.
	_, err = e.Quantile(context.Background(), ndarray.MustFrom([]float64{1, 2, 3, 4}, 1, 4), ndarray.MustFrom([]float64{0.5, 0.7}, 2, 1), Options{Axis: -1})
	require.ErrorIs(t, err, ErrTooManySamples)
	require.NotErrorIs(t, err, ErrInvalidArgument)
	require.Equal(t, 1.0, testutil.ToFloat64(e.metrics.failures.WithLabelValues(reasonTooManySamples)))
}

func TestFailureReason(t *testing.T) {
	require.Equal(t, reasonInvalidArgument, failureReason(ErrNaNInput))
	require.Equal(t, reasonInvalidArgument, failureReason(invalidArgument("bad axis")))
	require.Equal(t, reasonTooManySamples, failureReason(ErrTooManySamples))
	require.Equal(t, reasonCanceled, failureReason(context.DeadlineExceeded))
	require.Equal(t, reasonOther, failureReason(ndarray.ErrShapeMismatch))
}

func TestCheckSamples(t *testing.T) {
	for name, tc := range map[string]struct {
		xShape, pShape []int
		axis, limit    int
		expectedErr    error
	}{
		"unlimited": {
			xShape: []int{1 << 30, 1 << 30}, pShape: []int{1}, axis: 1, limit: 0,
		},
		"within the limit": {
			xShape: []int{2, 5}, pShape: []int{1}, axis: 1, limit: 10,
		},
		"broadcast shape exceeds the limit before anything is allocated": {
			xShape: []int{1, 1 << 30}, pShape: []int{1 << 30, 1}, axis: 1, limit: 1 << 20,
			expectedErr: ErrTooManySamples,
		},
		"zero-length axis counts as a single value": {
			xShape: []int{3, 0}, pShape: []int{1}, axis: 1, limit: 3,
		},
		"zero-length axis on a padded sample": {
			xShape: []int{0}, pShape: []int{4, 1}, axis: 1, limit: 3,
			expectedErr: ErrTooManySamples,
		},
		"incompatible shapes": {
			xShape: []int{2, 5}, pShape: []int{3, 1}, axis: 1, limit: 100,
			expectedErr: ErrInvalidArgument,
		},
	} {
		t.Run(name, func(t *testing.T) {
			err := checkSamples(tc.xShape, tc.pShape, tc.axis, tc.limit)
			if tc.expectedErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestEstimator_MaxSamplesRejectsBeforeSorting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSamples = 1000
	e := newTestEstimator(t, cfg, nil)

	// 64 values along the axis broadcast against 4096 rows of probabilities
	// would need 262144 samples.
	x := ndarray.Full(1, 1, 64)
	p := ndarray.Full(0.5, 4096, 1)
	_, err := e.Quantile(context.Background(), x, p, Options{Axis: -1})
	require.ErrorIs(t, err, ErrTooManySamples)
	require.ErrorContains(t, err, "262144 samples")
}
