// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	reasonInvalidArgument = "invalid_argument"
	reasonTooManySamples  = "too_many_samples"
	reasonCanceled        = "canceled"
	reasonOther           = "other"
)

type metrics struct {
	estimations         *prometheus.CounterVec
	failures            *prometheus.CounterVec
	maskedProbabilities prometheus.Counter
	nanSlices           *prometheus.CounterVec
	duration            *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		estimations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "quantile_estimations_total",
			Help: "Total number of successful quantile computations.",
		}, []string{"method"}),
		failures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "quantile_estimation_failures_total",
			Help: "Total number of quantile computations that returned an error.",
		}, []string{"reason"}),
		maskedProbabilities: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "quantile_masked_probabilities_total",
			Help: "Total number of requested probabilities outside [0, 1] or NaN, answered with NaN.",
		}),
		nanSlices: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "quantile_nan_slices_total",
			Help: "Total number of sample slices whose quantiles were NaN because of missing values.",
		}, []string{"nan_policy"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quantile_estimation_duration_seconds",
			Help:    "Time spent computing quantiles.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"method"}),
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return reasonInvalidArgument
	case errors.Is(err, ErrTooManySamples):
		return reasonTooManySamples
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return reasonCanceled
	default:
		return reasonOther
	}
}
