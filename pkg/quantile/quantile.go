// SPDX-License-Identifier: AGPL-3.0-only

// Package quantile estimates empirical quantiles of a sample along an axis,
// using one of the nine Hyndman & Fan sample quantile definitions or the
// Harrell-Davis estimator, with configurable handling of missing values.
package quantile

import (
	"context"
	"math"

	"github.com/go-kit/log"

	"github.com/grafana/quantile/pkg/ndarray"
)

var defaultEstimator = func() *Estimator {
	e, err := NewEstimator(DefaultConfig(), log.NewNopLogger(), nil)
	if err != nil {
		panic(err)
	}
	return e
}()

// Quantile computes quantiles with the default configuration. See Estimator.Quantile.
func Quantile(x, p *ndarray.Array, opts Options) (*ndarray.Array, error) {
	return defaultEstimator.Quantile(context.Background(), x, p, opts)
}

// Of returns the p-quantile of values using method, propagating NaNs. An empty
// method means Linear. values is not modified. The result is NaN if values is
// empty or contains NaN, or if p is outside [0, 1].
func Of(values []float64, p float64, method Method) (float64, error) {
	x, err := ndarray.From(values)
	if err != nil {
		return math.NaN(), err
	}
	res, err := Quantile(x, ndarray.Scalar(p), Options{Method: method})
	if err != nil {
		return math.NaN(), err
	}
	return res.Item()
}
