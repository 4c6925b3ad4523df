// SPDX-License-Identifier: AGPL-3.0-only
// Provenance-includes-location: https://github.com/prometheus/prometheus/blob/main/promql/functions.go
// Provenance-includes-license: Apache-2.0
// Provenance-includes-copyright: The Prometheus Authors

package floats

import "math"

// KahanSumInc adds inc to sum using Neumaier's variant of Kahan summation.
// c is the running compensation; the final value is sum + c.
func KahanSumInc(inc, sum, c float64) (newSum, newC float64) {
	t := sum + inc
	switch {
	case math.IsInf(t, 0):
		c = 0

	// Using Neumaier improvement, swap if next term larger than sum.
	case math.Abs(sum) >= math.Abs(inc):
		c += (sum - t) + inc
	default:
		c += (inc - t) + sum
	}
	return t, c
}

// WeightedSum returns the compensated sum of w[i]*v[i] over the shorter of the
// two slices. Terms with a zero weight are skipped, so an infinite value with
// no weight doesn't turn the result into NaN.
func WeightedSum(w, v []float64) float64 {
	var sum, c float64
	for i, n := 0, min(len(w), len(v)); i < n; i++ {
		if w[i] == 0 {
			continue
		}
		sum, c = KahanSumInc(w[i]*v[i], sum, c)
	}
	return sum + c
}
