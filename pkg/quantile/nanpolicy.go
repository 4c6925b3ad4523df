// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/grafana/quantile/pkg/ndarray"
)

// laneCounts describes each slice of the sample along the computation axis.
type laneCounts struct {
	// n is the number of observations each slice contributes.
	n []float64
	// nanOut marks slices whose every quantile is NaN.
	nanOut []bool
	// nanOutCount is the number of set entries in nanOut.
	nanOutCount int
}

func notNaN(v float64) bool { return !math.IsNaN(v) }

// applyNaNPolicy computes the effective count of every slice of y and returns
// the sample the estimators must use. y must be sorted with NaNs last along its
// last axis. y is never modified: a copy is made before any slice is rewritten.
func applyNaNPolicy(y *ndarray.Array, policy NaNPolicy, method Method, containsNaN bool) (*ndarray.Array, laneCounts) {
	lanes, width := y.Lanes()
	counts := laneCounts{
		n:      make([]float64, lanes),
		nanOut: make([]bool, lanes),
	}
	for i := range counts.n {
		counts.n[i] = float64(width)
	}

	// Zero-length samples were replaced by NaN slices after the NaN check, so
	// look again rather than trusting containsNaN alone.
	if !containsNaN && !floats.HasNaN(y.Data()) {
		return y, counts
	}

	residual := false
	for i := 0; i < lanes; i++ {
		lane := y.Lane(i)
		if !floats.HasNaN(lane) {
			continue
		}

		if policy == Omit {
			n := floats.Count(notNaN, lane)
			if n > 0 {
				counts.n[i] = float64(n)
				residual = true
				continue
			}
			// The result is overwritten with NaN anyway; keep the full length so
			// the index arithmetic stays well-defined.
		}
		counts.nanOut[i] = true
		counts.nanOutCount++
	}

	if counts.nanOutCount == 0 && !(residual && method == HarrellDavis) {
		return y, counts
	}

	y = y.Clone()
	for i := 0; i < lanes; i++ {
		lane := y.Lane(i)
		switch {
		case counts.nanOut[i]:
			for j := range lane {
				lane[j] = math.NaN()
			}
		case method == HarrellDavis:
			// Omitted NaNs get a zero weight, but a single NaN would still poison
			// the weighted sum.
			for j, v := range lane {
				if math.IsNaN(v) {
					lane[j] = 0
				}
			}
		}
	}
	return y, counts
}
