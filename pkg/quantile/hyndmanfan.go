// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"math"
)

// hyndmanFanOffset returns m, the method-dependent offset of the plotting
// position p*n + m (R. J. Hyndman and Y. Fan, "Sample quantiles in statistical
// packages", The American Statistician 50(4), 1996).
func hyndmanFanOffset(method Method, p float64) float64 {
	switch method {
	case InvertedCDF, AveragedInvertedCDF, InterpolatedInvertedCDF:
		return 0
	case ClosestObservation:
		return -0.5
	case Hazen:
		return 0.5
	case Weibull:
		return p
	case Linear:
		return 1 - p
	case MedianUnbiased:
		return p/3 + 1.0/3
	case NormalUnbiased:
		return p/4 + 3.0/8
	default:
		panic("unexpected quantile method " + string(method))
	}
}

// hyndmanFanIndex returns the two 0-based order statistics to blend and the
// weight g of the upper one, for probability p over n observations.
func hyndmanFanIndex(method Method, p, n float64) (lo, hi int, g float64) {
	jg := p*n + hyndmanFanOffset(method, p) - 1
	j := math.Floor(jg)
	frac := jg - j

	g = frac
	switch method {
	case InvertedCDF:
		g = indicator(frac > 0)
	case AveragedInvertedCDF:
		g = (1 + indicator(frac > 0)) / 2
	case ClosestObservation:
		// Ties go to the even order statistic: with 0-based j, an odd j is an
		// even 1-based rank.
		g = 1 - indicator(frac == 0 && math.Mod(j, 2) != 0)
	}
	if method.discontinuous() && jg < 0 {
		g = 0
	}

	// Both neighbours are clipped on their own: a position left of the first
	// order statistic must not blend in the second one.
	lo = int(clamp(j, 0, n-1))
	hi = int(clamp(j+1, 0, n-1))
	return lo, hi, g
}

// hyndmanFan computes one quantile per probability in ps from the sorted lane y,
// of which the first n values are observations, writing the results to out.
func hyndmanFan(method Method, y []float64, n float64, ps, out []float64) {
	for i, p := range ps {
		lo, hi, g := hyndmanFanIndex(method, p, n)
		out[i] = (1-g)*y[lo] + g*y[hi]
	}
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
