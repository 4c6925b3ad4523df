// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"math"

	"go.uber.org/atomic"
	"gonum.org/v1/gonum/mathext"

	"github.com/grafana/quantile/pkg/floats"
	"github.com/grafana/quantile/pkg/util/pool"
)

const maxPooledWeights = 1 << 20

var weightsPool = pool.NewBucketedPool(maxPooledWeights, func(size int) []float64 {
	return make([]float64, 0, size)
})

// betaCDF is the regularized lower incomplete beta function I_x(a, b), the CDF
// of Beta(a, b). a == 0 and b == 0 are the point-mass limits at 0 and 1.
func betaCDF(x, a, b float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	case a == 0:
		return 1
	case b == 0:
		return 0
	}
	return mathext.RegIncBeta(a, b, x)
}

// harrellDavisWeights fills w with the weight of each of the len(w) order
// statistics for probability p over n observations (F. E. Harrell and C. E.
// Davis, "A new distribution-free quantile estimator", Biometrika 69(3), 1982).
// Order statistics beyond n get a zero weight. It returns the number of NaN
// weights that were replaced by zero.
func harrellDavisWeights(p, n float64, w []float64) int {
	a := p * (n + 1)
	b := (1 - p) * (n + 1)

	replaced := 0
	prev := betaCDF(0, a, b)
	for k := range w {
		next := betaCDF(float64(k+1)/n, a, b)
		w[k] = next - prev
		if math.IsNaN(w[k]) {
			w[k] = 0
			replaced++
		}
		prev = next
	}
	return replaced
}

// harrellDavis computes one quantile per probability in ps as the Beta-weighted
// combination of every value of the sorted lane y, writing the results to out.
// nanWeights counts weights that had to be zeroed.
func harrellDavis(y []float64, n float64, ps, out []float64, nanWeights *atomic.Int64) {
	w := weightsPool.Get(len(y))[:len(y)]
	defer weightsPool.Put(w)

	for i, p := range ps {
		if replaced := harrellDavisWeights(p, n, w); replaced > 0 {
			nanWeights.Add(int64(replaced))
		}
		out[i] = floats.WeightedSum(w, y)
	}
}
