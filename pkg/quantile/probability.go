// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"math"

	"github.com/grafana/quantile/pkg/ndarray"
)

// placeholderProbability replaces masked probabilities while estimating, so
// indices stay in range and Beta parameters stay positive.
const placeholderProbability = 0.5

// isMaskedProbability reports whether the quantile for p is undefined.
func isMaskedProbability(p float64) bool {
	return p > 1 || p < 0 || math.IsNaN(p)
}

// sanitizeProbabilities returns p with every value outside [0, 1] or NaN
// replaced by a placeholder, and the mask of replaced positions. p itself is
// never modified.
func sanitizeProbabilities(p *ndarray.Array) (*ndarray.Array, []bool, int) {
	mask := make([]bool, p.Size())
	masked := 0
	for i, v := range p.Data() {
		if isMaskedProbability(v) {
			mask[i] = true
			masked++
		}
	}
	if masked == 0 {
		return p, mask, 0
	}

	p = p.Clone()
	data := p.Data()
	for i, m := range mask {
		if m {
			data[i] = placeholderProbability
		}
	}
	return p, mask, masked
}
