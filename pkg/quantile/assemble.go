// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"math"

	"github.com/grafana/quantile/pkg/ndarray"
)

// assemble turns the raw estimates, shaped like the prepared probabilities, into
// the caller-facing result: masked probabilities become NaN, the computation
// axis goes back to its original position and is dropped unless kept.
// res is owned by the caller and is modified in place.
func assemble(res *ndarray.Array, pMask []bool, prep prepared) (*ndarray.Array, error) {
	data := res.Data()
	for i, masked := range pMask {
		if masked {
			data[i] = math.NaN()
		}
	}

	var err error
	axis := prep.axis
	if prep.flatten && prep.keepDims {
		shape := make([]int, 0, prep.ndim)
		for i := 0; i < prep.ndim-1; i++ {
			shape = append(shape, 1)
		}
		shape = append(shape, res.Shape()...)
		if res, err = res.Reshape(shape...); err != nil {
			return nil, err
		}
		axis = -1
	}

	if res, err = res.MoveAxis(-1, axis); err != nil {
		return nil, err
	}

	if !prep.keepDims {
		if res, err = res.Squeeze(axis); err != nil {
			return nil, err
		}
	}

	return res.AsType(prep.dtype), nil
}
