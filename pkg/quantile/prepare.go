// SPDX-License-Identifier: AGPL-3.0-only

package quantile

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/grafana/quantile/pkg/ndarray"
)

// prepared is the sample and the probabilities broadcast against each other and
// moved so that the computation axis is the last one.
type prepared struct {
	// y is the sorted sample, computation axis last.
	y *ndarray.Array
	// p holds the probabilities, computation axis last.
	p *ndarray.Array

	// dtype is the promoted result dtype.
	dtype ndarray.DType
	// axis is the non-negative position of the computation axis in the padded
	// result, or 0 when flattening.
	axis int
	// ndim is the larger rank of the two inputs before any flattening.
	ndim     int
	flatten  bool
	keepDims bool
	// containsNaN is set if the original sample contains any NaN.
	containsNaN bool
}

// prepare validates the inputs and normalizes them onto a trailing computation
// axis. maxSamples, when positive, bounds the size of the broadcast sample and
// is checked before anything is copied.
func prepare(x, p *ndarray.Array, opts Options, maxSamples int) (prepared, error) {
	if x == nil || p == nil {
		return prepared{}, invalidArgument("`x` and `p` must not be nil")
	}
	if !x.DType().IsReal() {
		return prepared{}, invalidArgument("`x` must have real dtype")
	}
	if !p.DType().IsFloat() {
		return prepared{}, invalidArgument("`p` must have real floating dtype")
	}

	out := prepared{
		ndim:    max(x.Ndim(), p.Ndim()),
		flatten: opts.Flatten,
	}

	xShape, pShape := x.Shape(), p.Shape()
	if opts.Flatten {
		xShape, pShape = []int{x.Size()}, []int{p.Size()}
	} else {
		if opts.Axis >= out.ndim || opts.Axis < -out.ndim {
			return prepared{}, invalidArgument("`axis` is not compatible with the shapes of the inputs")
		}
		out.axis = opts.Axis
		if out.axis < 0 {
			out.axis += out.ndim
		}
	}

	if err := checkSamples(xShape, pShape, out.axis, maxSamples); err != nil {
		return prepared{}, err
	}

	if opts.Flatten {
		x, p = x.Ravel(), p.Ravel()
	} else {
		x, p = x.PadLeft(out.ndim), p.PadLeft(out.ndim)
	}

	out.containsNaN = floats.HasNaN(x.Data())
	if out.containsNaN && opts.NaNPolicy == Raise {
		return prepared{}, ErrNaNInput
	}

	out.dtype = ndarray.ResultType(x.DType(), p.DType())

	// A sample with no data along the axis behaves exactly like one slice of
	// length 1 holding NaN, under every NaN policy.
	if shape := x.Shape(); shape[out.axis] == 0 {
		shape[out.axis] = 1
		x = ndarray.Full(math.NaN(), shape...)
	}

	y, err := x.Sort(out.axis)
	if err != nil {
		return prepared{}, err
	}

	y, p, err = ndarray.BroadcastExceptAxis(y, p, out.axis)
	if err != nil {
		return prepared{}, broadcastError(err)
	}

	pLen, err := p.Dim(out.axis)
	if err != nil {
		return prepared{}, err
	}
	switch opts.KeepDims {
	case KeepDimsFalse:
		if pLen != 1 {
			return prepared{}, invalidArgument("`keepdims` may be false only if the length of `p` along `axis` is 1")
		}
	case KeepDimsTrue:
		out.keepDims = true
	default:
		out.keepDims = pLen != 1
	}

	if out.y, err = y.MoveAxis(out.axis, -1); err != nil {
		return prepared{}, err
	}
	if out.p, err = p.MoveAxis(out.axis, -1); err != nil {
		return prepared{}, err
	}
	return out, nil
}

// checkSamples fails with ErrTooManySamples if the sample shaped xShape, once
// broadcast against pShape along axis, would hold more than maxSamples values.
// A zero-length axis counts as the single NaN it is replaced with.
func checkSamples(xShape, pShape []int, axis, maxSamples int) error {
	if maxSamples <= 0 {
		return nil
	}
	nd := max(len(xShape), len(pShape))
	if ax := axis - (nd - len(xShape)); ax >= 0 && ax < len(xShape) && xShape[ax] == 0 {
		xShape = slices.Clone(xShape)
		xShape[ax] = 1
	}

	yShape, _, err := ndarray.BroadcastShapesExceptAxis(xShape, pShape, axis)
	if err != nil {
		return broadcastError(err)
	}
	if samples := ndarray.Size(yShape); samples > maxSamples {
		return errors.Wrapf(ErrTooManySamples, "the computation needs %d samples, limit is %d", samples, maxSamples)
	}
	return nil
}

func broadcastError(err error) error {
	if errors.Is(err, ndarray.ErrShapeMismatch) {
		return invalidArgument("`x` and `p` are not broadcastable: %v", err)
	}
	return err
}
