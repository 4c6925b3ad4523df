// SPDX-License-Identifier: AGPL-3.0-only

package ndarray

import (
	"github.com/pkg/errors"
)

// BroadcastTo returns a copy of a expanded to shape. a is first left-padded with
// singleton axes; every axis of a must then either match shape or have length 1.
func (a *Array) BroadcastTo(shape ...int) (*Array, error) {
	if len(shape) < len(a.shape) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot broadcast shape %v to %v", a.shape, shape)
	}
	src := a.PadLeft(len(shape))
	for i, d := range src.shape {
		if d != shape[i] && d != 1 {
			return nil, errors.Wrapf(ErrShapeMismatch, "cannot broadcast shape %v to %v", a.shape, shape)
		}
	}

	nd := len(shape)
	stride := strides(src.shape)
	for i, d := range src.shape {
		if d == 1 {
			stride[i] = 0
		}
	}

	out := &Array{shape: cloneInts(shape), data: make([]float64, product(shape)), dtype: a.dtype}
	if len(out.data) == 0 {
		return out, nil
	}

	idx := make([]int, nd)
	off := 0
	for dst := range out.data {
		out.data[dst] = src.data[off]

		for d := nd - 1; d >= 0; d-- {
			idx[d]++
			off += stride[d]
			if idx[d] < shape[d] {
				break
			}
			off -= stride[d] * shape[d]
			idx[d] = 0
		}
	}
	return out, nil
}

// BroadcastShapesExceptAxis returns the shapes BroadcastExceptAxis would give two
// arrays shaped a and b, without materializing anything.
func BroadcastShapesExceptAxis(a, b []int, axis int) ([]int, []int, error) {
	nd := max(len(a), len(b))
	ax, err := NormalizeAxis(axis, nd)
	if err != nil {
		return nil, nil, err
	}

	shapeA, shapeB := padShape(a, nd), padShape(b, nd)
	for i := 0; i < nd; i++ {
		if i == ax {
			continue
		}
		switch {
		case shapeA[i] == shapeB[i]:
		case shapeA[i] == 1:
			shapeA[i] = shapeB[i]
		case shapeB[i] == 1:
			shapeB[i] = shapeA[i]
		default:
			return nil, nil, errors.Wrapf(ErrShapeMismatch, "shapes %v and %v are not broadcastable on axis %d", a, b, i)
		}
	}
	return shapeA, shapeB, nil
}

// BroadcastExceptAxis broadcasts a and b against each other on every axis except
// axis, which keeps its own length in each operand. Both results have the same
// number of dimensions: the larger of the two inputs. axis is interpreted
// against that number of dimensions.
func BroadcastExceptAxis(a, b *Array, axis int) (*Array, *Array, error) {
	shapeA, shapeB, err := BroadcastShapesExceptAxis(a.shape, b.shape, axis)
	if err != nil {
		return nil, nil, err
	}

	pa, err := a.BroadcastTo(shapeA...)
	if err != nil {
		return nil, nil, err
	}
	pb, err := b.BroadcastTo(shapeB...)
	if err != nil {
		return nil, nil, err
	}
	return pa, pb, nil
}

// Size returns the number of elements of an array shaped shape.
func Size(shape []int) int {
	return product(shape)
}

func padShape(shape []int, ndim int) []int {
	missing := ndim - len(shape)
	if missing <= 0 {
		return cloneInts(shape)
	}
	out := make([]int, missing, ndim)
	for i := range out {
		out[i] = 1
	}
	return append(out, shape...)
}
