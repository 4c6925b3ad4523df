// SPDX-License-Identifier: AGPL-3.0-only

package ndarray

import (
	"github.com/pkg/errors"
)

// Reshape returns a copy of a with a new shape holding the same number of elements.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if product(shape) != len(a.data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot reshape array of size %d into shape %v", len(a.data), shape)
	}
	return &Array{shape: cloneInts(shape), data: a.Values(), dtype: a.dtype}, nil
}

// Ravel returns a 1-dimensional copy of a.
func (a *Array) Ravel() *Array {
	return &Array{shape: []int{len(a.data)}, data: a.Values(), dtype: a.dtype}
}

// PadLeft returns a copy of a with singleton axes prepended until it has ndim
// dimensions. Arrays that already have ndim or more dimensions are copied as is.
func (a *Array) PadLeft(ndim int) *Array {
	out := a.Clone()
	out.shape = padShape(a.shape, ndim)
	return out
}

// Squeeze removes axis, which must have length 1.
func (a *Array) Squeeze(axis int) (*Array, error) {
	ax, err := NormalizeAxis(axis, len(a.shape))
	if err != nil {
		return nil, err
	}
	if a.shape[ax] != 1 {
		return nil, errors.Errorf("cannot squeeze axis %d with length %d", axis, a.shape[ax])
	}
	shape := make([]int, 0, len(a.shape)-1)
	shape = append(shape, a.shape[:ax]...)
	shape = append(shape, a.shape[ax+1:]...)
	return &Array{shape: shape, data: a.Values(), dtype: a.dtype}, nil
}

// Transpose returns a copy of a with its axes permuted: axis i of the result is
// axis perm[i] of a.
func (a *Array) Transpose(perm ...int) (*Array, error) {
	nd := len(a.shape)
	if len(perm) != nd {
		return nil, errors.Errorf("permutation %v doesn't match array of dimension %d", perm, nd)
	}
	seen := make([]bool, nd)
	for _, p := range perm {
		if p < 0 || p >= nd || seen[p] {
			return nil, errors.Errorf("invalid permutation %v", perm)
		}
		seen[p] = true
	}

	srcStrides := strides(a.shape)
	shape := make([]int, nd)
	stride := make([]int, nd)
	for i, p := range perm {
		shape[i] = a.shape[p]
		stride[i] = srcStrides[p]
	}

	out := &Array{shape: shape, data: make([]float64, len(a.data)), dtype: a.dtype}
	if len(out.data) == 0 {
		return out, nil
	}

	idx := make([]int, nd)
	src := 0
	for dst := range out.data {
		out.data[dst] = a.data[src]

		// Advance the multi-index like an odometer, tracking the source offset.
		for d := nd - 1; d >= 0; d-- {
			idx[d]++
			src += stride[d]
			if idx[d] < shape[d] {
				break
			}
			src -= stride[d] * shape[d]
			idx[d] = 0
		}
	}
	return out, nil
}

// MoveAxis returns a copy of a with axis src moved to position dst, keeping the
// relative order of the other axes.
func (a *Array) MoveAxis(src, dst int) (*Array, error) {
	nd := len(a.shape)
	s, err := NormalizeAxis(src, nd)
	if err != nil {
		return nil, err
	}
	d, err := NormalizeAxis(dst, nd)
	if err != nil {
		return nil, err
	}

	perm := make([]int, 0, nd)
	for i := 0; i < nd; i++ {
		if i != s {
			perm = append(perm, i)
		}
	}
	perm = append(perm[:d], append([]int{s}, perm[d:]...)...)
	return a.Transpose(perm...)
}

func strides(shape []int) []int {
	out := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = acc
		acc *= shape[i]
	}
	return out
}
