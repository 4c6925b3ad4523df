// SPDX-License-Identifier: AGPL-3.0-only

package ndarray

import (
	"cmp"
	"math"
	"slices"
)

// CompareNaNLast orders floats ascending with NaNs after every other value,
// including +Inf.
func CompareNaNLast(a, b float64) int {
	switch an, bn := math.IsNaN(a), math.IsNaN(b); {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	return cmp.Compare(a, b)
}

// Sort returns a copy of a sorted ascending along axis, NaNs last.
func (a *Array) Sort(axis int) (*Array, error) {
	nd := len(a.shape)
	ax, err := NormalizeAxis(axis, nd)
	if err != nil {
		return nil, err
	}

	moved, err := a.MoveAxis(ax, nd-1)
	if err != nil {
		return nil, err
	}
	if width := moved.shape[nd-1]; width > 1 {
		for start := 0; start < len(moved.data); start += width {
			slices.SortStableFunc(moved.data[start:start+width], CompareNaNLast)
		}
	}
	return moved.MoveAxis(nd-1, ax)
}

// Lanes returns the number of contiguous lanes along the last axis and the
// length of each lane. A 0-dimensional array is a single lane of length 1.
func (a *Array) Lanes() (count, width int) {
	if len(a.shape) == 0 {
		return 1, 1
	}
	width = a.shape[len(a.shape)-1]
	if width == 0 {
		return 0, 0
	}
	return len(a.data) / width, width
}

// Lane returns the i-th contiguous lane along the last axis. The returned slice
// aliases the array's storage.
func (a *Array) Lane(i int) []float64 {
	_, width := a.Lanes()
	return a.data[i*width : (i+1)*width]
}
