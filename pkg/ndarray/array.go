// SPDX-License-Identifier: AGPL-3.0-only

package ndarray

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// DType is the element type an Array was built from. Values are always stored
// as float64; the dtype only drives promotion and output rounding.
type DType uint8

const (
	Float64 DType = iota
	Float32
	Int64
)

func (d DType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	default:
		return fmt.Sprintf("DType(%d)", uint8(d))
	}
}

// IsFloat reports whether d is a real floating dtype.
func (d DType) IsFloat() bool {
	return d == Float64 || d == Float32
}

// IsReal reports whether d is an integer or real floating dtype.
func (d DType) IsReal() bool {
	return d.IsFloat() || d == Int64
}

// ResultType returns the floating dtype both a and b promote to. Integers
// promote to Float64, and Float32 survives only if both sides are Float32.
func ResultType(a, b DType) DType {
	if a == Float32 && b == Float32 {
		return Float32
	}
	return Float64
}

// Number is the set of Go element types an Array can be built from.
type Number interface {
	constraints.Integer | constraints.Float
}

var (
	// ErrShapeMismatch is returned when two shapes cannot be broadcast together, or
	// when the number of elements doesn't match a requested shape.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrAxisOutOfRange is returned when an axis is outside [-ndim, ndim).
	ErrAxisOutOfRange = errors.New("axis out of range")
)

// Array is a dense, row-major, N-dimensional array of float64 values.
//
// Arrays are values: every operation returns a new Array and never modifies
// its receiver. Use Clone before writing through Data.
type Array struct {
	shape []int
	data  []float64
	dtype DType
}

// New returns a zero-filled Float64 array with the given shape.
func New(shape ...int) *Array {
	return &Array{shape: cloneInts(shape), data: make([]float64, product(shape)), dtype: Float64}
}

// Full returns a Float64 array with the given shape where every element is v.
func Full(v float64, shape ...int) *Array {
	a := New(shape...)
	for i := range a.data {
		a.data[i] = v
	}
	return a
}

// Scalar returns a 0-dimensional Float64 array holding v.
func Scalar(v float64) *Array {
	return &Array{shape: []int{}, data: []float64{v}, dtype: Float64}
}

// From copies data into a new array with the given shape. With no shape, the
// array is 1-dimensional. The dtype is derived from T.
func From[T Number](data []T, shape ...int) (*Array, error) {
	if shape == nil {
		shape = []int{len(data)}
	}
	if product(shape) != len(data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot build array of shape %v from %d elements", shape, len(data))
	}
	for _, d := range shape {
		if d < 0 {
			return nil, errors.Errorf("negative dimension in shape %v", shape)
		}
	}

	a := &Array{shape: cloneInts(shape), data: make([]float64, len(data)), dtype: dtypeOf[T]()}
	for i, v := range data {
		a.data[i] = float64(v)
	}
	return a, nil
}

// MustFrom is like From but panics on error. Intended for literals in tests and examples.
func MustFrom[T Number](data []T, shape ...int) *Array {
	a, err := From(data, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

func dtypeOf[T Number]() DType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		return Int64
	}
}

// Shape returns a copy of the array's shape.
func (a *Array) Shape() []int { return cloneInts(a.shape) }

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.shape) }

// Size returns the number of elements.
func (a *Array) Size() int { return len(a.data) }

// DType returns the dtype the array was built from.
func (a *Array) DType() DType { return a.dtype }

// Dim returns the length of axis, which may be negative.
func (a *Array) Dim(axis int) (int, error) {
	ax, err := NormalizeAxis(axis, len(a.shape))
	if err != nil {
		return 0, err
	}
	return a.shape[ax], nil
}

// Data returns the underlying row-major buffer. Callers must not modify it
// unless they own the array.
func (a *Array) Data() []float64 { return a.data }

// Values returns a copy of the row-major buffer.
func (a *Array) Values() []float64 {
	return append([]float64(nil), a.data...)
}

// Item returns the single value of a 0-dimensional or single-element array.
func (a *Array) Item() (float64, error) {
	if len(a.data) != 1 {
		return math.NaN(), errors.Errorf("can only convert an array of size 1 to a scalar, got size %d", len(a.data))
	}
	return a.data[0], nil
}

// At returns the element at the given index.
func (a *Array) At(idx ...int) float64 {
	return a.data[a.offset(idx)]
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("index %v has %d dimensions, array has %d", idx, len(idx), len(a.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			panic(fmt.Sprintf("index %v out of bounds for shape %v", idx, a.shape))
		}
		off = off*a.shape[i] + v
	}
	return off
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	return &Array{shape: cloneInts(a.shape), data: a.Values(), dtype: a.dtype}
}

// AsType returns a copy converted to dtype. Conversion to Float32 rounds every
// value to float32 precision; conversion to Int64 truncates towards zero.
func (a *Array) AsType(dtype DType) *Array {
	out := a.Clone()
	out.dtype = dtype
	switch dtype {
	case Float32:
		for i, v := range out.data {
			out.data[i] = float64(float32(v))
		}
	case Int64:
		for i, v := range out.data {
			out.data[i] = math.Trunc(v)
		}
	}
	return out
}

func (a *Array) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Array(%s, shape=%v, [", a.dtype, a.shape)
	for i, v := range a.data {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%g", v)
	}
	sb.WriteString("])")
	return sb.String()
}

// NormalizeAxis maps axis in [-ndim, ndim) to [0, ndim).
func NormalizeAxis(axis, ndim int) (int, error) {
	if axis < -ndim || axis >= ndim {
		return 0, errors.Wrapf(ErrAxisOutOfRange, "axis %d for array of dimension %d", axis, ndim)
	}
	if axis < 0 {
		axis += ndim
	}
	return axis, nil
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func cloneInts(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}
