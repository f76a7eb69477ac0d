// Package tensor - read-only strided views over flat model output buffers.
package tensor

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidLayout is returned when a shape/stride pair does not describe the buffer.
	ErrInvalidLayout = errors.New("invalid tensor layout")
	// ErrRowOutOfRange is returned by checked accessors for rows >= RowCount().
	ErrRowOutOfRange = errors.New("row out of range")
	// ErrOffsetOutOfRange is returned by checked accessors for offsets >= RowStride().
	ErrOffsetOutOfRange = errors.New("offset out of range")
)

// Scalar is the set of element types a View can wrap.
type Scalar interface {
	~float32 | ~float64 |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Reader is the narrow row-oriented access used by the detection decoder.
type Reader interface {
	// RowCount returns the size of the outermost dimension.
	RowCount() int
	// RowStride returns the number of scalars spanned by one row.
	RowStride() int
	// ElementAt returns element off of row as float64. No bounds validation.
	ElementAt(row, off int) float64
	// CopyRow returns a fresh copy of RowStride() values, or nil when row is out of range.
	CopyRow(row int) []float64
}

// View is a read-only strided view over a caller-owned buffer.
//
// The buffer is borrowed: the view never writes to it and the caller keeps
// ownership. Shape and strides are copied at construction.
type View[T Scalar] struct {
	data    []T
	shape   []int
	strides []int
}

// New wraps data with the given shape and per-dimension strides.
//
// Arguments:
//   - data: The flat buffer, borrowed for the lifetime of the view.
//   - shape: Dimension extents, outermost first.
//   - strides: Element offsets per dimension. strides[0] is the row stride.
//
// Returns:
//   - The view, or ErrInvalidLayout if the layout does not fit the buffer.
func New[T Scalar](data []T, shape []int, strides []int) (*View[T], error) {
	if len(shape) == 0 {
		return nil, errors.Wrap(ErrInvalidLayout, "shape must have at least one dimension")
	}
	if len(shape) != len(strides) {
		return nil, errors.Wrapf(ErrInvalidLayout, "shape rank %d != strides rank %d", len(shape), len(strides))
	}
	for i, d := range shape {
		if d < 0 {
			return nil, errors.Wrapf(ErrInvalidLayout, "dimension %d is negative (%d)", i, d)
		}
	}
	if strides[0] <= 0 {
		return nil, errors.Wrapf(ErrInvalidLayout, "row stride must be positive, got %d", strides[0])
	}
	// Divide rather than multiply so huge extents cannot wrap around.
	if shape[0] > len(data)/strides[0] {
		return nil, errors.Wrapf(ErrInvalidLayout, "buffer has %d elements, too few for shape %v with row stride %d",
			len(data), shape, strides[0])
	}

	return &View[T]{
		data:    data,
		shape:   append([]int(nil), shape...),
		strides: append([]int(nil), strides...),
	}, nil
}

// Contiguous wraps data as a dense row-major tensor of the given shape.
func Contiguous[T Scalar](data []T, shape ...int) (*View[T], error) {
	return New(data, shape, RowMajorStrides(shape))
}

// RowMajorStrides returns the strides of a dense row-major layout for shape.
// A zero-sized inner dimension still yields a row stride of at least 1.
func RowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		if shape[i] > 0 {
			acc *= shape[i]
		}
	}
	return strides
}

// RowCount returns shape[0]. A nil view has no rows.
func (v *View[T]) RowCount() int {
	if v == nil {
		return 0
	}
	return v.shape[0]
}

// RowStride returns strides[0].
func (v *View[T]) RowStride() int {
	if v == nil {
		return 0
	}
	return v.strides[0]
}

// Shape returns a copy of the view's shape.
func (v *View[T]) Shape() []int {
	if v == nil {
		return nil
	}
	return append([]int(nil), v.shape...)
}

// Strides returns a copy of the view's strides.
func (v *View[T]) Strides() []int {
	if v == nil {
		return nil
	}
	return append([]int(nil), v.strides...)
}

// ElementAt returns the scalar at row*RowStride()+off widened to float64.
//
// Callers guarantee row < RowCount() and off < RowStride(); use Element for
// a checked read.
func (v *View[T]) ElementAt(row, off int) float64 {
	return float64(v.data[row*v.strides[0]+off])
}

// Element is the bounds-checked form of ElementAt.
func (v *View[T]) Element(row, off int) (float64, error) {
	if row < 0 || row >= v.RowCount() {
		return 0, errors.Wrapf(ErrRowOutOfRange, "row %d of %d", row, v.RowCount())
	}
	if off < 0 || off >= v.RowStride() {
		return 0, errors.Wrapf(ErrOffsetOutOfRange, "offset %d of row stride %d", off, v.RowStride())
	}
	return v.ElementAt(row, off), nil
}

// CopyRow returns a contiguous float64 copy of row.
func (v *View[T]) CopyRow(row int) []float64 {
	raw := v.RawRow(row)
	if raw == nil {
		return nil
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		out[i] = float64(x)
	}
	return out
}

// RawRow returns a copy of row in the view's element type.
func (v *View[T]) RawRow(row int) []T {
	if row < 0 || row >= v.RowCount() {
		return nil
	}
	start := row * v.strides[0]
	out := make([]T, v.strides[0])
	copy(out, v.data[start:start+v.strides[0]])
	return out
}
