package tensor

import (
	"github.com/pkg/errors"
	gorgonia "gorgonia.org/tensor"
)

// FromDense wraps a gorgonia dense tensor without copying its backing array.
//
// Views (slices, transposes) are materialized first so that strides[0]
// addresses the returned backing data directly. Column-major tensors are
// rejected since their first stride is not a row stride.
func FromDense(d *gorgonia.Dense) (Reader, error) {
	if d == nil {
		return nil, errors.Wrap(ErrInvalidLayout, "nil dense tensor")
	}
	if d.IsView() {
		m, ok := d.Materialize().(*gorgonia.Dense)
		if !ok {
			return nil, errors.Wrap(ErrInvalidLayout, "materialized view is not dense")
		}
		d = m
	}
	if d.DataOrder().IsColMajor() {
		return nil, errors.Wrap(ErrInvalidLayout, "column-major tensors are not supported")
	}

	shape := []int(d.Shape())
	strides := d.Strides()
	if len(shape) == 0 || d.IsScalar() {
		return nil, errors.Wrap(ErrInvalidLayout, "scalar tensors have no rows")
	}

	switch data := d.Data().(type) {
	case []float32:
		v, err := New(data, shape, strides)
		return asReader(v, err)
	case []float64:
		v, err := New(data, shape, strides)
		return asReader(v, err)
	case []int32:
		v, err := New(data, shape, strides)
		return asReader(v, err)
	case []int64:
		v, err := New(data, shape, strides)
		return asReader(v, err)
	case []int:
		v, err := New(data, shape, strides)
		return asReader(v, err)
	case []uint8:
		v, err := New(data, shape, strides)
		return asReader(v, err)
	default:
		return nil, errors.Wrapf(ErrInvalidLayout, "unsupported dtype %v", d.Dtype())
	}
}
