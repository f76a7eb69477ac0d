package tensor

import (
	"math"

	"github.com/arloliu/mebo/endian"
	"github.com/pkg/errors"
)

// DType identifies the element encoding of a raw tensor dump.
type DType string

const (
	// Float32 is a 4-byte IEEE-754 value.
	Float32 DType = "float32"
	// Float64 is an 8-byte IEEE-754 value (CoreML's default for mask outputs).
	Float64 DType = "float64"
	// Int32 is a 4-byte signed integer.
	Int32 DType = "int32"
	// Int64 is an 8-byte signed integer.
	Int64 DType = "int64"
	// Uint8 is a single unsigned byte.
	Uint8 DType = "uint8"
)

// Size returns the encoded width of one element in bytes, or 0 if unknown.
func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Uint8:
		return 1
	default:
		return 0
	}
}

// ByteOrder selects the byte order of a raw dump.
type ByteOrder int

const (
	// LittleEndian is the layout produced by every mainstream inference runtime on x86 and ARM.
	LittleEndian ByteOrder = iota
	// BigEndian is accepted for dumps produced on network-order tooling.
	BigEndian
)

func (o ByteOrder) engine() endian.EndianEngine {
	if o == BigEndian {
		return endian.GetBigEndianEngine()
	}
	return endian.GetLittleEndianEngine()
}

// FromBytes decodes a raw tensor dump into a dense row-major view.
//
// The bytes are decoded into a freshly allocated typed buffer, so the
// returned Reader does not alias raw.
//
// Arguments:
//   - raw: The encoded elements, packed without padding.
//   - dtype: Element encoding.
//   - order: Byte order of multi-byte elements.
//   - shape: Dimension extents; their product must match the element count.
//
// Returns:
//   - A Reader over the decoded values, or ErrInvalidLayout.
func FromBytes(raw []byte, dtype DType, order ByteOrder, shape ...int) (Reader, error) {
	size := dtype.Size()
	if size == 0 {
		return nil, errors.Wrapf(ErrInvalidLayout, "unsupported dtype %q", dtype)
	}
	if len(raw)%size != 0 {
		return nil, errors.Wrapf(ErrInvalidLayout, "%d bytes is not a multiple of %s width %d", len(raw), dtype, size)
	}
	n := len(raw) / size
	if want := elementCount(shape); want != n {
		return nil, errors.Wrapf(ErrInvalidLayout, "shape %v needs %d elements, buffer holds %d", shape, want, n)
	}

	eng := order.engine()
	switch dtype {
	case Float32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(eng.Uint32(raw[i*4:]))
		}
		v, err := Contiguous(out, shape...)
		return asReader(v, err)
	case Float64:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(eng.Uint64(raw[i*8:]))
		}
		v, err := Contiguous(out, shape...)
		return asReader(v, err)
	case Int32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(eng.Uint32(raw[i*4:]))
		}
		v, err := Contiguous(out, shape...)
		return asReader(v, err)
	case Int64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(eng.Uint64(raw[i*8:]))
		}
		v, err := Contiguous(out, shape...)
		return asReader(v, err)
	default:
		out := make([]uint8, n)
		copy(out, raw)
		v, err := Contiguous(out, shape...)
		return asReader(v, err)
	}
}

// EncodeFloat32 packs values with the given byte order. It is the inverse of
// FromBytes for Float32 and is used to produce fixtures and dumps.
func EncodeFloat32(values []float32, order ByteOrder) []byte {
	eng := order.engine()
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		buf = eng.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// EncodeFloat64 packs values with the given byte order.
func EncodeFloat64(values []float64, order ByteOrder) []byte {
	eng := order.engine()
	buf := make([]byte, 0, len(values)*8)
	for _, v := range values {
		buf = eng.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

// asReader keeps a failed construction from leaking a typed nil into the interface.
func asReader[T Scalar](v *View[T], err error) (Reader, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

func elementCount(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
