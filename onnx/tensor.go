// Package onnx - adapts onnxruntime output tensors to row views for decoding.
package onnx

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-segdecode/detection"
	"github.com/nvr-ai/go-segdecode/tensor"
)

// OutputTensor is the subset of *ort.Tensor[T] needed to read an output.
type OutputTensor[T tensor.Scalar] interface {
	GetShape() ort.Shape
	GetData() []T
}

// FromTensor wraps an onnxruntime tensor's data as a row view without copying.
// The tensor must outlive the view.
//
// Arguments:
//   - t: The output tensor, typically *ort.Tensor[float32].
//
// Returns:
//   - The row view, or tensor.ErrInvalidLayout if the shape does not fit the data.
func FromTensor[T tensor.Scalar](t OutputTensor[T]) (*tensor.View[T], error) {
	if t == nil {
		return nil, errors.Wrap(tensor.ErrInvalidLayout, "nil onnx tensor")
	}
	shape, err := toShape(t.GetShape())
	if err != nil {
		return nil, err
	}
	return tensor.Contiguous(t.GetData(), shape...)
}

// FromBatchTensor is FromTensor for outputs with a leading batch dimension,
// which must be 1: [1, N, 6] and [1, N, 28, 28] both become N-row views.
func FromBatchTensor[T tensor.Scalar](t OutputTensor[T]) (*tensor.View[T], error) {
	if t == nil {
		return nil, errors.Wrap(tensor.ErrInvalidLayout, "nil onnx tensor")
	}
	shape, err := toShape(t.GetShape())
	if err != nil {
		return nil, err
	}
	if len(shape) < 2 || shape[0] != 1 {
		return nil, errors.Wrapf(tensor.ErrInvalidLayout, "expected a batch of 1, got shape %v", shape)
	}
	return tensor.Contiguous(t.GetData(), shape[1:]...)
}

func toShape(s ort.Shape) ([]int, error) {
	shape := make([]int, len(s))
	for i, d := range s {
		if d < 0 {
			return nil, errors.Wrapf(tensor.ErrInvalidLayout, "dynamic dimension %d in output shape %v", i, s)
		}
		shape[i] = int(d)
	}
	return shape, nil
}

// Decode decodes the batched float32 detection and mask outputs of a
// session run. masks may be nil for detection-only models.
func Decode(dec *detection.Decoder, dets, masks *ort.Tensor[float32]) ([]detection.Detection, error) {
	if dets == nil {
		return []detection.Detection{}, nil
	}
	detView, err := FromBatchTensor[float32](dets)
	if err != nil {
		return nil, errors.Wrap(err, "detection output")
	}

	var maskReader tensor.Reader
	if masks != nil {
		maskView, err := FromBatchTensor[float32](masks)
		if err != nil {
			return nil, errors.Wrap(err, "mask output")
		}
		maskReader = maskView
	}
	return dec.Decode(detView, maskReader)
}
