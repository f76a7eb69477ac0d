package onnx

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-segdecode/detection"
	"github.com/nvr-ai/go-segdecode/tensor"
)

// fakeOutput stands in for *ort.Tensor so the adapter can be tested without
// the onnxruntime shared library.
type fakeOutput[T tensor.Scalar] struct {
	shape ort.Shape
	data  []T
}

func (f fakeOutput[T]) GetShape() ort.Shape { return f.shape.Clone() }
func (f fakeOutput[T]) GetData() []T        { return f.data }

func TestFromTensor(t *testing.T) {
	out := fakeOutput[float32]{
		shape: ort.NewShape(2, 6),
		data:  []float32{0.1, 0.2, 0.6, 0.8, 3, 0.95, 0, 0, 1, 1, 1, 0.1},
	}

	v, err := FromTensor[float32](out)
	require.NoError(t, err)
	assert.Equal(t, 2, v.RowCount())
	assert.Equal(t, 6, v.RowStride())
	assert.InDelta(t, 0.95, v.ElementAt(0, 5), 1e-6)
}

func TestFromBatchTensor(t *testing.T) {
	masks := fakeOutput[float32]{
		shape: ort.NewShape(1, 1, 28, 28),
		data:  make([]float32, 784),
	}

	v, err := FromBatchTensor[float32](masks)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 28, 28}, v.Shape())
	assert.Equal(t, 1, v.RowCount())
	assert.Equal(t, 784, v.RowStride())

	m, err := detection.DecodeMask(v, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), m.GrayAt(0, 0))
}

func TestFromBatchTensorRejectsBatches(t *testing.T) {
	_, err := FromBatchTensor[float32](fakeOutput[float32]{shape: ort.NewShape(2, 3, 6), data: make([]float32, 36)})
	assert.True(t, errors.Is(err, tensor.ErrInvalidLayout))

	_, err = FromBatchTensor[float32](fakeOutput[float32]{shape: ort.NewShape(6), data: make([]float32, 6)})
	assert.True(t, errors.Is(err, tensor.ErrInvalidLayout))
}

func TestFromTensorRejectsBadShapes(t *testing.T) {
	_, err := FromTensor[float32](fakeOutput[float32]{shape: ort.NewShape(-1, 6), data: make([]float32, 6)})
	assert.True(t, errors.Is(err, tensor.ErrInvalidLayout))

	_, err = FromTensor[float32](fakeOutput[float32]{shape: ort.NewShape(3, 6), data: make([]float32, 6)})
	assert.True(t, errors.Is(err, tensor.ErrInvalidLayout))

	_, err = FromTensor[float32](nil)
	assert.True(t, errors.Is(err, tensor.ErrInvalidLayout))
}

// TestDecodeRuntimeTensors runs the adapter against real onnxruntime tensors.
// Set ONNXRUNTIME_SHARED_LIBRARY_PATH to run it.
func TestDecodeRuntimeTensors(t *testing.T) {
	lib := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	if lib == "" {
		t.Skip("ONNXRUNTIME_SHARED_LIBRARY_PATH not set")
	}
	ort.SetSharedLibraryPath(lib)
	require.NoError(t, ort.InitializeEnvironment())
	defer ort.DestroyEnvironment()

	dets, err := ort.NewTensor(ort.NewShape(1, 2, 6), []float32{
		0.1, 0.2, 0.6, 0.8, 3, 0.95,
		0.1, 0.2, 0.6, 0.8, 3, 0.70,
	})
	require.NoError(t, err)
	defer dets.Destroy()

	masks, err := ort.NewTensor(ort.NewShape(1, 2, 28, 28), make([]float32, 2*784))
	require.NoError(t, err)
	defer masks.Destroy()

	dec, err := detection.NewDecoder(detection.DefaultConfig())
	require.NoError(t, err)

	got, err := Decode(dec, dets, masks)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ClassID)
	require.NotNil(t, got[0].Mask)

	got, err = Decode(dec, dets, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Mask)
}
