// Package images - bridges decoded tensors and masks to OpenCV matrices.
package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-segdecode/detection"
	"github.com/nvr-ai/go-segdecode/tensor"
)

// MatView wraps the float data of a single-channel CV_32F Mat, such as a
// gocv.Net Forward() output, as a row view.
//
// The view borrows the Mat's memory: keep the Mat open while the view is in use.
//
// Arguments:
//   - m: A continuous CV_32F Mat. Its dimensions (m.Size()) become the view shape.
//
// Returns:
//   - The row view, or an error for empty, non-float or non-continuous Mats.
func MatView(m gocv.Mat) (*tensor.View[float32], error) {
	if m.Empty() {
		return nil, errors.Wrap(tensor.ErrInvalidLayout, "empty mat")
	}
	if m.Type() != gocv.MatTypeCV32FC1 {
		return nil, errors.Wrapf(tensor.ErrInvalidLayout, "mat type %v is not CV_32FC1", m.Type())
	}
	if !m.IsContinuous() {
		return nil, errors.Wrap(tensor.ErrInvalidLayout, "mat is not continuous")
	}

	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "mat data")
	}
	return tensor.Contiguous(data, m.Size()...)
}

// MaskMat copies a decoded mask into a new CV_8UC1 Mat. The caller closes it.
func MaskMat(mask *detection.Mask) (gocv.Mat, error) {
	if mask == nil {
		return gocv.NewMat(), errors.New("nil mask")
	}
	shared, err := gocv.NewMatFromBytes(mask.Height(), mask.Width(), gocv.MatTypeCV8UC1, mask.Pix())
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "mask mat")
	}
	defer shared.Close()
	// The Mat above may point at Go memory; hand out an OpenCV-owned copy.
	return shared.Clone(), nil
}

// FrameMask renders a detection's mask at frame resolution: the mask is
// scaled into the detection box and everything outside the box is 255
// (outside the object). The caller closes the returned Mat.
//
// Arguments:
//   - det: A detection with a decoded mask and a normalized box.
//   - width: Frame width in pixels.
//   - height: Frame height in pixels.
//
// Returns:
//   - A height x width CV_8UC1 Mat.
func FrameMask(det detection.Detection, width, height int) (gocv.Mat, error) {
	if det.Mask == nil {
		return gocv.NewMat(), errors.Errorf("detection %d has no mask", det.Index)
	}
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)

	box := det.Box.Rect(width, height)
	visible := box.Intersect(image.Rect(0, 0, width, height))
	if visible.Empty() {
		return frame, nil
	}

	src, err := MaskMat(det.Mask)
	if err != nil {
		frame.Close()
		return gocv.NewMat(), err
	}
	defer src.Close()

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(src, &scaled, box.Size(), 0, 0, gocv.InterpolationLinear)

	// Crop the part of the scaled mask that lands inside the frame.
	crop := scaled.Region(visible.Sub(box.Min))
	defer crop.Close()
	dst := frame.Region(visible)
	defer dst.Close()
	crop.CopyTo(&dst)

	return frame, nil
}
