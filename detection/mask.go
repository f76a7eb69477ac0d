package detection

import (
	"image"

	"github.com/cespare/xxhash/v2"
	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-segdecode/tensor"
)

var (
	// ErrNoMaskTensor is returned when mask decoding is asked for without a mask tensor.
	ErrNoMaskTensor = errors.New("no mask tensor")
	// ErrMaskIndexOutOfRange is returned when the detection index has no mask row.
	ErrMaskIndexOutOfRange = errors.New("mask index out of range")
	// ErrMaskStride is returned when a mask row holds fewer values than the bitmap needs.
	ErrMaskStride = errors.New("mask row stride too small")
)

// Mask is an immutable single-channel 8-bit bitmap, row-major with no padding.
//
// Dark pixels are inside the object: a logit of 2 maps to 0 and a logit of 0
// maps to 255, so the bitmap can be used directly as an image mask.
type Mask struct {
	img *image.Gray
}

// NewMask wraps a copy of pix as a width x height mask.
func NewMask(width, height int, pix []byte) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid mask size %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, errors.Errorf("mask %dx%d needs %d bytes, got %d", width, height, width*height, len(pix))
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	return &Mask{img: img}, nil
}

// Width returns the bitmap width in pixels.
func (m *Mask) Width() int { return m.img.Rect.Dx() }

// Height returns the bitmap height in pixels.
func (m *Mask) Height() int { return m.img.Rect.Dy() }

// GrayAt returns the intensity at (x, y).
func (m *Mask) GrayAt(x, y int) uint8 {
	return m.img.GrayAt(x, y).Y
}

// Pix returns a copy of the row-major pixel bytes.
func (m *Mask) Pix() []byte {
	return append([]byte(nil), m.img.Pix...)
}

// Image returns a copy of the mask as an *image.Gray.
func (m *Mask) Image() *image.Gray {
	img := image.NewGray(m.img.Rect)
	copy(img.Pix, m.img.Pix)
	return img
}

// Fingerprint returns the xxhash64 digest of the pixels. Two masks with the
// same size and pixels share a fingerprint.
func (m *Mask) Fingerprint() uint64 {
	return xxhash.Sum64(m.img.Pix)
}

// Resize scales the mask to width x height with bilinear interpolation,
// typically to the detection box after Box.Rect.
func (m *Mask) Resize(width, height uint) *image.Gray {
	// resize keeps *image.Gray input gray.
	return resize.Resize(width, height, m.img, resize.Bilinear).(*image.Gray)
}

// LogitToPixel converts a mask logit in the nominal range [0, 2] to an
// intensity: round(255 - v/2*255), clamped to [0, 255]. NaN maps to 0.
func LogitToPixel(v float32) uint8 {
	p := math32.Round(255 - (v/2)*255)
	switch {
	case math32.IsNaN(p):
		return 0
	case p <= 0:
		return 0
	case p >= 255:
		return 255
	default:
		return uint8(p)
	}
}

// decodeMask converts row index of masks into a width x height bitmap.
func decodeMask(masks tensor.Reader, index, width, height int) (*Mask, error) {
	if masks == nil {
		return nil, ErrNoMaskTensor
	}
	if index < 0 || index >= masks.RowCount() {
		return nil, errors.Wrapf(ErrMaskIndexOutOfRange, "index %d, %d mask rows", index, masks.RowCount())
	}
	need := width * height
	if masks.RowStride() < need {
		return nil, errors.Wrapf(ErrMaskStride, "row stride %d, %dx%d mask needs %d", masks.RowStride(), width, height, need)
	}

	row := masks.CopyRow(index)
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := 0; i < need; i++ {
		img.Pix[i] = LogitToPixel(float32(row[i]))
	}
	return &Mask{img: img}, nil
}
