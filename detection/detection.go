// Package detection - decodes instance-segmentation model output into detections and masks.
package detection

import (
	"fmt"
	"image"
	"math"
)

// Box is an axis-aligned box in the model's output coordinate space.
//
// No scaling is applied while decoding, so for most Mask R-CNN exports the
// values are normalized to [0, 1].
type Box struct {
	X, Y          float64
	Width, Height float64
}

// MaxX returns the right edge.
func (b Box) MaxX() float64 { return b.X + b.Width }

// MaxY returns the bottom edge.
func (b Box) MaxY() float64 { return b.Y + b.Height }

// Malformed reports whether the corners were inverted upstream, yielding a
// negative width or height.
func (b Box) Malformed() bool {
	return b.Width < 0 || b.Height < 0
}

// Rect scales a normalized box to a frame of the given pixel size.
//
// This loses fractional pixels around the edges. Malformed boxes come back
// canonicalized, like image.Rect does.
//
// Arguments:
//   - width: Frame width in pixels.
//   - height: Frame height in pixels.
//
// Returns:
//   - The pixel-space rectangle.
func (b Box) Rect(width, height int) image.Rectangle {
	fw, fh := float64(width), float64(height)
	return image.Rect(
		int(math.Round(b.X*fw)),
		int(math.Round(b.Y*fh)),
		int(math.Round(b.MaxX()*fw)),
		int(math.Round(b.MaxY()*fh)),
	)
}

// Detection is one decoded detection row.
type Detection struct {
	// Index is the row in the detection tensor; it also selects the mask row.
	Index int
	// Box is origin (x1, y1) with extent (x2-x1, y2-y1).
	Box Box
	// ClassID is the truncated class column.
	ClassID int
	// Label is filled when the decoder has a label set and ClassID is in range.
	Label string
	// Score is the confidence column.
	Score float64
	// Mask is the decoded mask, nil when no mask tensor was given or decoding failed.
	Mask *Mask
	// MaskErr records why Mask is nil when a mask tensor was supplied.
	MaskErr error
}

func (d Detection) String() string {
	name := d.Label
	if name == "" {
		name = fmt.Sprintf("class %d", d.ClassID)
	}
	return fmt.Sprintf("Detection %d %s (confidence %f): (%f, %f) %fx%f",
		d.Index, name, d.Score, d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height)
}
