package detection

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-segdecode/labels"
	"github.com/nvr-ai/go-segdecode/tensor"
)

// ErrColumnLayout is returned when detection rows are narrower than the configured columns.
var ErrColumnLayout = errors.New("detection row too narrow for column layout")

// Decoder turns detection and mask tensors into Detections.
//
// A Decoder holds no per-call state and is safe for concurrent use.
type Decoder struct {
	cfg    Config
	labels *labels.Set
	log    logrus.FieldLogger
}

// NewDecoder validates cfg and builds a decoder.
//
// Arguments:
//   - cfg: Decoder configuration, usually DefaultConfig() or LoadConfig().
//
// Returns:
//   - The decoder, or an error if cfg is invalid or names an unknown label set.
func NewDecoder(cfg Config) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Decoder{cfg: cfg, log: cfg.Logger}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	if cfg.Labels != "" {
		set, err := labels.Lookup(cfg.Labels)
		if err != nil {
			return nil, errors.Wrap(err, "decoder labels")
		}
		d.labels = set
	}
	return d, nil
}

// Config returns the decoder's configuration.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Decode converts every detection row with a score above the threshold into
// a Detection, in ascending row order.
//
// Arguments:
//   - dets: Detection rows laid out per Config.Columns. nil or empty yields no detections.
//   - masks: Optional mask logits, row i belonging to detection row i. May be nil.
//
// Returns:
//   - The detections in row order.
//   - ErrColumnLayout if a row cannot hold the configured columns. Mask
//     failures never fail the batch; they are reported on Detection.MaskErr.
func (d *Decoder) Decode(dets, masks tensor.Reader) ([]Detection, error) {
	if dets == nil || dets.RowCount() == 0 {
		return []Detection{}, nil
	}
	if w := d.cfg.Columns.Width(); dets.RowStride() < w {
		return nil, errors.Wrapf(ErrColumnLayout, "row stride %d, columns need %d", dets.RowStride(), w)
	}

	cols := d.cfg.Columns
	out := make([]Detection, 0, dets.RowCount())
	for i := 0; i < dets.RowCount(); i++ {
		score := dets.ElementAt(i, cols.Score)
		// NaN scores fail the comparison and are dropped.
		if !(score > d.cfg.ScoreThreshold) {
			continue
		}

		y1 := dets.ElementAt(i, cols.Y1)
		x1 := dets.ElementAt(i, cols.X1)
		y2 := dets.ElementAt(i, cols.Y2)
		x2 := dets.ElementAt(i, cols.X2)
		det := Detection{
			Index:   i,
			Box:     Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1},
			ClassID: int(dets.ElementAt(i, cols.Class)),
			Score:   score,
		}

		if det.Box.Malformed() {
			entry := d.log.WithFields(logrus.Fields{"row": i, "width": det.Box.Width, "height": det.Box.Height})
			if d.cfg.RejectMalformed {
				entry.Warn("dropping detection with inverted box corners")
				continue
			}
			entry.Warn("detection has inverted box corners")
		}
		if d.labels != nil {
			if name, err := d.labels.Label(det.ClassID); err == nil {
				det.Label = name
			}
		}
		out = append(out, det)
	}

	if masks != nil {
		d.attachMasks(out, masks)
	}
	return out, nil
}

// DecodeMask decodes mask row index into a bitmap of the configured size.
//
// Returns ErrNoMaskTensor, ErrMaskIndexOutOfRange or ErrMaskStride when no
// mask can be produced for that row.
func (d *Decoder) DecodeMask(masks tensor.Reader, index int) (*Mask, error) {
	return decodeMask(masks, index, d.cfg.MaskWidth, d.cfg.MaskHeight)
}

// attachMasks fills Mask/MaskErr on each detection. Every detection is
// written by exactly one goroutine, so results stay in row order.
func (d *Decoder) attachMasks(dets []Detection, masks tensor.Reader) {
	decode := func(k int) {
		m, err := d.DecodeMask(masks, dets[k].Index)
		if err != nil {
			d.log.WithFields(logrus.Fields{"row": dets[k].Index, "error": err}).Debug("no mask for detection")
		}
		dets[k].Mask, dets[k].MaskErr = m, err
	}

	workers := min(d.cfg.Workers, len(dets))
	if workers <= 1 {
		for k := range dets {
			decode(k)
		}
		return
	}

	jobs := make(chan int, len(dets))
	for k := range dets {
		jobs <- k
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range jobs {
				decode(k)
			}
		}()
	}
	wg.Wait()
}

var defaultDecoder = &Decoder{cfg: DefaultConfig(), log: logrus.StandardLogger()}

// Decode decodes with DefaultConfig.
func Decode(dets, masks tensor.Reader) ([]Detection, error) {
	return defaultDecoder.Decode(dets, masks)
}

// DecodeMask decodes one 28x28 mask row with DefaultConfig.
func DecodeMask(masks tensor.Reader, index int) (*Mask, error) {
	return defaultDecoder.DecodeMask(masks, index)
}
