// Command segdecode decodes raw detection and mask tensor dumps and writes
// one PNG per decoded mask.
//
// Usage:
//
//	segdecode -detections dets.bin -det-shape 100,6 \
//	    -masks masks.bin -mask-shape 100,28,28 -dtype float32 \
//	    -frame 1280x720 -out ./masks
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-segdecode/detection"
	"github.com/nvr-ai/go-segdecode/tensor"
)

func main() {
	var (
		detPath    = flag.String("detections", "", "Path to the raw detection tensor")
		detShape   = flag.String("det-shape", "", "Detection tensor shape, e.g. 100,6")
		maskPath   = flag.String("masks", "", "Path to the raw mask tensor (optional)")
		maskShape  = flag.String("mask-shape", "", "Mask tensor shape, e.g. 100,28,28")
		dtype      = flag.String("dtype", string(tensor.Float32), "Element type: float32, float64, int32, int64, uint8")
		bigEndian  = flag.Bool("big-endian", false, "Dumps are big-endian")
		configFile = flag.String("config", "", "Path to a YAML decoder config")
		outputDir  = flag.String("out", "", "Directory for mask PNGs (no PNGs when empty)")
		frame      = flag.String("frame", "", "Frame size WxH; masks are scaled to their box when set")
		workers    = flag.Int("workers", 0, "Mask decoding goroutines (overrides config when > 0)")
		threshold  = flag.Float64("threshold", -1, "Score threshold (overrides config when >= 0)")
		verbose    = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *detPath == "" || *detShape == "" {
		log.Fatal("detection tensor path (-detections) and shape (-det-shape) are required")
	}

	cfg := detection.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = detection.LoadConfig(*configFile); err != nil {
			log.WithError(err).Fatal("failed to load config")
		}
	}
	cfg.Logger = log
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *threshold >= 0 {
		cfg.ScoreThreshold = *threshold
	}

	order := tensor.LittleEndian
	if *bigEndian {
		order = tensor.BigEndian
	}

	dets, err := readTensor(*detPath, *detShape, tensor.DType(*dtype), order)
	if err != nil {
		log.WithError(err).Fatal("failed to read detections")
	}
	var masks tensor.Reader
	if *maskPath != "" {
		if masks, err = readTensor(*maskPath, *maskShape, tensor.DType(*dtype), order); err != nil {
			log.WithError(err).Fatal("failed to read masks")
		}
	}

	dec, err := detection.NewDecoder(cfg)
	if err != nil {
		log.WithError(err).Fatal("invalid decoder config")
	}
	results, err := dec.Decode(dets, masks)
	if err != nil {
		log.WithError(err).Fatal("decode failed")
	}
	log.WithField("count", len(results)).Info("decoded detections")

	var frameSize image.Point
	if *frame != "" {
		if frameSize, err = parseFrame(*frame); err != nil {
			log.WithError(err).Fatal("invalid -frame")
		}
	}

	for _, d := range results {
		entry := log.WithFields(logrus.Fields{
			"index": d.Index,
			"class": d.ClassID,
			"score": d.Score,
			"box":   fmt.Sprintf("%.4f,%.4f %.4fx%.4f", d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height),
		})
		if d.Label != "" {
			entry = entry.WithField("label", d.Label)
		}
		if d.MaskErr != nil {
			entry = entry.WithField("mask_error", d.MaskErr)
		}
		entry.Info(d.String())

		if *outputDir == "" || d.Mask == nil {
			continue
		}
		path, err := writeMask(*outputDir, d, frameSize)
		if err != nil {
			log.WithError(err).WithField("index", d.Index).Error("failed to write mask")
			continue
		}
		log.WithField("path", path).Debug("wrote mask")
	}
}

// readTensor loads a raw dump and wraps it with the given shape.
func readTensor(path, shape string, dtype tensor.DType, order tensor.ByteOrder) (tensor.Reader, error) {
	dims, err := parseShape(shape)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return tensor.FromBytes(raw, dtype, order, dims...)
}

// writeMask saves d's mask as mask-<index>.png, scaled to the box in pixel
// space when frame is non-zero.
func writeMask(dir string, d detection.Detection, frame image.Point) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}

	var img image.Image = d.Mask.Image()
	if frame != (image.Point{}) {
		size := d.Box.Rect(frame.X, frame.Y).Size()
		if size.X > 0 && size.Y > 0 {
			img = d.Mask.Resize(uint(size.X), uint(size.Y))
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("mask-%d.png", d.Index))
	if err := imaging.Save(img, path); err != nil {
		return "", errors.Wrapf(err, "save %s", path)
	}
	return path, nil
}

// parseShape parses "100,28,28" into dimension extents.
func parseShape(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty shape")
	}
	parts := strings.Split(s, ",")
	dims := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, errors.Errorf("invalid dimension %q in shape %q", p, s)
		}
		dims[i] = n
	}
	return dims, nil
}

// parseFrame parses "1280x720".
func parseFrame(s string) (image.Point, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return image.Point{}, errors.Errorf("frame %q is not WxH", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return image.Point{}, errors.Errorf("invalid frame width %q", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return image.Point{}, errors.Errorf("invalid frame height %q", h)
	}
	return image.Pt(width, height), nil
}
