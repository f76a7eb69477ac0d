package detection

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultScoreThreshold is the strict lower bound on the score column.
	DefaultScoreThreshold float64 = 0.7
	// DefaultMaskSize is the side of the square mask bitmap Mask R-CNN heads emit.
	DefaultMaskSize = 28
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid decoder config")

// Columns are the positional offsets of each field within a detection row.
type Columns struct {
	Y1    int `json:"y1" yaml:"y1"`
	X1    int `json:"x1" yaml:"x1"`
	Y2    int `json:"y2" yaml:"y2"`
	X2    int `json:"x2" yaml:"x2"`
	Class int `json:"class" yaml:"class"`
	Score int `json:"score" yaml:"score"`
}

// DefaultColumns is [y1, x1, y2, x2, classId, score].
var DefaultColumns = Columns{Y1: 0, X1: 1, Y2: 2, X2: 3, Class: 4, Score: 5}

// Width returns the minimum row stride able to hold every column.
func (c Columns) Width() int {
	return max(c.Y1, c.X1, c.Y2, c.X2, c.Class, c.Score) + 1
}

func (c Columns) validate() error {
	for _, v := range []int{c.Y1, c.X1, c.Y2, c.X2, c.Class, c.Score} {
		if v < 0 {
			return errors.Wrapf(ErrInvalidConfig, "negative column offset %d", v)
		}
	}
	return nil
}

// Config controls the decoder's threshold policy and tensor layout.
type Config struct {
	// ScoreThreshold keeps rows whose score is strictly greater.
	ScoreThreshold float64 `json:"score_threshold" yaml:"score_threshold"`
	// Columns locates each field within a detection row.
	Columns Columns `json:"columns" yaml:"columns"`
	// MaskWidth and MaskHeight are the decoded bitmap size.
	MaskWidth  int `json:"mask_width" yaml:"mask_width"`
	MaskHeight int `json:"mask_height" yaml:"mask_height"`
	// Workers is the number of goroutines decoding masks. 1 decodes inline.
	Workers int `json:"workers" yaml:"workers"`
	// RejectMalformed drops rows with a negative width or height instead of
	// passing them through.
	RejectMalformed bool `json:"reject_malformed" yaml:"reject_malformed"`
	// Labels names a label set (see package labels) used to fill Detection.Label.
	Labels string `json:"labels" yaml:"labels"`
	// Logger receives per-row warnings.
	Logger logrus.FieldLogger `json:"-" yaml:"-"`
}

// DefaultConfig returns the decoder defaults: score > 0.7, 28x28 masks,
// [y1, x1, y2, x2, classId, score] rows, sequential decoding.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold: DefaultScoreThreshold,
		Columns:        DefaultColumns,
		MaskWidth:      DefaultMaskSize,
		MaskHeight:     DefaultMaskSize,
		Workers:        1,
		Logger:         logrus.StandardLogger(),
	}
}

// Validate checks the config for values the decoder cannot work with.
func (c Config) Validate() error {
	if err := c.Columns.validate(); err != nil {
		return err
	}
	if c.MaskWidth <= 0 || c.MaskHeight <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "mask size %dx%d", c.MaskWidth, c.MaskHeight)
	}
	if c.Workers < 1 {
		return errors.Wrapf(ErrInvalidConfig, "workers must be >= 1, got %d", c.Workers)
	}
	return nil
}

// LoadConfig reads a YAML config file on top of DefaultConfig, so omitted
// keys keep their defaults.
//
// Arguments:
//   - path: Path to the YAML file.
//
// Returns:
//   - The merged and validated config.
//
// Example:
//
// ```yaml
// score_threshold: 0.5
// workers: 4
// labels: coco
// ```
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
