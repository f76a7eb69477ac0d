// Package labels - class id to label mapping for detector outputs.
package labels

import (
	"github.com/pkg/errors"
)

// ErrUnknownSet is returned by Lookup for unregistered set names.
var ErrUnknownSet = errors.New("unknown label set")

// Set is an ordered list of class labels indexed by the model's class id.
type Set struct {
	// Name identifies the set in configuration.
	Name string
	// Classes holds one label per class id.
	Classes []string
	// nameToIdx for fast lookup by name
	nameToIdx map[string]int
}

// NewSet builds a set and its reverse index.
func NewSet(name string, classes ...string) *Set {
	s := &Set{Name: name, Classes: classes, nameToIdx: make(map[string]int, len(classes))}
	for i, c := range classes {
		s.nameToIdx[c] = i
	}
	return s
}

// Label returns the label for class id.
func (s *Set) Label(id int) (string, error) {
	if id < 0 || id >= len(s.Classes) {
		return "", errors.Errorf("class id %d out of range for set %q", id, s.Name)
	}
	return s.Classes[id], nil
}

// Index returns the class id for a label.
func (s *Set) Index(label string) (int, error) {
	idx, ok := s.nameToIdx[label]
	if !ok {
		return -1, errors.Errorf("label %q not found in set %q", label, s.Name)
	}
	return idx, nil
}

// Len returns the number of classes in the set.
func (s *Set) Len() int {
	return len(s.Classes)
}

var registry = map[string]*Set{
	COCO.Name:             COCO,
	COCONoBackground.Name: COCONoBackground,
}

// Lookup returns a registered set by name.
func Lookup(name string) (*Set, error) {
	s, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSet, "%q", name)
	}
	return s, nil
}

var cocoObjects = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// COCO is the 80 COCO classes behind a background class at id 0, the layout
// Mask R-CNN heads emit.
var COCO = NewSet("coco", append([]string{"__background__"}, cocoObjects...)...)

// COCONoBackground is the 80 COCO classes starting at id 0.
var COCONoBackground = NewSet("coco-nobg", cocoObjects...)
