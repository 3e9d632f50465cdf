// Package detection provides object detection backends that feed the
// aim controller one target box per frame.
package detection

import (
	"errors"
	"fmt"
)

var (
	// ErrModelNotFound is returned when a model file is missing.
	ErrModelNotFound = errors.New("detection: model file not found")

	// ErrEmptyImage is returned when a frame decodes to nothing.
	ErrEmptyImage = errors.New("detection: empty image")
)

// Box is an axis-aligned bounding box in image pixels, (X1,Y1) top-left.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the midpoint of the box.
func (b Box) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Area returns the box area in square pixels.
func (b Box) Area() float64 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// Detection is one detected object.
type Detection struct {
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
}

// Detector is the interface for detection backends.
type Detector interface {
	// Detect finds objects in a JPEG frame. Boxes are in that frame's pixels.
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	Backend          string   `yaml:"backend" json:"backend"` // "yolo", "yunet" or "none"
	ModelPath        string   `yaml:"model_path" json:"model_path"`
	ConfidenceThresh float64  `yaml:"confidence" json:"confidence"`
	NMSThresh        float64  `yaml:"nms" json:"nms"`
	InputWidth       int      `yaml:"input_width" json:"input_width"`
	InputHeight      int      `yaml:"input_height" json:"input_height"`
	ClassNames       []string `yaml:"class_names" json:"class_names"`
	TargetClass      int      `yaml:"target_class" json:"target_class"`
}

// DefaultConfig returns defaults for a single-class drone model.
func DefaultConfig() Config {
	return Config{
		Backend:          "yolo",
		ModelPath:        "models/drone.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
		ClassNames:       []string{"drone"},
		TargetClass:      0,
	}
}

// ClassName returns the label for id, or "class N" when out of range.
func (c Config) ClassName(id int) string {
	if id >= 0 && id < len(c.ClassNames) {
		return c.ClassNames[id]
	}
	return fmt.Sprintf("class %d", id)
}

// SelectTarget returns the first detection of the target class, or nil.
// Backends return detections best-first, so first is best.
func SelectTarget(dets []Detection, targetClass int) *Detection {
	for i := range dets {
		if dets[i].ClassID == targetClass {
			return &dets[i]
		}
	}
	return nil
}
