package tracking

import (
	"fmt"
	"image"
	"math"

	"github.com/teslashibe/go-turret/pkg/pose"
	"github.com/teslashibe/go-turret/pkg/tracking/detection"
)

// AimState is the controller's classification of one tick.
type AimState int

const (
	// Searching means no target box this tick; the pose is held.
	Searching AimState = iota
	// Tracking means the target is outside the deadband on at least one axis.
	Tracking
	// Aligned means the target is inside the deadband on both axes.
	Aligned
)

func (s AimState) String() string {
	switch s {
	case Searching:
		return "searching"
	case Tracking:
		return "tracking"
	case Aligned:
		return "aligned"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON and logs.
func (s AimState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *AimState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "searching":
		*s = Searching
	case "tracking":
		*s = Tracking
	case "aligned":
		*s = Aligned
	default:
		return fmt.Errorf("tracking: unknown aim state %q", text)
	}
	return nil
}

// Decision is the controller output for one tick.
type Decision struct {
	Pose  pose.Pose `json:"pose"`
	Fire  bool      `json:"fire"`
	State AimState  `json:"state"`
	ErrX  float64   `json:"err_x"` // target center minus frame center, pixels
	ErrY  float64   `json:"err_y"`
}

// AimController is a bang-bang stepper with a pixel deadband.
// It holds no state between calls.
type AimController struct {
	Deadband float64 // pixels
	Step     float64 // degrees per tick
}

// NewAimController creates a controller from the tracking config
func NewAimController(config Config) *AimController {
	return &AimController{
		Deadband: config.Deadband,
		Step:     config.TrackStep,
	}
}

// Evaluate computes the next pose for a target box in a frame of the given
// size. A nil box holds the pose and never fires. The returned pose is
// always wrapped and clamped; a non-finite axis of p resets to 0.
func (c *AimController) Evaluate(box *detection.Box, frame image.Point, p pose.Pose) Decision {
	p = pose.New(p.Pan, p.Tilt)
	if box == nil {
		return Decision{Pose: p, State: Searching}
	}

	cx, cy := box.Center()
	errX := cx - float64(frame.X)/2
	errY := cy - float64(frame.Y)/2

	next := p
	switch {
	case errX > c.Deadband:
		next = next.StepPan(c.Step)
	case errX < -c.Deadband:
		next = next.StepPan(-c.Step)
	}

	// Image Y grows downward, tilt grows upward.
	switch {
	case errY > c.Deadband:
		next = next.StepTilt(-c.Step)
	case errY < -c.Deadband:
		next = next.StepTilt(c.Step)
	}

	aligned := math.Abs(errX) <= c.Deadband && math.Abs(errY) <= c.Deadband
	state := Tracking
	if aligned {
		state = Aligned
	}

	return Decision{
		Pose:  next,
		Fire:  aligned,
		State: state,
		ErrX:  errX,
		ErrY:  errY,
	}
}

// Step is Evaluate reduced to (newPose, shouldFire).
func (c *AimController) Step(box *detection.Box, frame image.Point, p pose.Pose) (pose.Pose, bool) {
	d := c.Evaluate(box, frame, p)
	return d.Pose, d.Fire
}
