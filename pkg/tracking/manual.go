package tracking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teslashibe/go-turret/pkg/pose"
)

// ErrUnknownInput is returned for direction names or keys with no binding.
var ErrUnknownInput = errors.New("tracking: unknown input")

// Direction is a manual jog direction.
type Direction int

const (
	Left Direction = iota + 1
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// ParseDirection accepts "left", "right", "up" or "down" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("%w: direction %q", ErrUnknownInput, s)
}

// ManualStep jogs the pose by step degrees with the same wrap and clamp
// rules the controller uses. Up raises tilt; Right increases pan.
func ManualStep(p pose.Pose, d Direction, step float64) pose.Pose {
	switch d {
	case Left:
		return p.StepPan(-step)
	case Right:
		return p.StepPan(step)
	case Up:
		return p.StepTilt(step)
	case Down:
		return p.StepTilt(-step)
	}
	return p
}

// InputKind distinguishes jogs from the fire key.
type InputKind int

const (
	InputMove InputKind = iota
	InputFire
)

// Input is one manual command queued for the next tick.
type Input struct {
	Kind      InputKind
	Direction Direction
}

// Move returns a jog input.
func Move(d Direction) Input { return Input{Kind: InputMove, Direction: d} }

// FireInput returns a fire-key input.
func FireInput() Input { return Input{Kind: InputFire} }

func (in Input) String() string {
	if in.Kind == InputFire {
		return "fire"
	}
	return in.Direction.String()
}

// ParseKey maps a key name to an input. Arrow keys are accepted by their
// X11 names ("Left"), browser names ("ArrowLeft") or plain directions;
// "f" or "F" fires.
func ParseKey(key string) (Input, error) {
	if strings.EqualFold(key, "f") {
		return FireInput(), nil
	}

	name := strings.TrimPrefix(key, "Arrow")
	if d, err := ParseDirection(name); err == nil {
		return Move(d), nil
	}
	return Input{}, fmt.Errorf("%w: key %q", ErrUnknownInput, key)
}
