// Package pose holds the turret's joint state and the wrap/clamp rules
// every caller uses to change it.
package pose

import (
	"fmt"
	"math"
)

// Mechanical limits in degrees.
const (
	FullTurn = 360.0
	MinTilt  = -90.0
	MaxTilt  = 90.0
)

// Pose is the turret's joint state in degrees.
// Pan is always in [0, 360); Tilt is always in [-90, 90].
type Pose struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
}

// Zero returns the neutral pose.
func Zero() Pose {
	return Pose{}
}

// New returns a pose with pan wrapped and tilt clamped.
// Non-finite inputs fall back to 0 for that axis.
func New(pan, tilt float64) Pose {
	return Pose{}.Sanitize(Pose{Pan: pan, Tilt: tilt})
}

// String renders the pose for logs.
func (p Pose) String() string {
	return fmt.Sprintf("pan=%.1f° tilt=%.1f°", p.Pan, p.Tilt)
}

// Sanitize returns next with pan wrapped and tilt clamped.
// Any axis of next that is NaN or Inf keeps p's value instead.
func (p Pose) Sanitize(next Pose) Pose {
	out := p
	if finite(next.Pan) {
		out.Pan = WrapPan(next.Pan)
	}
	if finite(next.Tilt) {
		out.Tilt = ClampTilt(next.Tilt)
	}
	return out
}

// StepPan rotates pan by delta degrees, wrapping modulo 360.
func (p Pose) StepPan(delta float64) Pose {
	if !finite(delta) {
		return p
	}
	p.Pan = WrapPan(p.Pan + delta)
	return p
}

// StepTilt moves tilt by delta degrees, clamped to the mechanical range.
func (p Pose) StepTilt(delta float64) Pose {
	if !finite(delta) {
		return p
	}
	p.Tilt = ClampTilt(p.Tilt + delta)
	return p
}

// WrapPan maps any finite angle into [0, 360).
func WrapPan(deg float64) float64 {
	r := math.Mod(deg, FullTurn)
	if r < 0 {
		r += FullTurn
	}
	// -0 and float round-up to exactly 360 both belong at 0
	if r == 0 || r >= FullTurn {
		return 0
	}
	return r
}

// ClampTilt limits an angle to [MinTilt, MaxTilt].
func ClampTilt(deg float64) float64 {
	return clamp(deg, MinTilt, MaxTilt)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
