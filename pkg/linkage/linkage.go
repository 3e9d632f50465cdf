package linkage

import (
	"fmt"

	"github.com/teslashibe/go-turret/pkg/geom"
	"github.com/teslashibe/go-turret/pkg/pose"
)

// Default turret dimensions.
const (
	DefaultPanArmLength  = 200.0
	DefaultPanArmWidth   = 20.0
	DefaultTiltArmLength = 120.0
	DefaultTiltArmWidth  = 15.0
)

// Linkage is the pan arm with the tilt arm mounted at its tip.
type Linkage struct {
	PanArm  Segment `json:"pan_arm" yaml:"pan_arm"`
	TiltArm Segment `json:"tilt_arm" yaml:"tilt_arm"`
}

// New validates both segments.
func New(panArm, tiltArm Segment) (Linkage, error) {
	if err := panArm.Validate(); err != nil {
		return Linkage{}, fmt.Errorf("pan arm: %w", err)
	}
	if err := tiltArm.Validate(); err != nil {
		return Linkage{}, fmt.Errorf("tilt arm: %w", err)
	}
	return Linkage{PanArm: panArm, TiltArm: tiltArm}, nil
}

// DefaultLinkage returns the stock turret geometry.
func DefaultLinkage() Linkage {
	return Linkage{
		PanArm:  Segment{Length: DefaultPanArmLength, Width: DefaultPanArmWidth, Height: DefaultPanArmWidth},
		TiltArm: Segment{Length: DefaultTiltArmLength, Width: DefaultTiltArmWidth, Height: DefaultTiltArmWidth},
	}
}

// panToWorld applies the base rotation. It is the last transform of
// every point on the chain so the whole turret swings with pan.
func panToWorld(v geom.Vec3, p pose.Pose) geom.Vec3 {
	return geom.RotateY(v, p.Pan)
}

// tiltToWorld maps a tilt-arm local point to world space:
// rotate by tilt, move to the pan tip, then rotate by pan. The order
// must not change.
func (l Linkage) tiltToWorld(v geom.Vec3, p pose.Pose) geom.Vec3 {
	v = geom.RotateZ(v, p.Tilt)
	v = geom.Translate(v, l.PanArm.Tip())
	return panToWorld(v, p)
}

// PanArmWorld returns the pan arm's corners in world space.
func (l Linkage) PanArmWorld(p pose.Pose) [8]geom.Vec3 {
	local := l.PanArm.Vertices()
	var out [8]geom.Vec3
	for i, v := range local {
		out[i] = panToWorld(v, p)
	}
	return out
}

// PanTip returns the world position of the pan/tilt joint. The renderer
// draws the joint marker from this, so both always agree.
func (l Linkage) PanTip(p pose.Pose) geom.Vec3 {
	return panToWorld(l.PanArm.Tip(), p)
}

// TiltArmWorld returns the tilt arm's corners in world space.
func (l Linkage) TiltArmWorld(p pose.Pose) [8]geom.Vec3 {
	local := l.TiltArm.Vertices()
	var out [8]geom.Vec3
	for i, v := range local {
		out[i] = l.tiltToWorld(v, p)
	}
	return out
}

// Muzzle returns the world position of the tilt arm's tip.
func (l Linkage) Muzzle(p pose.Pose) geom.Vec3 {
	return l.tiltToWorld(l.TiltArm.Tip(), p)
}
