// Package linkage models the turret as a two-segment rigid chain and
// computes world-space geometry from a pose (forward kinematics).
package linkage

import (
	"errors"
	"fmt"
	"math"

	"github.com/teslashibe/go-turret/pkg/geom"
)

// ErrInvalidSegment is returned for zero, negative or non-finite dimensions.
var ErrInvalidSegment = errors.New("linkage: invalid segment")

// Segment is a rigid cuboid in its own frame. The joint end sits at the
// local origin and the segment extends along +X.
type Segment struct {
	Length float64 `json:"length" yaml:"length"`
	Width  float64 `json:"width" yaml:"width"`   // Extent along Y
	Height float64 `json:"height" yaml:"height"` // Extent along Z
}

// NewSegment validates dimensions and returns a Segment.
func NewSegment(length, width, height float64) (Segment, error) {
	s := Segment{Length: length, Width: width, Height: height}
	if err := s.Validate(); err != nil {
		return Segment{}, err
	}
	return s, nil
}

// Validate reports whether every dimension is positive and finite.
func (s Segment) Validate() error {
	for _, d := range []struct {
		name string
		v    float64
	}{{"length", s.Length}, {"width", s.Width}, {"height", s.Height}} {
		if math.IsNaN(d.v) || math.IsInf(d.v, 0) || d.v <= 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidSegment, d.name, d.v)
		}
	}
	return nil
}

// Vertices returns the 8 cuboid corners in local space: the joint face
// (x=0) first, then the tip face (x=Length), each wound the same way.
func (s Segment) Vertices() [8]geom.Vec3 {
	w := s.Width / 2
	h := s.Height / 2
	return [8]geom.Vec3{
		{X: 0, Y: -w, Z: -h}, {X: 0, Y: w, Z: -h}, {X: 0, Y: w, Z: h}, {X: 0, Y: -w, Z: h},
		{X: s.Length, Y: -w, Z: -h}, {X: s.Length, Y: w, Z: -h}, {X: s.Length, Y: w, Z: h}, {X: s.Length, Y: -w, Z: h},
	}
}

// Tip returns the local-space point at the far end of the segment axis.
func (s Segment) Tip() geom.Vec3 {
	return geom.Vec3{X: s.Length}
}

// Faces indexes Vertices; the topology is the same for every segment.
var Faces = [6][4]int{
	{0, 1, 2, 3}, {4, 5, 6, 7},
	{0, 4, 7, 3}, {1, 5, 6, 2},
	{3, 2, 6, 7}, {0, 1, 5, 4},
}
