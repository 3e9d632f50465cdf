// Package geom provides the rotation and perspective primitives used to
// draw the turret. Every function is pure; identical float inputs produce
// bit-identical outputs.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a point in world space. X runs right, Y runs up, Z runs away
// from the viewer.
type Vec3 = r3.Vec

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RotateX rotates v about the X axis by deg degrees.
func RotateX(v Vec3, deg float64) Vec3 {
	sin, cos := math.Sincos(Radians(deg))
	return Vec3{
		X: v.X,
		Y: v.Y*cos - v.Z*sin,
		Z: v.Y*sin + v.Z*cos,
	}
}

// RotateY rotates v about the Y (vertical) axis by deg degrees.
func RotateY(v Vec3, deg float64) Vec3 {
	sin, cos := math.Sincos(Radians(deg))
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// RotateZ rotates v about the Z (depth) axis by deg degrees.
func RotateZ(v Vec3, deg float64) Vec3 {
	sin, cos := math.Sincos(Radians(deg))
	return Vec3{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
		Z: v.Z,
	}
}

// Translate offsets v by d.
func Translate(v, d Vec3) Vec3 {
	return r3.Add(v, d)
}
