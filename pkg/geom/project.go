package geom

// Default canvas parameters.
const (
	DefaultCanvasSize = 1000
	DefaultFOV        = 500.0
)

// Point2 is a position on the canvas in pixels, Y growing downward.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projected is a screen point together with the depth it came from.
type Projected struct {
	Point2
	Depth float64 `json:"depth"`
}

// Projector is a pinhole camera with a fixed focal distance.
type Projector struct {
	FOV     float64 // Focal distance; larger is flatter
	CenterX float64 // Canvas X of the optical axis
	CenterY float64 // Canvas Y of the optical axis
}

// DefaultProjector returns the projector for a 1000x1000 canvas.
func DefaultProjector() Projector {
	return NewProjector(DefaultCanvasSize, DefaultCanvasSize, DefaultFOV)
}

// NewProjector centers the optical axis on a width x height canvas.
func NewProjector(width, height int, fov float64) Projector {
	return Projector{
		FOV:     fov,
		CenterX: float64(width / 2),
		CenterY: float64(height / 2),
	}
}

// Scale returns the perspective factor for a point at depth z.
// A zero divisor yields a factor of 1.
func (p Projector) Scale(z float64) float64 {
	d := p.FOV + z
	if d == 0 {
		return 1
	}
	return p.FOV / d
}

// Project maps a world point onto the canvas. World Y is flipped because
// canvas Y grows downward.
func (p Projector) Project(v Vec3) Projected {
	f := p.Scale(v.Z)
	return Projected{
		Point2: Point2{
			X: p.CenterX + v.X*f,
			Y: p.CenterY - v.Y*f,
		},
		Depth: v.Z,
	}
}

// ProjectAll projects a slice of points, preserving order.
func (p Projector) ProjectAll(vs []Vec3) []Projected {
	out := make([]Projected, len(vs))
	for i, v := range vs {
		out[i] = p.Project(v)
	}
	return out
}
