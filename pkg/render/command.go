// Package render turns a turret pose into an ordered list of draw
// commands. The renderer itself never touches a canvas; presenters such
// as the rasterizer in this package or the web dashboard do.
package render

import (
	"image/color"

	"github.com/teslashibe/go-turret/pkg/geom"
)

// Kind identifies a draw command.
type Kind string

const (
	KindPolygon Kind = "polygon"
	KindCircle  Kind = "circle"
	KindText    Kind = "text"
)

// Command is one primitive. Only the fields relevant to Kind are set.
type Command struct {
	Kind Kind `json:"kind"`

	// Polygon
	Points []geom.Point2 `json:"points,omitempty"`

	// Circle
	Center geom.Point2 `json:"center,omitempty"`
	Radius float64     `json:"radius,omitempty"`

	// Text; Center is the top-left anchor
	Lines    []string `json:"lines,omitempty"`
	FontSize float64  `json:"font_size,omitempty"`

	Fill        color.RGBA `json:"fill"`
	Outline     color.RGBA `json:"outline"`
	StrokeWidth float64    `json:"stroke_width,omitempty"`
}

// Polygon returns a filled polygon command.
func Polygon(points []geom.Point2, fill, outline color.RGBA) Command {
	return Command{Kind: KindPolygon, Points: points, Fill: fill, Outline: outline, StrokeWidth: 1}
}

// Circle returns a filled circle command.
func Circle(center geom.Point2, radius float64, fill, outline color.RGBA, stroke float64) Command {
	return Command{Kind: KindCircle, Center: center, Radius: radius, Fill: fill, Outline: outline, StrokeWidth: stroke}
}

// Text returns a text command anchored at its top-left corner.
func Text(anchor geom.Point2, size float64, fill color.RGBA, lines ...string) Command {
	return Command{Kind: KindText, Center: anchor, Lines: lines, FontSize: size, Fill: fill}
}

// Frame is the full draw list for one tick, in canvas pixels.
type Frame struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Commands []Command `json:"commands"`
}

// Normalized returns a copy with every coordinate and length divided by
// the canvas size, so the frame fits in [0,1] on both axes. Radii and
// font sizes scale by width.
func (f Frame) Normalized() Frame {
	if f.Width == 0 || f.Height == 0 {
		return f
	}
	sx := 1 / float64(f.Width)
	sy := 1 / float64(f.Height)
	norm := func(p geom.Point2) geom.Point2 { return geom.Point2{X: p.X * sx, Y: p.Y * sy} }

	out := Frame{Width: 1, Height: 1, Commands: make([]Command, len(f.Commands))}
	for i, c := range f.Commands {
		n := c
		if len(c.Points) > 0 {
			n.Points = make([]geom.Point2, len(c.Points))
			for j, p := range c.Points {
				n.Points[j] = norm(p)
			}
		}
		n.Center = norm(c.Center)
		n.Radius = c.Radius * sx
		n.FontSize = c.FontSize * sx
		n.StrokeWidth = c.StrokeWidth * sx
		out.Commands[i] = n
	}
	return out
}
