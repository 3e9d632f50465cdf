package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/teslashibe/go-turret/pkg/geom"
)

// circleSegments controls how round rasterized circles look.
const circleSegments = 48

// Rasterizer draws frames into RGBA images. It reuses its scanline
// buffer between paths and is not safe for concurrent use.
type Rasterizer struct {
	Background color.RGBA
	face       font.Face
	z          *vector.Rasterizer
}

// NewRasterizer returns a rasterizer that clears to bg.
func NewRasterizer(bg color.RGBA) *Rasterizer {
	return &Rasterizer{Background: bg, face: basicfont.Face7x13}
}

// Rasterize draws every command of f in order onto a fresh image.
func (r *Rasterizer) Rasterize(f Frame) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)

	if r.z == nil {
		r.z = vector.NewRasterizer(f.Width, f.Height)
	}

	for _, c := range f.Commands {
		switch c.Kind {
		case KindPolygon:
			r.fill(dst, c.Points, c.Fill)
			r.stroke(dst, c.Points, c.Outline, c.StrokeWidth)
		case KindCircle:
			pts := circlePoints(c.Center, c.Radius)
			r.fill(dst, pts, c.Fill)
			r.stroke(dst, pts, c.Outline, c.StrokeWidth)
		case KindText:
			r.text(dst, c)
		}
	}
	return dst
}

// EncodePNG rasterizes f and encodes it as PNG.
func (r *Rasterizer) EncodePNG(f Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Rasterize(f)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Rasterizer) fill(dst *image.RGBA, pts []geom.Point2, c color.RGBA) {
	if len(pts) < 3 || c.A == 0 {
		return
	}
	b := dst.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
	r.z.DrawOp = draw.Over
	r.z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		r.z.LineTo(float32(p.X), float32(p.Y))
	}
	r.z.ClosePath()
	r.z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// stroke outlines a closed path by filling a thin quad along each edge.
func (r *Rasterizer) stroke(dst *image.RGBA, pts []geom.Point2, c color.RGBA, width float64) {
	if len(pts) < 2 || width <= 0 || c.A == 0 {
		return
	}
	half := width / 2
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		dx, dy := b.X-a.X, b.Y-a.Y
		n := math.Hypot(dx, dy)
		if n == 0 {
			continue
		}
		ox, oy := -dy/n*half, dx/n*half
		r.fill(dst, []geom.Point2{
			{X: a.X + ox, Y: a.Y + oy},
			{X: b.X + ox, Y: b.Y + oy},
			{X: b.X - ox, Y: b.Y - oy},
			{X: a.X - ox, Y: a.Y - oy},
		}, c)
	}
}

func (r *Rasterizer) text(dst *image.RGBA, c Command) {
	m := r.face.Metrics()
	lineHeight := m.Height.Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c.Fill),
		Face: r.face,
	}
	for i, line := range c.Lines {
		d.Dot = fixed.P(int(c.Center.X), int(c.Center.Y)+m.Ascent.Ceil()+i*lineHeight)
		d.DrawString(line)
	}
}

func circlePoints(center geom.Point2, radius float64) []geom.Point2 {
	pts := make([]geom.Point2, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = geom.Point2{X: center.X + radius*math.Cos(a), Y: center.Y + radius*math.Sin(a)}
	}
	return pts
}
