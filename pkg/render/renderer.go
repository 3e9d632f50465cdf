package render

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/teslashibe/go-turret/pkg/fire"
	"github.com/teslashibe/go-turret/pkg/geom"
	"github.com/teslashibe/go-turret/pkg/linkage"
	"github.com/teslashibe/go-turret/pkg/pose"
)

// Renderer maps a pose to draw commands. It holds no per-frame state and
// is safe to call every tick from any goroutine.
type Renderer struct {
	Projector geom.Projector
	Linkage   linkage.Linkage
	Style     Style
	Width     int
	Height    int
}

// New returns a renderer for a width x height canvas.
func New(width, height int, fov float64, l linkage.Linkage, style Style) Renderer {
	return Renderer{
		Projector: geom.NewProjector(width, height, fov),
		Linkage:   l,
		Style:     style,
		Width:     width,
		Height:    height,
	}
}

// Default returns a renderer with stock geometry on a 1000x1000 canvas.
func Default() Renderer {
	return New(geom.DefaultCanvasSize, geom.DefaultCanvasSize, geom.DefaultFOV, linkage.DefaultLinkage(), DefaultStyle())
}

// Render draws the turret at p with no fire flash.
func (r Renderer) Render(p pose.Pose) Frame {
	return r.RenderWithFlash(p, fire.State{})
}

// RenderWithFlash draws base, pan arm, tilt arm, joint and readout, then
// the muzzle flash if s is active. p is wrapped and clamped first; a
// non-finite axis draws as 0.
func (r Renderer) RenderWithFlash(p pose.Pose, s fire.State) Frame {
	p = pose.New(p.Pan, p.Tilt)
	cmds := make([]Command, 0, 16)
	center := geom.Point2{X: r.Projector.CenterX, Y: r.Projector.CenterY}

	cmds = append(cmds, Circle(center, r.Style.BaseRadius, r.Style.Base, r.Style.Edge, 1))

	panArm := r.Linkage.PanArmWorld(p)
	cmds = r.appendCuboid(cmds, panArm, r.Style.PanArm)

	tiltArm := r.Linkage.TiltArmWorld(p)
	cmds = r.appendCuboid(cmds, tiltArm, r.Style.TiltArm)

	cmds = append(cmds, Circle(r.Joint2D(p), r.Style.JointRadius, r.Style.Joint, r.Style.Joint, 0))

	cmds = append(cmds, Text(geom.Point2{X: 10, Y: 10}, r.Style.FontSize, r.Style.Text,
		fmt.Sprintf("Pan: %s°", formatAngle(p.Pan)),
		fmt.Sprintf("Tilt: %s°", formatAngle(p.Tilt)),
	))

	if s.Active {
		cmds = append(cmds, Circle(s.Muzzle, r.Style.FlashRadius, r.Style.FlashFill, r.Style.FlashOutline, r.Style.FlashStroke))
	}

	return Frame{Width: r.Width, Height: r.Height, Commands: cmds}
}

// Joint2D projects the pan tip, the same point the kinematics report.
func (r Renderer) Joint2D(p pose.Pose) geom.Point2 {
	return r.Projector.Project(r.Linkage.PanTip(p)).Point2
}

// Muzzle2D projects the tilt arm tip.
func (r Renderer) Muzzle2D(p pose.Pose) geom.Point2 {
	p = pose.New(p.Pan, p.Tilt)
	return r.Projector.Project(r.Linkage.Muzzle(p)).Point2
}

// appendCuboid emits the cuboid's faces back to front.
func (r Renderer) appendCuboid(cmds []Command, verts [8]geom.Vec3, fill color.RGBA) []Command {
	for _, f := range SortFaces(verts) {
		pts := make([]geom.Point2, len(f))
		for i, idx := range f {
			pts[i] = r.Projector.Project(verts[idx]).Point2
		}
		cmds = append(cmds, Polygon(pts, fill, r.Style.Edge))
	}
	return cmds
}

// SortFaces orders the cuboid faces by descending mean depth, so farther
// faces come first. Ties keep topology order.
func SortFaces(verts [8]geom.Vec3) [6][4]int {
	faces := linkage.Faces
	depth := func(f [4]int) float64 {
		return (verts[f[0]].Z + verts[f[1]].Z + verts[f[2]].Z + verts[f[3]].Z) / 4
	}
	sort.SliceStable(faces[:], func(i, j int) bool {
		return depth(faces[i]) > depth(faces[j])
	})
	return faces
}

// formatAngle prints whole degrees without a fraction.
func formatAngle(deg float64) string {
	if deg == float64(int64(deg)) {
		return fmt.Sprintf("%d", int64(deg))
	}
	return fmt.Sprintf("%.1f", deg)
}
