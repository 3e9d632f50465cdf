package render

import "image/color"

// Style holds colors and marker sizes.
type Style struct {
	Background   color.RGBA
	Base         color.RGBA
	PanArm       color.RGBA
	TiltArm      color.RGBA
	Edge         color.RGBA
	Joint        color.RGBA
	Text         color.RGBA
	FlashFill    color.RGBA
	FlashOutline color.RGBA

	BaseRadius  float64
	JointRadius float64
	FlashRadius float64
	FlashStroke float64
	FontSize    float64
}

// Named colors.
var (
	White  = color.RGBA{255, 255, 255, 255}
	Black  = color.RGBA{0, 0, 0, 255}
	Gray   = color.RGBA{128, 128, 128, 255}
	Blue   = color.RGBA{0, 0, 255, 255}
	Red    = color.RGBA{255, 0, 0, 255}
	Orange = color.RGBA{255, 165, 0, 255}
)

// DefaultStyle is the stock look: gray base, blue pan arm, red tilt arm.
func DefaultStyle() Style {
	return Style{
		Background:   White,
		Base:         Gray,
		PanArm:       Blue,
		TiltArm:      Red,
		Edge:         Black,
		Joint:        Black,
		Text:         Black,
		FlashFill:    Orange,
		FlashOutline: Red,

		BaseRadius:  30,
		JointRadius: 6,
		FlashRadius: 15,
		FlashStroke: 2,
		FontSize:    14,
	}
}
