package detection

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Overlay colors for the preview stream.
var (
	reticleColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	boxColor     = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	labelColor   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	targetColor  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// Annotate draws the aim reticle, every detection box with its label and a
// ring around target (may be nil) onto a copy of the JPEG frame.
func Annotate(jpeg []byte, dets []Detection, target *Detection, quality int) ([]byte, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, ErrEmptyImage
	}

	center := image.Pt(img.Cols()/2, img.Rows()/2)
	gocv.Circle(&img, center, 10, reticleColor, 2)

	for _, d := range dets {
		r := image.Rect(int(d.Box.X1), int(d.Box.Y1), int(d.Box.X2), int(d.Box.Y2))
		gocv.Rectangle(&img, r, boxColor, 2)

		label := d.ClassName
		size := gocv.GetTextSize(label, gocv.FontHersheySimplex, 0.7, 2)
		bg := image.Rect(r.Min.X, r.Min.Y-size.Y-10, r.Min.X+size.X, r.Min.Y)
		gocv.Rectangle(&img, bg, boxColor, -1)
		gocv.PutText(&img, label, image.Pt(r.Min.X, r.Min.Y-5), gocv.FontHersheySimplex, 0.7, labelColor, 2)
	}

	if target != nil {
		cx, cy := target.Box.Center()
		gocv.Circle(&img, image.Pt(int(cx), int(cy)), 40, targetColor, 3)
	}

	if quality <= 0 || quality > 100 {
		quality = 80
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
