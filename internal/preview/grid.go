package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/ironsheep/frame-cleaner/internal/geometry"
)

// MaxGridLines caps the grid lines drawn per axis.
const MaxGridLines = 200

// gridLines returns the multiples of spacing within [lo, hi].
func gridLines(lo, hi, spacing float64) []float64 {
	var out []float64
	for v := math.Ceil(lo/spacing) * spacing; v <= hi; v += spacing {
		out = append(out, v)
	}
	return out
}

// checkGrid rejects spacings that would draw more than MaxGridLines lines
// along either axis of vp's world.
func checkGrid(vp viewport, spacing float64) error {
	if spacing <= 0 {
		return nil
	}
	if vp.world.Width()/spacing > MaxGridLines || vp.world.Height()/spacing > MaxGridLines {
		return fmt.Errorf("grid spacing %g is too fine for a %.0f x %.0f drawing", spacing, vp.world.Width(), vp.world.Height())
	}
	return nil
}

// drawGrid rules lines every spacing drawing units across the world extent,
// labelling each with its coordinate along the top and left edges.
func drawGrid(img *image.RGBA, vp viewport, spacing float64, col color.RGBA, labels bool) {
	w := vp.world
	fg := color.RGBA{R: 0x37, G: 0x47, B: 0x4f, A: 0xff}
	bg := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xc0}

	for _, x := range gridLines(w.MinX, w.MaxX, spacing) {
		top := vp.point(geometry.Point{X: x, Y: w.MaxY})
		bottom := vp.point(geometry.Point{X: x, Y: w.MinY})
		drawLine(img, top, bottom, col)
		if labels {
			drawLabel(img, top.X+2, top.Y+2, formatCoord(x), fg, bg)
		}
	}
	for _, y := range gridLines(w.MinY, w.MaxY, spacing) {
		left := vp.point(geometry.Point{X: w.MinX, Y: y})
		right := vp.point(geometry.Point{X: w.MaxX, Y: y})
		drawLine(img, left, right, col)
		if labels {
			drawLabel(img, left.X+2, left.Y+2, formatCoord(y), fg, bg)
		}
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
