package preview

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/frame-cleaner/internal/detection"
)

// Palette holds the preview colours.
type Palette struct {
	Background colorful.Color
	Kept       colorful.Color
	Deleted    colorful.Color
	Caption    colorful.Color
	Grid       colorful.Color
}

// DefaultPalette is a light theme: dark kept geometry, faded red removals.
func DefaultPalette() Palette {
	bg := mustHex("#fafafa")
	return Palette{
		Background: bg,
		Kept:       mustHex("#263238"),
		Deleted:    mustHex("#e53935").BlendLab(bg, 0.35),
		Caption:    mustHex("#ffffff"),
		Grid:       mustHex("#90a4ae").BlendLab(bg, 0.5),
	}
}

var kindHues = map[detection.Kind]float64{
	detection.KindBlock:    210,
	detection.KindLayer:    140,
	detection.KindFace:     280,
	detection.KindPolyline: 30,
	detection.KindLines:    190,
}

// FrameColor returns the outline colour for a detector kind.
func FrameColor(kind detection.Kind) colorful.Color {
	hue, ok := kindHues[kind]
	if !ok {
		return colorful.Hsv(0, 0, 0.4)
	}
	return colorful.Hsv(hue, 0.85, 0.8)
}

// mustHex parses a "#rrggbb" literal and panics on malformed input.
func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
