package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/frame-cleaner/internal/detection"
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/geometry"
	"github.com/ironsheep/frame-cleaner/internal/prune"
)

// ErrNothingToDraw is returned when no entity has a bounding box.
var ErrNothingToDraw = errors.New("no entity with a bounding box")

// Options controls rendering.
type Options struct {
	// Size is the longest canvas side in pixels.
	Size int

	// Margin is the blank border around the drawing in pixels.
	Margin int

	// Caption draws the detector kind and frame size at the top left.
	Caption bool

	// Grid rules a coordinate grid every Grid drawing units. Zero draws
	// none.
	Grid float64

	// GridLabels writes the coordinate of each grid line.
	GridLabels bool

	Palette Palette
}

// DefaultOptions returns a 1024 px captioned preview.
func DefaultOptions() Options {
	return Options{Size: 1024, Margin: 16, Caption: true, Palette: DefaultPalette()}
}

// viewport maps drawing coordinates onto the canvas, flipping Y.
type viewport struct {
	world  geometry.Bounds
	scale  float64
	margin int
	height int
}

func (v viewport) point(p geometry.Point) image.Point {
	x := float64(v.margin) + (p.X-v.world.MinX)*v.scale
	y := float64(v.height-v.margin) - (p.Y-v.world.MinY)*v.scale
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

// Render draws snap. c and plan may be nil: without a candidate no frame is
// drawn, without a plan every entity is drawn as kept.
func Render(snap *drawing.Snapshot, c *detection.Candidate, plan *prune.Plan, opts Options) (*image.RGBA, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Margin < 0 || 2*opts.Margin >= opts.Size {
		return nil, fmt.Errorf("margin %d does not fit a %d px canvas", opts.Margin, opts.Size)
	}

	world, ok := extent(snap, c)
	if !ok {
		return nil, ErrNothingToDraw
	}

	span := math.Max(world.Width(), world.Height())
	if span <= 0 {
		span = 1
	}
	inner := float64(opts.Size - 2*opts.Margin)
	scale := inner / span
	w := int(math.Round(world.Width()*scale)) + 2*opts.Margin
	h := int(math.Round(world.Height()*scale)) + 2*opts.Margin
	vp := viewport{world: world, scale: scale, margin: opts.Margin, height: h}
	if err := checkGrid(vp, opts.Grid); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.Draw(img, img.Bounds(), image.NewUniform(rgba(opts.Palette.Background)), image.Point{}, draw.Src)
	if opts.Grid > 0 {
		drawGrid(img, vp, opts.Grid, rgba(opts.Palette.Grid), opts.GridLabels)
	}

	deleted := make(map[string]bool)
	if plan != nil {
		for _, handle := range plan.Deletes() {
			deleted[handle] = true
		}
	}

	kept := rgba(opts.Palette.Kept)
	removed := rgba(opts.Palette.Deleted)
	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Box == nil {
			continue
		}
		col := kept
		if deleted[e.Handle] {
			col = removed
		}
		if e.Category == drawing.CategoryLine && e.Start != nil && e.End != nil {
			drawLine(img, vp.point(*e.Start), vp.point(*e.End), col)
			continue
		}
		drawRect(img, vp.point(e.Box.Min()), vp.point(e.Box.Max()), col, 1)
	}

	if c != nil {
		drawRect(img, vp.point(c.Bounds.Min()), vp.point(c.Bounds.Max()), rgba(FrameColor(c.Kind)), 3)
	}

	if opts.Caption {
		drawLabel(img, 4, 4, caption(c), rgba(opts.Palette.Caption), color.RGBA{0, 0, 0, 180})
	}
	return img, nil
}

func caption(c *detection.Candidate) string {
	if c == nil {
		return "no border"
	}
	return fmt.Sprintf("%s %.2f x %.2f", c.Kind, c.Width(), c.Height())
}

// extent is the union of every entity box and the frame.
func extent(snap *drawing.Snapshot, c *detection.Candidate) (geometry.Bounds, bool) {
	var world geometry.Bounds
	found := false
	add := func(b geometry.Bounds) {
		if !found {
			world, found = b, true
			return
		}
		world = world.Union(b)
	}
	for i := range snap.Entities {
		if b := snap.Entities[i].Box; b != nil {
			add(*b)
		}
	}
	if c != nil {
		add(c.Bounds)
	}
	return world, found
}

// drawRect outlines the rectangle spanned by two corners with the given
// stroke width, growing inwards.
func drawRect(img *image.RGBA, a, b image.Point, col color.RGBA, stroke int) {
	r := image.Rectangle{Min: a, Max: b}.Canon()
	for i := 0; i < stroke; i++ {
		x0, y0 := r.Min.X+i, r.Min.Y+i
		x1, y1 := r.Max.X-i, r.Max.Y-i
		if x0 > x1 || y0 > y1 {
			break
		}
		drawLine(img, image.Pt(x0, y0), image.Pt(x1, y0), col)
		drawLine(img, image.Pt(x0, y1), image.Pt(x1, y1), col)
		drawLine(img, image.Pt(x0, y0), image.Pt(x0, y1), col)
		drawLine(img, image.Pt(x1, y0), image.Pt(x1, y1), col)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm. Pixels outside
// the image are dropped.
func drawLine(img *image.RGBA, a, b image.Point, col color.RGBA) {
	dx := absInt(b.X - a.X)
	dy := -absInt(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		if (image.Point{X: x, Y: y}).In(img.Bounds()) {
			img.SetRGBA(x, y, col)
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// drawLabel draws text on a filled background box with its top-left corner
// at (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	box := image.Rect(x, y, x+width+4, y+face.Height+2).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x + 2), Y: fixed.I(y + face.Ascent + 1)},
	}
	d.DrawString(text)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
