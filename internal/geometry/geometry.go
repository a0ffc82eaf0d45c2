package geometry

import (
	"fmt"
	"math"
)

// Point represents a 2D point in drawing units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Bounds is an axis-aligned bounding box.
//
// Min holds the smallest X and Y, Max the largest. Use NewBounds when the two
// corners may arrive in any order.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// NewBounds builds a normalized box from two opposite corners.
func NewBounds(a, b Point) Bounds {
	return Bounds{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// Width is the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height is the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Area returns Width × Height.
func (b Bounds) Area() float64 { return b.Width() * b.Height() }

// Min returns the lower-left corner.
func (b Bounds) Min() Point { return Point{X: b.MinX, Y: b.MinY} }

// Max returns the upper-right corner.
func (b Bounds) Max() Point { return Point{X: b.MaxX, Y: b.MaxY} }

// Center returns the midpoint of the box.
func (b Bounds) Center() Point { return Midpoint(b.Min(), b.Max()) }

// AspectRatio returns max(w,h)/min(w,h).
//
// The result is always >= 1 for a box with positive extents. If either extent
// is zero or negative the ratio is +Inf, so any "aspect < limit" test rejects
// the box.
func (b Bounds) AspectRatio() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return math.Inf(1)
	}
	return math.Max(w, h) / math.Min(w, h)
}

// Union returns the smallest box containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Expand grows the box by d on every side.
func (b Bounds) Expand(d float64) Bounds {
	return Bounds{MinX: b.MinX - d, MinY: b.MinY - d, MaxX: b.MaxX + d, MaxY: b.MaxY + d}
}

// ContainsWithin reports whether inner lies inside b grown by tolerance on
// every side. Edges are inclusive.
func (b Bounds) ContainsWithin(inner Bounds, tolerance float64) bool {
	return inner.MinX >= b.MinX-tolerance &&
		inner.MinY >= b.MinY-tolerance &&
		inner.MaxX <= b.MaxX+tolerance &&
		inner.MaxY <= b.MaxY+tolerance
}

// String formats the box as "(minX,minY)-(maxX,maxY)".
func (b Bounds) String() string {
	return fmt.Sprintf("(%.2f,%.2f)-(%.2f,%.2f)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}
