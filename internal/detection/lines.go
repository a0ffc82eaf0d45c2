package detection

import (
	"sort"

	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/geometry"
)

// ToleranceLadder is the sequence of endpoint connectivity tolerances tried
// by the line-rectangle search, largest first.
var ToleranceLadder = []float64{50, 20, 10, 5, 2, 1}

// MaxLinesPerAxis caps how many of the longest horizontal and vertical lines
// the rectangle search considers.
const MaxLinesPerAxis = 30

// Line is a classified line entity.
type Line struct {
	Handle string         `json:"handle"`
	Start  geometry.Point `json:"start"`
	End    geometry.Point `json:"end"`
	Length float64        `json:"length"`
	Mid    geometry.Point `json:"mid"`
}

func (l Line) endpoints() [2]geometry.Point {
	return [2]geometry.Point{l.Start, l.End}
}

// gap returns the smallest distance between any endpoint of a and any
// endpoint of b.
func gap(a, b Line) float64 {
	best := -1.0
	for _, p := range a.endpoints() {
		for _, q := range b.endpoints() {
			if d := geometry.Distance(p, q); best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

// LineSet holds the classified lines of a snapshot, each class sorted by
// length descending.
type LineSet struct {
	Horizontal []Line `json:"horizontal"`
	Vertical   []Line `json:"vertical"`
}

// ClassifyLines sorts the snapshot's line entities into horizontal and
// vertical classes.
//
// A line is horizontal when |dx| > 2|dy| and vertical when |dy| > 2|dx|.
// Diagonal and zero-length lines, and lines without readable endpoints, are
// dropped. Both classes are stable-sorted by length, longest first.
func ClassifyLines(snap *drawing.Snapshot) LineSet {
	var set LineSet

	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Category != drawing.CategoryLine || e.Start == nil || e.End == nil {
			continue
		}

		length := geometry.Distance(*e.Start, *e.End)
		if length <= 0 {
			continue
		}

		dx := abs(e.End.X - e.Start.X)
		dy := abs(e.End.Y - e.Start.Y)
		l := Line{
			Handle: e.Handle,
			Start:  *e.Start,
			End:    *e.End,
			Length: length,
			Mid:    geometry.Midpoint(*e.Start, *e.End),
		}

		switch {
		case dx > 2*dy:
			set.Horizontal = append(set.Horizontal, l)
		case dy > 2*dx:
			set.Vertical = append(set.Vertical, l)
		}
	}

	byLength := func(lines []Line) {
		sort.SliceStable(lines, func(i, j int) bool {
			return lines[i].Length > lines[j].Length
		})
	}
	byLength(set.Horizontal)
	byLength(set.Vertical)

	return set
}

// Quad is the four lines chosen as a frame.
type Quad struct {
	Bottom Line `json:"bottom"`
	Top    Line `json:"top"`
	Left   Line `json:"left"`
	Right  Line `json:"right"`
}

// Bounds returns the frame spanned by the quad's midpoints.
func (q Quad) Bounds() geometry.Bounds {
	return geometry.Bounds{
		MinX: q.Left.Mid.X,
		MinY: q.Bottom.Mid.Y,
		MaxX: q.Right.Mid.X,
		MaxY: q.Top.Mid.Y,
	}
}

func (q Quad) handles() []string {
	return []string{q.Bottom.Handle, q.Top.Handle, q.Left.Handle, q.Right.Handle}
}

// newQuad orders two horizontals by midpoint Y and two verticals by
// midpoint X.
func newQuad(h1, h2, v1, v2 Line) Quad {
	if h2.Mid.Y < h1.Mid.Y {
		h1, h2 = h2, h1
	}
	if v2.Mid.X < v1.Mid.X {
		v1, v2 = v2, v1
	}
	return Quad{Bottom: h1, Top: h2, Left: v1, Right: v2}
}

// FindRectangle searches for two horizontals and two verticals whose
// endpoints connect pairwise within tolerance.
//
// Every horizontal must meet both verticals and every vertical both
// horizontals. The search enumerates ordered pairs h1, h2 (distinct) over
// horizontal, then ordered pairs v1, v2 (distinct) over vertical, and returns
// the first quad that connects and encloses a positive area. Inputs are expected longest-first, so the
// first hit favors long lines.
func FindRectangle(horizontal, vertical []Line, tolerance float64) (Quad, bool) {
	gaps := gapMatrix(horizontal, vertical)
	return findRectangle(horizontal, vertical, gaps, tolerance)
}

func gapMatrix(horizontal, vertical []Line) [][]float64 {
	gaps := make([][]float64, len(horizontal))
	for i, h := range horizontal {
		gaps[i] = make([]float64, len(vertical))
		for j, v := range vertical {
			gaps[i][j] = gap(h, v)
		}
	}
	return gaps
}

func findRectangle(horizontal, vertical []Line, gaps [][]float64, tolerance float64) (Quad, bool) {
	for i := range horizontal {
		for j := range horizontal {
			if i == j {
				continue
			}
			for k := range vertical {
				if gaps[i][k] > tolerance || gaps[j][k] > tolerance {
					continue
				}
				for m := range vertical {
					if k == m {
						continue
					}
					if gaps[i][m] > tolerance || gaps[j][m] > tolerance {
						continue
					}
					// Duplicated edges connect but enclose nothing.
					quad := newQuad(horizontal[i], horizontal[j], vertical[k], vertical[m])
					if quad.Bounds().Area() > 0 {
						return quad, true
					}
				}
			}
		}
	}
	return Quad{}, false
}

// DetectLines is the line-rectangle fallback detector.
//
// It needs at least two horizontal and two vertical lines. The 30 longest of
// each class are searched at each tolerance of ToleranceLadder in order, and
// the first tolerance that yields a rectangle wins. When none does, the two
// longest lines of each class are used regardless of connectivity.
//
// The candidate's bounds come from line midpoints (see Quad.Bounds).
func DetectLines(snap *drawing.Snapshot) *Candidate {
	set := ClassifyLines(snap)
	if len(set.Horizontal) < 2 || len(set.Vertical) < 2 {
		return nil
	}

	topH := set.Horizontal[:min(MaxLinesPerAxis, len(set.Horizontal))]
	topV := set.Vertical[:min(MaxLinesPerAxis, len(set.Vertical))]
	gaps := gapMatrix(topH, topV)

	for _, tol := range ToleranceLadder {
		if quad, ok := findRectangle(topH, topV, gaps, tol); ok {
			c := newCandidate(KindLines, quad.Bounds(), quad.handles()...)
			if c != nil {
				c.Tolerance = tol
			}
			return c
		}
	}

	quad := newQuad(set.Horizontal[0], set.Horizontal[1], set.Vertical[0], set.Vertical[1])
	c := newCandidate(KindLines, quad.Bounds(), quad.handles()...)
	if c != nil {
		c.Fallback = true
	}
	return c
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
