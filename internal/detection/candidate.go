package detection

import (
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/geometry"
)

// Kind names the detector that produced a candidate.
type Kind string

const (
	KindBlock    Kind = "block"
	KindLayer    Kind = "layer"
	KindFace     Kind = "face"
	KindPolyline Kind = "polyline"
	KindLines    Kind = "lines"
)

// Candidate is one detector's proposal for the drawing frame.
type Candidate struct {
	// Kind is the detector that produced this candidate.
	Kind Kind `json:"kind"`

	// Bounds is the proposed frame.
	Bounds geometry.Bounds `json:"bounds"`

	// Handles are the entities that define the frame. The pruner never
	// deletes them, wherever their own boxes lie.
	Handles []string `json:"handles"`

	// Area is Bounds width × height.
	Area float64 `json:"area"`

	// Tolerance is the connectivity tolerance the line-rectangle search
	// succeeded at. Zero for other kinds and for the longest-lines fallback.
	Tolerance float64 `json:"tolerance,omitempty"`

	// Fallback is set when the line-rectangle detector gave up on
	// connectivity and used the longest lines.
	Fallback bool `json:"fallback,omitempty"`
}

// newCandidate builds a candidate and returns nil when the bounds enclose no
// area.
func newCandidate(kind Kind, b geometry.Bounds, handles ...string) *Candidate {
	area := b.Area()
	if !(area > 0) {
		return nil
	}
	hs := make([]string, 0, len(handles))
	for _, h := range handles {
		if h != "" {
			hs = append(hs, h)
		}
	}
	return &Candidate{Kind: kind, Bounds: b, Handles: hs, Area: area}
}

// Width is the frame's horizontal extent.
func (c *Candidate) Width() float64 { return c.Bounds.Width() }

// Height is the frame's vertical extent.
func (c *Candidate) Height() float64 { return c.Bounds.Height() }

// Protected returns the contributing handles as a set.
func (c *Candidate) Protected() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Handles))
	for _, h := range c.Handles {
		set[h] = struct{}{}
	}
	return set
}

// Detector is a named heuristic over a snapshot.
type Detector struct {
	Kind   Kind
	Detect func(snap *drawing.Snapshot) *Candidate
}

// Primary lists the detectors that compete on area, in tie-break priority
// order. Position in this list is the only thing that encodes priority.
var Primary = []Detector{
	{Kind: KindBlock, Detect: DetectBlock},
	{Kind: KindLayer, Detect: DetectLayer},
	{Kind: KindFace, Detect: DetectFace},
	{Kind: KindPolyline, Detect: DetectPolyline},
}
