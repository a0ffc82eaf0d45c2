package detection

import (
	"strings"

	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/geometry"
)

// Size and shape limits for the box-based detectors, in drawing units.
const (
	// MinFrameSize is the smallest width and height a block or layer frame
	// may have.
	MinFrameSize = 100.0

	// MaxBlockAspect and MaxLayerAspect reject implausibly elongated block
	// and layer frames.
	MaxBlockAspect = 5.0
	MaxLayerAspect = 5.0

	// MaxFaceAspect is tight because faces used as frames are sheet-shaped.
	MaxFaceAspect = 3.0

	// MaxPolylineAspect is loose because polyline frames vary more.
	MaxPolylineAspect = 10.0
)

var (
	blockNameKeywords = []string{"BORDER", "FRAME", "TITLE"}
	layerNameKeywords = []string{"BORDER", "FRAME"}
)

// DetectBlock finds the largest block instance whose declared name suggests a
// frame or title block.
//
// Names are case-folded and must contain BORDER, FRAME or TITLE. A qualifying
// instance must be wider and taller than MinFrameSize with an aspect ratio
// below MaxBlockAspect. On equal areas the first instance in snapshot order
// wins.
func DetectBlock(snap *drawing.Snapshot) *Candidate {
	var best *drawing.Entity
	bestArea := 0.0

	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Category != drawing.CategoryBlockInstance || e.Box == nil {
			continue
		}
		if !containsAny(strings.ToUpper(e.DeclaredName), blockNameKeywords) {
			continue
		}

		w, h := e.Box.Width(), e.Box.Height()
		if w <= MinFrameSize || h <= MinFrameSize {
			continue
		}
		if e.Box.AspectRatio() >= MaxBlockAspect {
			continue
		}
		if area := e.Box.Area(); area > bestArea {
			best, bestArea = e, area
		}
	}

	if best == nil {
		return nil
	}
	return newCandidate(KindBlock, *best.Box, best.Handle)
}

// IsFrameLayer reports whether a layer name looks like a border layer.
//
// Matches are case-insensitive: BORDER or FRAME anywhere in the name, the
// DEFPOINTS layer, or a "LEVEL " prefix (DGN levels after conversion).
func IsFrameLayer(name string) bool {
	upper := strings.ToUpper(name)
	return containsAny(upper, layerNameKeywords) ||
		upper == "DEFPOINTS" ||
		strings.HasPrefix(upper, "LEVEL ")
}

// DetectLayer proposes the union box of every entity on a frame layer.
//
// This detector produces at most one candidate: the component-wise min/max
// over the boxes of all matching entities, with every matching handle as a
// contributor. Entities without a box are skipped. The union is rejected when
// either side is shorter than MinFrameSize or the aspect ratio reaches
// MaxLayerAspect.
func DetectLayer(snap *drawing.Snapshot) *Candidate {
	var union geometry.Bounds
	handles := make([]string, 0)
	found := false

	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Box == nil || !IsFrameLayer(e.Layer) {
			continue
		}
		if !found {
			union = *e.Box
			found = true
		} else {
			union = union.Union(*e.Box)
		}
		handles = append(handles, e.Handle)
	}

	if !found {
		return nil
	}
	if union.Width() < MinFrameSize || union.Height() < MinFrameSize {
		return nil
	}
	if union.AspectRatio() >= MaxLayerAspect {
		return nil
	}
	return newCandidate(KindLayer, union, handles...)
}

// DetectFace finds the largest face entity with an aspect ratio below
// MaxFaceAspect. Frames that came through DGN conversion often surface as a
// single face.
func DetectFace(snap *drawing.Snapshot) *Candidate {
	return largestBox(snap, drawing.CategoryFace, KindFace, MaxFaceAspect)
}

// DetectPolyline finds the largest polyline, open or closed, with positive
// extents and an aspect ratio below MaxPolylineAspect.
func DetectPolyline(snap *drawing.Snapshot) *Candidate {
	return largestBox(snap, drawing.CategoryPolyline, KindPolyline, MaxPolylineAspect)
}

// largestBox keeps the largest-area entity of one category whose box has
// positive extents and passes the aspect limit. Earlier entities win ties.
func largestBox(snap *drawing.Snapshot, cat drawing.Category, kind Kind, maxAspect float64) *Candidate {
	var best *drawing.Entity
	bestArea := 0.0

	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.Category != cat || e.Box == nil {
			continue
		}
		if e.Box.Width() <= 0 || e.Box.Height() <= 0 {
			continue
		}
		area := e.Box.Area()
		if area <= bestArea {
			continue
		}
		if e.Box.AspectRatio() >= maxAspect {
			continue
		}
		best, bestArea = e, area
	}

	if best == nil {
		return nil
	}
	return newCandidate(kind, *best.Box, best.Handle)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
