package prune

import (
	"errors"
	"fmt"

	"github.com/ironsheep/frame-cleaner/internal/detection"
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/geometry"
)

// DefaultTolerance is the slack, in drawing units, allowed on each side of
// the frame before an entity counts as outside.
const DefaultTolerance = 1.0

// Reason says how an entity was classified.
type Reason string

const (
	ReasonInside   Reason = "inside"
	ReasonFrame    Reason = "frame"
	ReasonNoBox    Reason = "no_bounding_box"
	ReasonNoHandle Reason = "no_handle"
	ReasonOutside  Reason = "outside"
)

// Decision is the classification of one snapshot entity.
type Decision struct {
	Handle string `json:"handle"`
	Delete bool   `json:"delete"`
	Reason Reason `json:"reason"`
}

// Plan is the deletion set for one snapshot, in snapshot order.
type Plan struct {
	Frame     geometry.Bounds `json:"frame"`
	Tolerance float64         `json:"tolerance"`
	Decisions []Decision      `json:"decisions"`
}

// Deletes returns the planned handles in snapshot order.
func (p *Plan) Deletes() []string {
	var out []string
	for _, d := range p.Decisions {
		if d.Delete {
			out = append(out, d.Handle)
		}
	}
	return out
}

// Kept returns how many entities the plan leaves in place.
func (p *Plan) Kept() int {
	n := 0
	for _, d := range p.Decisions {
		if !d.Delete {
			n++
		}
	}
	return n
}

// NewPlan classifies every entity of snap against the frame of c.
//
// A tolerance of zero or less uses DefaultTolerance. NewPlan does not touch
// any document.
func NewPlan(snap *drawing.Snapshot, c *detection.Candidate, tolerance float64) (*Plan, error) {
	if c == nil {
		return nil, errors.New("no frame to prune against")
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	protected := c.Protected()
	plan := &Plan{
		Frame:     c.Bounds,
		Tolerance: tolerance,
		Decisions: make([]Decision, 0, snap.Len()),
	}

	for i := range snap.Entities {
		e := &snap.Entities[i]
		d := Decision{Handle: e.Handle}
		switch {
		case e.Handle == "":
			d.Reason = ReasonNoHandle
		case isProtected(protected, e.Handle):
			d.Reason = ReasonFrame
		case e.Box == nil:
			d.Reason = ReasonNoBox
		case c.Bounds.ContainsWithin(*e.Box, tolerance):
			d.Reason = ReasonInside
		default:
			d.Delete = true
			d.Reason = ReasonOutside
		}
		plan.Decisions = append(plan.Decisions, d)
	}
	return plan, nil
}

func isProtected(set map[string]struct{}, handle string) bool {
	_, ok := set[handle]
	return ok
}

// Failure records a delete request the host refused.
type Failure struct {
	Handle string `json:"handle"`
	Err    string `json:"error"`
}

// Result summarizes an Apply pass.
type Result struct {
	Deleted  int       `json:"deleted"`
	Failures []Failure `json:"failures,omitempty"`
}

// Apply requests deletion of every planned handle from doc.
//
// Failed deletes are collected in Result.Failures and the pass continues.
// Apply never returns an error for a single entity; the returned error is
// reserved for a document that was closed underneath the pass.
func Apply(doc drawing.Document, plan *Plan) (Result, error) {
	var res Result
	for _, h := range plan.Deletes() {
		err := safeDelete(doc, h)
		if err == nil {
			res.Deleted++
			continue
		}
		if errors.Is(err, drawing.ErrClosed) {
			return res, fmt.Errorf("delete %s: %w", h, err)
		}
		res.Failures = append(res.Failures, Failure{Handle: h, Err: err.Error()})
	}
	return res, nil
}

// safeDelete turns a panicking host binding into an ordinary failure.
func safeDelete(doc drawing.Document, handle string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host panic: %v", r)
		}
	}()
	return doc.Delete(handle)
}
