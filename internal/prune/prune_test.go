package prune

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/frame-cleaner/internal/detection"
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/geometry"
)

func frameCandidate(handles ...string) *detection.Candidate {
	return &detection.Candidate{
		Kind:    detection.KindLayer,
		Bounds:  geometry.Bounds{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 800},
		Handles: handles,
		Area:    800000,
	}
}

func fixture() drawing.Drawing {
	return drawing.Drawing{Entities: []drawing.Record{
		drawing.LineRecord("IN", "0", 10, 10, 990, 10),
		drawing.BoxedRecord("EDGE", "TEXT", "0", -1, -1, 1001, 801),
		drawing.BoxedRecord("JUST-OUT", "TEXT", "0", -1.5, 100, 50, 200),
		drawing.BoxedRecord("FAR", "CIRCLE", "0", 5000, 5000, 5100, 5100),
		drawing.BoxedRecord("STRADDLE", "TEXT", "0", 900, 700, 1100, 900),
		drawing.BoxedRecord("FRAME", "LWPOLYLINE", "BORDER", -20, -20, 1020, 820),
		{ID: "NOBOX", Type: "TEXT"},
		drawing.BoxedRecord("", "TEXT", "0", 9000, 9000, 9100, 9100),
	}}
}

func take(t *testing.T, doc drawing.Document) *drawing.Snapshot {
	t.Helper()
	snap, err := drawing.Take(doc)
	require.NoError(t, err)
	return snap
}

func TestNewPlan(t *testing.T) {
	doc := drawing.NewMemoryDocument("d", fixture(), nil)
	plan, err := NewPlan(take(t, doc), frameCandidate("FRAME"), 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultTolerance, plan.Tolerance)
	assert.Equal(t, []string{"JUST-OUT", "FAR", "STRADDLE"}, plan.Deletes())
	assert.Equal(t, 5, plan.Kept())

	reasons := make(map[string]Reason)
	for _, d := range plan.Decisions {
		reasons[d.Handle] = d.Reason
	}
	assert.Equal(t, ReasonInside, reasons["IN"])
	assert.Equal(t, ReasonInside, reasons["EDGE"], "tolerance is inclusive")
	assert.Equal(t, ReasonFrame, reasons["FRAME"])
	assert.Equal(t, ReasonNoBox, reasons["NOBOX"])
	assert.Equal(t, ReasonNoHandle, reasons[""])
}

func TestNewPlan_CustomTolerance(t *testing.T) {
	doc := drawing.NewMemoryDocument("d", fixture(), nil)
	plan, err := NewPlan(take(t, doc), frameCandidate("FRAME"), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"FAR", "STRADDLE"}, plan.Deletes())
}

func TestNewPlan_RequiresCandidate(t *testing.T) {
	_, err := NewPlan(drawing.NewSnapshot(nil), nil, 1)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	doc := drawing.NewMemoryDocument("d", fixture(), nil)
	plan, err := NewPlan(take(t, doc), frameCandidate("FRAME"), DefaultTolerance)
	require.NoError(t, err)

	res, err := Apply(doc, plan)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Deleted)
	assert.Empty(t, res.Failures)

	n, err := doc.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestApply_FailuresDoNotAbort(t *testing.T) {
	doc := drawing.NewMemoryDocument("d", fixture(), nil)
	doc.FailDeletes = map[string]error{"FAR": errors.New("entity is on a locked layer")}

	plan, err := NewPlan(take(t, doc), frameCandidate("FRAME"), DefaultTolerance)
	require.NoError(t, err)

	res, err := Apply(doc, plan)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "FAR", res.Failures[0].Handle)
	assert.Contains(t, res.Failures[0].Err, "locked layer")
}

type panickyDocument struct {
	*drawing.MemoryDocument
}

func (p panickyDocument) Delete(handle string) error {
	if handle == "FAR" {
		panic("binding crashed")
	}
	return p.MemoryDocument.Delete(handle)
}

func TestApply_HostPanicIsAFailure(t *testing.T) {
	doc := panickyDocument{drawing.NewMemoryDocument("d", fixture(), nil)}
	plan, err := NewPlan(take(t, doc), frameCandidate("FRAME"), DefaultTolerance)
	require.NoError(t, err)

	res, err := Apply(doc, plan)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Err, "binding crashed")
}

func TestApply_ClosedDocument(t *testing.T) {
	doc := drawing.NewMemoryDocument("d", fixture(), nil)
	plan, err := NewPlan(take(t, doc), frameCandidate("FRAME"), DefaultTolerance)
	require.NoError(t, err)
	require.NoError(t, doc.Close())

	_, err = Apply(doc, plan)
	assert.ErrorIs(t, err, drawing.ErrClosed)
}

// Every kept entity with a box and a handle that is not part of the frame
// must lie within the frame, and no frame entity is ever deleted.
func TestPrunedDocumentInvariants(t *testing.T) {
	doc := drawing.NewMemoryDocument("d", fixture(), nil)
	snap := take(t, doc)
	c := frameCandidate("FRAME")

	plan, err := NewPlan(snap, c, DefaultTolerance)
	require.NoError(t, err)
	_, err = Apply(doc, plan)
	require.NoError(t, err)

	after := take(t, doc)
	protected := c.Protected()
	for _, e := range after.Entities {
		if _, ok := protected[e.Handle]; ok || e.Box == nil || e.Handle == "" {
			continue
		}
		assert.True(t, c.Bounds.ContainsWithin(*e.Box, DefaultTolerance), "entity %s outside frame", e.Handle)
	}
	for h := range protected {
		found := false
		for _, e := range after.Entities {
			found = found || e.Handle == h
		}
		assert.True(t, found, "frame entity %s was deleted", h)
	}
}
