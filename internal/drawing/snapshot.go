package drawing

import (
	"fmt"
	"time"
)

// Snapshot is an ordered, point-in-time materialization of a document's
// model space.
type Snapshot struct {
	Entities []Entity  `json:"entities"`
	TakenAt  time.Time `json:"taken_at"`

	// Unreadable counts entities whose handle could not be read. They are
	// still present in Entities but cannot be protected or deleted by handle.
	Unreadable int `json:"unreadable,omitempty"`
}

// NewSnapshot wraps already-materialized entities.
func NewSnapshot(entities []Entity) *Snapshot {
	return &Snapshot{Entities: entities, TakenAt: time.Now()}
}

// Len returns the number of entities in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Entities)
}

// Take enumerates doc once and materializes every entity.
//
// Only a failure to enumerate model space is returned as an error; every
// per-entity accessor failure becomes an absent field on that Entity.
func Take(doc Document) (*Snapshot, error) {
	refs, err := doc.Entities()
	if err != nil {
		return nil, fmt.Errorf("enumerate model space: %w", err)
	}

	snap := &Snapshot{
		Entities: make([]Entity, 0, len(refs)),
		TakenAt:  time.Now(),
	}
	for _, ref := range refs {
		e, ok := safeMaterialize(ref)
		if !ok || e.Handle == "" {
			snap.Unreadable++
		}
		snap.Entities = append(snap.Entities, e)
	}
	return snap, nil
}

// Materialize reads every property of ref the host can supply.
func Materialize(ref EntityRef) Entity {
	var e Entity

	if h, err := ref.Handle(); err == nil {
		e.Handle = h
	}
	if c, err := ref.Category(); err == nil {
		e.Category = c
	}
	if l, err := ref.Layer(); err == nil {
		e.Layer = l
	}
	if b, err := ref.BoundingBox(); err == nil {
		e.Box = &b
	}

	switch e.Category {
	case CategoryLine:
		start, errS := ref.StartPoint()
		end, errE := ref.EndPoint()
		if errS == nil && errE == nil {
			e.Start = &start
			e.End = &end
		}
	case CategoryPolyline:
		if n, err := ref.VertexCount(); err == nil {
			e.VertexCount = &n
		}
		if closed, err := ref.IsClosed(); err == nil {
			e.Closed = &closed
		}
	case CategoryBlockInstance:
		if name, err := ref.DeclaredName(); err == nil {
			e.DeclaredName = name
		}
	}

	return e
}

// safeMaterialize shields the snapshot from host bindings that panic instead
// of returning an error. A panicking entity is recorded with no properties at
// all, which every detector skips and the pruner keeps.
func safeMaterialize(ref EntityRef) (e Entity, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return Materialize(ref), true
}
