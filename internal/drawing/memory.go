package drawing

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// ErrClosed is returned by any Document method called after Close.
var ErrClosed = errors.New("document closed")

// MemoryDocument is a Document backed by an in-memory Drawing.
//
// Deletes mutate the held Drawing. Save hands the current state to the save
// function supplied at construction.
type MemoryDocument struct {
	name    string
	drawing Drawing
	save    func(path string, d Drawing) error
	closed  bool

	// FailDeletes makes Delete fail for the listed handles.
	FailDeletes map[string]error

	// FailCount makes Count fail with this error when non-nil.
	FailCount error
}

// NewMemoryDocument wraps d. The document owns a copy of the entity slice.
// save may be nil, in which case Save only validates the document is open.
func NewMemoryDocument(name string, d Drawing, save func(path string, d Drawing) error) *MemoryDocument {
	entities := make([]Record, len(d.Entities))
	copy(entities, d.Entities)
	d.Entities = entities
	return &MemoryDocument{name: name, drawing: d, save: save}
}

func (m *MemoryDocument) Name() string { return m.name }

// Drawing returns the document's current state.
func (m *MemoryDocument) Drawing() Drawing { return m.drawing }

func (m *MemoryDocument) Entities() ([]EntityRef, error) {
	if m.closed {
		return nil, ErrClosed
	}
	refs := make([]EntityRef, len(m.drawing.Entities))
	for i, r := range m.drawing.Entities {
		refs[i] = r
	}
	return refs, nil
}

func (m *MemoryDocument) Count() (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	if m.FailCount != nil {
		return 0, m.FailCount
	}
	return len(m.drawing.Entities), nil
}

func (m *MemoryDocument) Delete(handle string) error {
	if m.closed {
		return ErrClosed
	}
	if err, ok := m.FailDeletes[handle]; ok {
		return err
	}
	for i, r := range m.drawing.Entities {
		if r.ID == handle {
			m.drawing.Entities = append(m.drawing.Entities[:i], m.drawing.Entities[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, handle)
}

func (m *MemoryDocument) Save(path string) error {
	if m.closed {
		return ErrClosed
	}
	if m.save == nil {
		return nil
	}
	return m.save(path, m.drawing)
}

func (m *MemoryDocument) Close() error {
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	return nil
}

// MemoryHost serves drawings registered by path and records every save.
//
// It is the stand-in collaborator for tests and for callers that already
// hold entity records. The failure knobs let tests exercise the cleaner's
// retry and failure paths.
type MemoryHost struct {
	mu       sync.Mutex
	drawings map[string]Drawing
	saved    map[string]Drawing
	opens    map[string]int

	// OpenFailures makes the first N opens of a path fail.
	OpenFailures map[string]int

	// SaveErr makes every Save fail with this error when non-nil.
	SaveErr error

	// Documents records every document handed out, most recent last.
	Documents []*MemoryDocument
}

// NewMemoryHost returns an empty host.
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		drawings:     make(map[string]Drawing),
		saved:        make(map[string]Drawing),
		opens:        make(map[string]int),
		OpenFailures: make(map[string]int),
	}
}

// Add registers a drawing under path.
func (h *MemoryHost) Add(path string, d Drawing) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drawings[path] = d
}

// Saved returns the drawing last saved to path.
func (h *MemoryHost) Saved(path string) (Drawing, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.saved[path]
	return d, ok
}

// Opens returns how many times path has been opened, failed attempts
// included.
func (h *MemoryHost) Opens(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opens[path]
}

func (h *MemoryHost) Open(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.opens[path]++
	if h.opens[path] <= h.OpenFailures[path] {
		return nil, fmt.Errorf("open %s: host busy (attempt %d)", path, h.opens[path])
	}

	d, ok := h.drawings[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
	}

	doc := NewMemoryDocument(filepath.Base(path), d, func(out string, state Drawing) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.SaveErr != nil {
			return h.SaveErr
		}
		saved := state
		saved.Entities = append([]Record(nil), state.Entities...)
		h.saved[out] = saved
		return nil
	})
	h.Documents = append(h.Documents, doc)
	return doc, nil
}
