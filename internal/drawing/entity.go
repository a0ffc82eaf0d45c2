package drawing

import (
	"context"
	"errors"
	"strings"

	"github.com/ironsheep/frame-cleaner/internal/geometry"
)

// ErrUnavailable is returned by an EntityRef accessor when the host cannot
// supply that property for the entity.
var ErrUnavailable = errors.New("property unavailable")

// ErrNotFound is returned by Document.Delete for an unknown handle.
var ErrNotFound = errors.New("entity not found")

// Category is the coarse entity class the detectors dispatch on.
type Category int

const (
	CategoryOther Category = iota
	CategoryLine
	CategoryPolyline
	CategoryFace
	CategoryBlockInstance
)

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case CategoryLine:
		return "line"
	case CategoryPolyline:
		return "polyline"
	case CategoryFace:
		return "face"
	case CategoryBlockInstance:
		return "block"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the names produced by String as well as any host
// type name understood by ParseCategory.
func (c *Category) UnmarshalText(text []byte) error {
	switch string(text) {
	case "line":
		*c = CategoryLine
	case "polyline":
		*c = CategoryPolyline
	case "face":
		*c = CategoryFace
	case "block":
		*c = CategoryBlockInstance
	case "other":
		*c = CategoryOther
	default:
		*c = ParseCategory(string(text))
	}
	return nil
}

// ParseCategory maps a host entity type name to a Category.
//
// Both DXF-style names (LINE, LWPOLYLINE, 3DFACE, INSERT) and object-model
// class names (AcDbLine, AcDbPolyline, AcDbFace, AcDbBlockReference) are
// recognized. Anything else is CategoryOther.
func ParseCategory(typeName string) Category {
	name := strings.ToUpper(strings.TrimSpace(typeName))
	name = strings.TrimPrefix(name, "ACDB")

	switch {
	case strings.Contains(name, "POLYLINE"):
		return CategoryPolyline
	case strings.Contains(name, "FACE"):
		return CategoryFace
	case name == "INSERT" || name == "BLOCKREFERENCE" || name == "MINSERTBLOCK":
		return CategoryBlockInstance
	case name == "LINE":
		return CategoryLine
	default:
		return CategoryOther
	}
}

// EntityRef is the host's live view of one model-space entity.
//
// Category-specific accessors return ErrUnavailable (or any other error) when
// called on an entity of the wrong category or when the host fails.
type EntityRef interface {
	Handle() (string, error)
	Category() (Category, error)
	Layer() (string, error)
	BoundingBox() (geometry.Bounds, error)
	StartPoint() (geometry.Point, error)
	EndPoint() (geometry.Point, error)
	VertexCount() (int, error)
	IsClosed() (bool, error)
	DeclaredName() (string, error)
}

// Document is one drawing open in a host session.
type Document interface {
	// Name is the document's file name, for logs and reports.
	Name() string

	// Entities enumerates model space in host order.
	Entities() ([]EntityRef, error)

	// Count re-queries the number of model-space entities.
	Count() (int, error)

	// Delete removes the entity with the given handle.
	Delete(handle string) error

	// Save writes the document to path.
	Save(path string) error

	// Close releases the document without saving.
	Close() error
}

// Host opens drawing documents.
type Host interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Entity is the materialized, read-only snapshot of one EntityRef.
//
// Fields the host could not supply are left at their zero value (empty
// strings) or nil (pointers). Detectors skip entities whose required fields
// are nil.
type Entity struct {
	Handle   string           `json:"handle"`
	Category Category         `json:"category"`
	Layer    string           `json:"layer,omitempty"`
	Box      *geometry.Bounds `json:"bbox,omitempty"`

	// Line
	Start *geometry.Point `json:"start,omitempty"`
	End   *geometry.Point `json:"end,omitempty"`

	// Polyline
	VertexCount *int  `json:"vertex_count,omitempty"`
	Closed      *bool `json:"closed,omitempty"`

	// BlockInstance
	DeclaredName string `json:"declared_name,omitempty"`
}
