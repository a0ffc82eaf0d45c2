package drawing

import (
	"fmt"

	"github.com/ironsheep/frame-cleaner/internal/geometry"
)

// Drawing is the interchange form of a whole document: the JSON entity dump
// written by the CAD-side exporter, and the state held by a MemoryDocument.
type Drawing struct {
	Name     string   `json:"name,omitempty"`
	Units    string   `json:"units,omitempty"`
	Entities []Record `json:"entities"`
}

// BoxRecord is a bounding box as two corner coordinates. A third (Z)
// coordinate is accepted and ignored.
type BoxRecord struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// Record is one entity in interchange form. It implements EntityRef; any
// field left out of the record makes the matching accessor fail with
// ErrUnavailable.
type Record struct {
	ID        string     `json:"handle"`
	Type      string     `json:"type"`
	LayerName *string    `json:"layer,omitempty"`
	BBox      *BoxRecord `json:"bbox,omitempty"`
	Start     []float64  `json:"start,omitempty"`
	End       []float64  `json:"end,omitempty"`
	Vertices  *int       `json:"vertices,omitempty"`
	Closed    *bool      `json:"closed,omitempty"`
	Name      *string    `json:"name,omitempty"`
}

var _ EntityRef = Record{}

func (r Record) Handle() (string, error) {
	if r.ID == "" {
		return "", ErrUnavailable
	}
	return r.ID, nil
}

func (r Record) Category() (Category, error) {
	if r.Type == "" {
		return CategoryOther, ErrUnavailable
	}
	return ParseCategory(r.Type), nil
}

func (r Record) Layer() (string, error) {
	if r.LayerName == nil {
		return "", ErrUnavailable
	}
	return *r.LayerName, nil
}

func (r Record) BoundingBox() (geometry.Bounds, error) {
	if r.BBox == nil {
		return geometry.Bounds{}, ErrUnavailable
	}
	lo, err := toPoint(r.BBox.Min)
	if err != nil {
		return geometry.Bounds{}, err
	}
	hi, err := toPoint(r.BBox.Max)
	if err != nil {
		return geometry.Bounds{}, err
	}
	return geometry.NewBounds(lo, hi), nil
}

func (r Record) StartPoint() (geometry.Point, error) {
	return toPoint(r.Start)
}

func (r Record) EndPoint() (geometry.Point, error) {
	return toPoint(r.End)
}

func (r Record) VertexCount() (int, error) {
	if r.Vertices == nil {
		return 0, ErrUnavailable
	}
	return *r.Vertices, nil
}

func (r Record) IsClosed() (bool, error) {
	if r.Closed == nil {
		return false, ErrUnavailable
	}
	return *r.Closed, nil
}

func (r Record) DeclaredName() (string, error) {
	if r.Name == nil {
		return "", ErrUnavailable
	}
	return *r.Name, nil
}

func toPoint(c []float64) (geometry.Point, error) {
	if len(c) < 2 {
		return geometry.Point{}, fmt.Errorf("%w: need 2 coordinates, got %d", ErrUnavailable, len(c))
	}
	return geometry.Point{X: c[0], Y: c[1]}, nil
}

// LineRecord builds a LINE record whose bounding box is derived from its
// endpoints.
func LineRecord(handle, layer string, x1, y1, x2, y2 float64) Record {
	return Record{
		ID:        handle,
		Type:      "LINE",
		LayerName: &layer,
		BBox: &BoxRecord{
			Min: []float64{min(x1, x2), min(y1, y2)},
			Max: []float64{max(x1, x2), max(y1, y2)},
		},
		Start: []float64{x1, y1},
		End:   []float64{x2, y2},
	}
}

// BoxedRecord builds a record of the given type with only a layer and a
// bounding box.
func BoxedRecord(handle, typeName, layer string, minX, minY, maxX, maxY float64) Record {
	return Record{
		ID:        handle,
		Type:      typeName,
		LayerName: &layer,
		BBox: &BoxRecord{
			Min: []float64{minX, minY},
			Max: []float64{maxX, maxY},
		},
	}
}

// PolylineRecord builds an LWPOLYLINE record.
func PolylineRecord(handle, layer string, vertices int, closed bool, minX, minY, maxX, maxY float64) Record {
	r := BoxedRecord(handle, "LWPOLYLINE", layer, minX, minY, maxX, maxY)
	r.Vertices = &vertices
	r.Closed = &closed
	return r
}

// BlockRecord builds an INSERT record for a block instance.
func BlockRecord(handle, layer, blockName string, minX, minY, maxX, maxY float64) Record {
	r := BoxedRecord(handle, "INSERT", layer, minX, minY, maxX, maxY)
	r.Name = &blockName
	return r
}
