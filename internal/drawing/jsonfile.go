package drawing

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed drawing.schema.json
var drawingSchemaJSON []byte

const drawingSchemaURL = "drawing.schema.json"

var (
	drawingSchema     *jsonschema.Schema
	drawingSchemaOnce sync.Once
	drawingSchemaErr  error
)

// loadSchema compiles the embedded schema once.
func loadSchema() (*jsonschema.Schema, error) {
	drawingSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(drawingSchemaURL, bytes.NewReader(drawingSchemaJSON)); err != nil {
			drawingSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		drawingSchema, drawingSchemaErr = compiler.Compile(drawingSchemaURL)
	})
	return drawingSchema, drawingSchemaErr
}

// JSONHost opens JSON entity dumps from disk.
//
// Every file is validated against the embedded drawing schema before it is
// decoded; a file that fails validation does not open. Save writes the
// remaining entities back out in the same format.
type JSONHost struct{}

// NewJSONHost returns a host for JSON entity dumps.
func NewJSONHost() *JSONHost {
	return &JSONHost{}
}

// Open reads, validates and decodes path.
func (h *JSONHost) Open(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read drawing: %w", err)
	}

	d, err := DecodeDrawing(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if d.Name == "" {
		d.Name = filepath.Base(path)
	}

	return NewMemoryDocument(filepath.Base(path), *d, WriteDrawingFile), nil
}

// DecodeDrawing validates data against the drawing schema and decodes it.
func DecodeDrawing(data []byte) (*Drawing, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, err
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("failed to parse drawing: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("drawing failed schema validation: %w", err)
	}

	var d Drawing
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode drawing: %w", err)
	}
	return &d, nil
}

// WriteDrawingFile writes d to path as indented JSON, creating parent
// directories as needed.
func WriteDrawingFile(path string, d Drawing) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode drawing: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write drawing: %w", err)
	}
	return nil
}
