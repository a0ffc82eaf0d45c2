package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/ironsheep/frame-cleaner/internal/cleaner"
	"github.com/ironsheep/frame-cleaner/internal/detection"
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/outcome"
	"github.com/ironsheep/frame-cleaner/internal/preview"
)

// DefaultHistoryLimit is the number of runs history_recent returns when no
// limit is given.
const DefaultHistoryLimit = 10

var errNoHistory = errors.New("run history is disabled")

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Reuses a cached inspection of the drawing where it can
//  4. Calls into the cleaner, preview or history packages
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Inspection
	case ToolSnapshot:
		return s.handleSnapshot(ctx, args)
	case ToolDetectBorder:
		return s.handleDetectBorder(ctx, args)
	case ToolPreview:
		return s.handlePreview(ctx, args)

	// Cleaning
	case ToolClean:
		return s.handleClean(ctx, args)
	case ToolCleanFolder:
		return s.handleCleanFolder(ctx, args)

	// History
	case ToolHistory:
		return s.handleHistoryRecent(ctx, args)
	case ToolHistoryRun:
		return s.handleHistoryRun(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// inspect returns the dry-run inspection of path, from the cache when the
// file is unchanged.
func (s *Server) inspect(ctx context.Context, path string) (*cleaner.Inspection, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	if in, ok := s.cache.Get(path); ok {
		return in, nil
	}
	in, err := s.cleaner.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}
	s.cache.Put(path, in)
	return in, nil
}

// === Inspection Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

type snapshotArgs struct {
	Path            string `json:"path"`
	IncludeEntities bool   `json:"include_entities"`
}

// SnapshotSummary describes a drawing's model space.
type SnapshotSummary struct {
	Path       string           `json:"path"`
	Entities   int              `json:"entities"`
	Unreadable int              `json:"unreadable"`
	NoBox      int              `json:"no_bounding_box"`
	Categories map[string]int   `json:"categories"`
	Layers     []LayerCount     `json:"layers"`
	Items      []drawing.Entity `json:"items,omitempty"`
}

// LayerCount is the number of entities on one layer.
type LayerCount struct {
	Layer string `json:"layer"`
	Count int    `json:"count"`
	Frame bool   `json:"frame_layer"`
}

func (s *Server) handleSnapshot(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a snapshotArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	in, err := s.inspect(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return summarizeSnapshot(in.Path, in.Snapshot, a.IncludeEntities), nil
}

func summarizeSnapshot(path string, snap *drawing.Snapshot, withItems bool) *SnapshotSummary {
	sum := &SnapshotSummary{
		Path:       path,
		Entities:   snap.Len(),
		Unreadable: snap.Unreadable,
		Categories: make(map[string]int),
		Layers:     []LayerCount{},
	}

	layers := make(map[string]int)
	for _, e := range snap.Entities {
		sum.Categories[e.Category.String()]++
		layers[e.Layer]++
		if e.Box == nil {
			sum.NoBox++
		}
	}
	for name, n := range layers {
		sum.Layers = append(sum.Layers, LayerCount{Layer: name, Count: n, Frame: detection.IsFrameLayer(name)})
	}
	sort.Slice(sum.Layers, func(i, j int) bool {
		if sum.Layers[i].Count != sum.Layers[j].Count {
			return sum.Layers[i].Count > sum.Layers[j].Count
		}
		return sum.Layers[i].Layer < sum.Layers[j].Layer
	})

	if withItems {
		sum.Items = snap.Entities
	}
	return sum
}

func (s *Server) handleDetectBorder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.inspect(ctx, a.Path)
}

type previewArgs struct {
	Path       string  `json:"path"`
	Size       int     `json:"size"`
	Grid       float64 `json:"grid"`
	GridLabels *bool   `json:"grid_labels"`
}

func (s *Server) handlePreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := preview.DefaultOptions()
	if a.Size > 0 {
		opts.Size = a.Size
	}
	if a.Grid > 0 {
		opts.Grid = a.Grid
		opts.GridLabels = a.GridLabels == nil || *a.GridLabels
	}

	in, err := s.inspect(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	img, err := preview.Render(in.Snapshot, in.Border.Winner, in.Plan, opts)
	if err != nil {
		return nil, err
	}
	return preview.Encode(img)
}

// === Cleaning Handlers ===

type cleanArgs struct {
	Path      string `json:"path"`
	OutputDir string `json:"output_dir"`
}

// RunResult is what the clean tools return.
type RunResult struct {
	RunID     string                       `json:"run_id"`
	OutputDir string                       `json:"output_dir"`
	Summary   outcome.Summary              `json:"summary"`
	Outcomes  []*outcome.ProcessingOutcome `json:"outcomes"`
}

func newRunResult(run *outcome.Run) *RunResult {
	return &RunResult{
		RunID:     run.ID,
		OutputDir: run.OutputDir,
		Summary:   run.Summary(),
		Outcomes:  run.Outcomes,
	}
}

func (s *Server) handleClean(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cleanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	info, err := os.Stat(a.Path)
	if err != nil {
		return nil, fmt.Errorf("'%s' is not a valid file: %w", a.Path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("'%s' is a folder; use %s", a.Path, ToolCleanFolder)
	}

	outputDir := a.OutputDir
	if outputDir == "" {
		outputDir = cleaner.OutputDir(a.Path, false, s.cleaner.Options().OutputDirName)
	}
	run, err := s.cleaner.RunFiles(ctx, a.Path, outputDir, []string{a.Path})
	if run != nil {
		s.evict(run)
	}
	if err != nil {
		return nil, err
	}
	return newRunResult(run), nil
}

func (s *Server) handleCleanFolder(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	info, err := os.Stat(a.Path)
	if err != nil {
		return nil, fmt.Errorf("'%s' is not a valid folder: %w", a.Path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a folder; use %s", a.Path, ToolClean)
	}

	run, err := s.cleaner.Run(ctx, a.Path)
	if run != nil {
		s.evict(run)
	}
	if err != nil {
		return nil, err
	}
	return newRunResult(run), nil
}

// evict drops cached inspections of every file the run wrote.
func (s *Server) evict(run *outcome.Run) {
	for _, o := range run.Outcomes {
		if o.OutputPath != "" {
			s.cache.Evict(o.OutputPath)
		}
	}
}

// === History Handlers ===

type historyRecentArgs struct {
	Limit int `json:"limit"`
}

func (s *Server) handleHistoryRecent(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.history == nil {
		return nil, errNoHistory
	}
	var a historyRecentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = DefaultHistoryLimit
	}
	runs, err := s.history.Recent(ctx, a.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"runs": runs}, nil
}

type historyRunArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleHistoryRun(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.history == nil {
		return nil, errNoHistory
	}
	var a historyRunArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, errors.New("id is required")
	}
	return s.history.Run(ctx, a.ID)
}
