package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/frame-cleaner/internal/cleaner"
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/history"
	"github.com/ironsheep/frame-cleaner/internal/outcome"
)

var testMCPImpl = &mcp.Implementation{Name: "frame-cleaner-test", Version: "0.1.0"}

// createTestDrawing writes a 1000×800 polyline frame with inside and outside
// text entities to path.
func createTestDrawing(t *testing.T, path string, inside, outside int) {
	t.Helper()
	d := drawing.Drawing{Entities: []drawing.Record{
		drawing.PolylineRecord("FRAME", "BORDER", 4, true, 0, 0, 1000, 800),
	}}
	for i := 0; i < inside; i++ {
		x := 10 + float64(i)*10
		d.Entities = append(d.Entities, drawing.BoxedRecord(fmt.Sprintf("IN%02d", i), "TEXT", "NOTES", x, 10, x+5, 20))
	}
	for i := 0; i < outside; i++ {
		x := 2000 + float64(i)*10
		d.Entities = append(d.Entities, drawing.BoxedRecord(fmt.Sprintf("OUT%02d", i), "TEXT", "NOTES", x, 10, x+5, 20))
	}
	require.NoError(t, drawing.WriteDrawingFile(path, d))
}

func newTestServer(t *testing.T, withHistory bool) *Server {
	t.Helper()
	opts := cleaner.DefaultOptions()
	opts.OpenAttempts = 1
	c := cleaner.New(drawing.NewJSONHost(), opts, nil)

	if !withHistory {
		return New(c, nil, "test", nil)
	}
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	c.AddSink(store)
	return New(c, store, "test", nil)
}

func mcpSession(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	serverT, clientT := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = s.MCP().Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool(%s)", name)
	require.NotEmpty(t, result.Content)
	return result
}

// callToolJSON calls name, requires success and decodes the text result into v.
func callToolJSON(t *testing.T, session *mcp.ClientSession, name string, args any, v any) {
	t.Helper()
	result := callTool(t, session, name, args)
	require.False(t, result.IsError, "tool %s failed: %s", name, toolText(t, result))
	require.NoError(t, json.Unmarshal([]byte(toolText(t, result)), v))
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent")
	return tc.Text
}

func TestListTools(t *testing.T) {
	tests := []struct {
		name        string
		withHistory bool
		want        []string
	}{
		{"without history", false, []string{ToolSnapshot, ToolDetectBorder, ToolPreview, ToolClean, ToolCleanFolder}},
		{"with history", true, []string{ToolSnapshot, ToolDetectBorder, ToolPreview, ToolClean, ToolCleanFolder, ToolHistory, ToolHistoryRun}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := mcpSession(t, newTestServer(t, tt.withHistory))

			res, err := session.ListTools(context.Background(), nil)
			require.NoError(t, err)
			var names []string
			for _, tool := range res.Tools {
				names = append(names, tool.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestToolDefinitions_Schemas(t *testing.T) {
	for _, tool := range GetToolDefinitions(true) {
		schema, ok := tool.InputSchema.(map[string]any)
		require.True(t, ok, tool.Name)
		assert.Equal(t, "object", schema["type"], tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
}

func TestSnapshotTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	createTestDrawing(t, path, 3, 2)
	session := mcpSession(t, newTestServer(t, false))

	var sum SnapshotSummary
	callToolJSON(t, session, ToolSnapshot, map[string]any{"path": path}, &sum)

	assert.Equal(t, 6, sum.Entities)
	assert.Equal(t, map[string]int{"polyline": 1, "other": 5}, sum.Categories)
	require.Len(t, sum.Layers, 2)
	assert.Equal(t, LayerCount{Layer: "NOTES", Count: 5}, sum.Layers[0])
	assert.Equal(t, LayerCount{Layer: "BORDER", Count: 1, Frame: true}, sum.Layers[1])
	assert.Empty(t, sum.Items)

	callToolJSON(t, session, ToolSnapshot, map[string]any{"path": path, "include_entities": true}, &sum)
	assert.Len(t, sum.Items, 6)
}

func TestDetectBorderTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	createTestDrawing(t, path, 3, 2)
	session := mcpSession(t, newTestServer(t, false))

	var in cleaner.Inspection
	callToolJSON(t, session, ToolDetectBorder, map[string]any{"path": path}, &in)

	require.True(t, in.Border.Found)
	assert.Equal(t, "layer", string(in.Border.Winner.Kind), "layer and polyline tie on area; layer has priority")
	assert.Len(t, in.Border.Candidates, 2)
	assert.Equal(t, []string{"OUT00", "OUT01"}, in.WouldDelete)
	assert.InDelta(t, 100.0*2/6, in.DeletePct, 1e-9)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	d, err := drawing.DecodeDrawing(data)
	require.NoError(t, err)
	assert.Len(t, d.Entities, 6, "detection must not modify the drawing")
}

func TestPreviewTool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	createTestDrawing(t, path, 3, 2)
	session := mcpSession(t, newTestServer(t, false))

	var res struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ImageBase64 string `json:"image_base64"`
		MimeType    string `json:"mime_type"`
	}
	callToolJSON(t, session, ToolPreview, map[string]any{"path": path, "size": 300}, &res)

	assert.Equal(t, "image/png", res.MimeType)
	assert.Equal(t, 300, res.Width)

	raw, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, res.Width, img.Bounds().Dx())
	assert.Equal(t, res.Height, img.Bounds().Dy())
}

func TestCleanTool_RecordsHistory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	createTestDrawing(t, path, 4, 1)
	session := mcpSession(t, newTestServer(t, true))

	var res RunResult
	callToolJSON(t, session, ToolClean, map[string]any{"path": path}, &res)

	assert.Equal(t, filepath.Join(dir, "CLEAN"), res.OutputDir)
	assert.Equal(t, outcome.Summary{Total: 1, Success: 1, Removed: 1}, res.Summary)
	require.Len(t, res.Outcomes, 1)
	assert.FileExists(t, res.Outcomes[0].OutputPath)

	var recent struct {
		Runs []history.RunInfo `json:"runs"`
	}
	callToolJSON(t, session, ToolHistory, map[string]any{}, &recent)
	require.Len(t, recent.Runs, 1)
	assert.Equal(t, res.RunID, recent.Runs[0].ID)
	assert.Equal(t, res.Summary, recent.Runs[0].Summary)

	var run outcome.Run
	callToolJSON(t, session, ToolHistoryRun, map[string]any{"id": res.RunID}, &run)
	require.Len(t, run.Outcomes, 1)
	assert.Equal(t, "plan.json", run.Outcomes[0].Filename)
}

func TestCleanTool_CustomOutputDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	createTestDrawing(t, path, 2, 2)
	out := filepath.Join(dir, "elsewhere")
	session := mcpSession(t, newTestServer(t, false))

	var res RunResult
	callToolJSON(t, session, ToolClean, map[string]any{"path": path, "output_dir": out}, &res)

	assert.Equal(t, out, res.OutputDir)
	assert.FileExists(t, filepath.Join(out, "plan.json"))
}

func TestCleanFolderTool(t *testing.T) {
	dir := t.TempDir()
	createTestDrawing(t, filepath.Join(dir, "a.json"), 4, 1)
	createTestDrawing(t, filepath.Join(dir, "b.json"), 1, 4)
	session := mcpSession(t, newTestServer(t, false))

	var res RunResult
	callToolJSON(t, session, ToolCleanFolder, map[string]any{"path": dir}, &res)

	assert.Equal(t, outcome.Summary{Total: 2, Success: 1, Review: 1, Removed: 5}, res.Summary)
	assert.FileExists(t, filepath.Join(dir, "CLEAN", "a.json"))
	assert.FileExists(t, filepath.Join(dir, "CLEAN", "b.json"))
}

func TestToolErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	createTestDrawing(t, path, 1, 1)
	session := mcpSession(t, newTestServer(t, false))

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr string
	}{
		{"missing path", ToolDetectBorder, map[string]any{}, "path is required"},
		{"missing file", ToolSnapshot, map[string]any{"path": filepath.Join(dir, "nope.json")}, "could not open drawing"},
		{"clean a folder", ToolClean, map[string]any{"path": dir}, "is a folder"},
		{"clean folder on a file", ToolCleanFolder, map[string]any{"path": path}, "is not a folder"},
		{"bad argument type", ToolPreview, map[string]any{"path": path, "size": "big"}, "cannot unmarshal"},
		{"grid too fine", ToolPreview, map[string]any{"path": path, "grid": 0.5}, "too fine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, session, tt.tool, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, toolText(t, result), tt.wantErr)
		})
	}
}

func TestHistoryDisabled(t *testing.T) {
	s := newTestServer(t, false)

	_, err := s.executeTool(context.Background(), ToolHistory, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, errNoHistory)

	_, err = s.executeTool(context.Background(), "drawing_rotate", json.RawMessage(`{}`))
	assert.EqualError(t, err, "unknown tool: drawing_rotate")
}

func TestInspectionCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	createTestDrawing(t, path, 1, 1)
	s := newTestServer(t, false)
	ctx := context.Background()

	first, err := s.inspect(ctx, path)
	require.NoError(t, err)
	second, err := s.inspect(ctx, path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, s.cache.Len())

	createTestDrawing(t, path, 5, 1)
	third, err := s.inspect(ctx, path)
	require.NoError(t, err)
	assert.NotSame(t, first, third, "a changed file must be re-read")
	assert.Equal(t, 7, third.Entities)

	s.cache.Evict(path)
	assert.Zero(t, s.cache.Len())

	_, ok := s.cache.Get(filepath.Join(t.TempDir(), "missing.json"))
	assert.False(t, ok)
}
