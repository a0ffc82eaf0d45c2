package httpapi

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/frame-cleaner/internal/cleaner"
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/history"
	"github.com/ironsheep/frame-cleaner/internal/outcome"
	"github.com/ironsheep/frame-cleaner/internal/report"
)

func createTestDrawing(t *testing.T, path string, inside, outside int) {
	t.Helper()
	d := drawing.Drawing{Entities: []drawing.Record{
		drawing.PolylineRecord("FRAME", "0", 4, true, 0, 0, 1000, 800),
	}}
	for i := 0; i < inside; i++ {
		x := 10 + float64(i)*10
		d.Entities = append(d.Entities, drawing.BoxedRecord(fmt.Sprintf("IN%02d", i), "TEXT", "0", x, 10, x+5, 20))
	}
	for i := 0; i < outside; i++ {
		x := 2000 + float64(i)*10
		d.Entities = append(d.Entities, drawing.BoxedRecord(fmt.Sprintf("OUT%02d", i), "TEXT", "0", x, 10, x+5, 20))
	}
	require.NoError(t, drawing.WriteDrawingFile(path, d))
}

func newTestAPI(t *testing.T, withHistory bool) *httptest.Server {
	t.Helper()
	opts := cleaner.DefaultOptions()
	opts.OpenAttempts = 1
	c := cleaner.New(drawing.NewJSONHost(), opts, nil)

	var api *API
	if withHistory {
		store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		c.AddSink(store)
		api = New(c, store, nil)
	} else {
		api = New(c, nil, nil)
	}

	srv := httptest.NewServer(api.Routes())
	t.Cleanup(srv.Close)
	return srv
}

type runBody struct {
	ID        string                       `json:"id"`
	OutputDir string                       `json:"output_dir"`
	Outcomes  []*outcome.ProcessingOutcome `json:"outcomes"`
	Summary   outcome.Summary              `json:"summary"`
}

func postClean(t *testing.T, srv *httptest.Server, body string) (*http.Response, runBody) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/clean", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var rb runBody
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rb))
	}
	return resp, rb
}

func cleanBody(t *testing.T, path string) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{"path": path})
	require.NoError(t, err)
	return string(b)
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestHealth(t *testing.T) {
	srv := newTestAPI(t, false)

	resp, body := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestClean_Folder(t *testing.T) {
	dir := t.TempDir()
	createTestDrawing(t, filepath.Join(dir, "a.json"), 4, 1)
	createTestDrawing(t, filepath.Join(dir, "b.json"), 1, 4)
	srv := newTestAPI(t, true)

	resp, run := postClean(t, srv, cleanBody(t, dir))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, filepath.Join(dir, "CLEAN"), run.OutputDir)
	assert.Equal(t, outcome.Summary{Total: 2, Success: 1, Review: 1, Removed: 5}, run.Summary)
	assert.FileExists(t, filepath.Join(dir, "CLEAN", "a.json"))
}

func TestClean_CustomOutputDir(t *testing.T) {
	dir := t.TempDir()
	createTestDrawing(t, filepath.Join(dir, "a.json"), 2, 2)
	out := filepath.Join(t.TempDir(), "out")
	srv := newTestAPI(t, false)

	body, err := json.Marshal(map[string]string{"path": dir, "output_dir": out})
	require.NoError(t, err)
	resp, run := postClean(t, srv, string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, out, run.OutputDir)
	require.Len(t, run.Outcomes, 1)
	assert.FileExists(t, filepath.Join(out, "a.json"))
}

func TestClean_BadRequests(t *testing.T) {
	srv := newTestAPI(t, false)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing path", `{}`},
		{"missing file", cleanBody(t, filepath.Join(t.TempDir(), "nope.json"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postClean(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	createTestDrawing(t, path, 3, 1)
	srv := newTestAPI(t, true)

	_, first := postClean(t, srv, cleanBody(t, path))
	_, second := postClean(t, srv, cleanBody(t, path))

	resp, body := get(t, srv, "/runs")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Runs []history.RunInfo `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Runs, 2)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, []string{list.Runs[0].ID, list.Runs[1].ID})

	resp, body = get(t, srv, "/runs?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Runs, 1)

	resp, _ = get(t, srv, "/runs?limit=zero")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = get(t, srv, "/runs/"+first.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var run runBody
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, first.ID, run.ID)
	assert.Equal(t, outcome.Summary{Total: 1, Success: 1, Removed: 1}, run.Summary)
	require.Len(t, run.Outcomes, 1)
	assert.Equal(t, "a.json", run.Outcomes[0].Filename)
}

func TestRunReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	createTestDrawing(t, path, 3, 1)
	srv := newTestAPI(t, true)
	_, run := postClean(t, srv, cleanBody(t, path))

	resp, body := get(t, srv, "/runs/"+run.ID+"/report.html")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "Entities Removed: 1")

	resp, body = get(t, srv, "/runs/"+run.ID+"/report.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), report.CSVName)
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, report.CSVHeader, rows[0])
	assert.Equal(t, "a.json", rows[1][0])
}

func TestRuns_NotFound(t *testing.T) {
	srv := newTestAPI(t, true)

	for _, p := range []string{"/runs/nope", "/runs/nope/report.html", "/runs/nope/report.csv"} {
		resp, body := get(t, srv, p)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
		assert.Contains(t, string(body), "run not found", p)
	}
}

func TestDeleteRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.json")
	createTestDrawing(t, path, 1, 1)
	srv := newTestAPI(t, true)
	_, run := postClean(t, srv, cleanBody(t, path))

	del := func() *http.Response {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/runs/"+run.ID, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	assert.Equal(t, http.StatusNoContent, del().StatusCode)
	resp, _ := get(t, srv, "/runs/"+run.ID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, del().StatusCode)
}

func TestRuns_HistoryDisabled(t *testing.T) {
	srv := newTestAPI(t, false)

	for _, p := range []string{"/runs", "/runs/x"} {
		resp, _ := get(t, srv, p)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, p)
	}
}
