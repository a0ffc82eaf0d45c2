// Package httpapi serves the run history, its reports and an on-demand
// clean endpoint over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ironsheep/frame-cleaner/internal/cleaner"
	"github.com/ironsheep/frame-cleaner/internal/history"
	"github.com/ironsheep/frame-cleaner/internal/outcome"
	"github.com/ironsheep/frame-cleaner/internal/report"
)

// DefaultRunsLimit is the page size of GET /runs.
const DefaultRunsLimit = 50

// History is the run history the API reads and prunes.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.RunInfo, error)
	Run(ctx context.Context, id string) (*outcome.Run, error)
	Delete(ctx context.Context, id string) error
}

// API is the HTTP front end.
type API struct {
	cleaner *cleaner.Cleaner
	history History
	log     *zap.Logger

	// mu serializes clean requests; drawings are processed one at a time.
	mu sync.Mutex
}

// New creates the API. hist may be nil, in which case the /runs endpoints
// answer 503.
func New(c *cleaner.Cleaner, hist History, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{cleaner: c, history: hist, log: logger}
}

// Routes returns the router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", a.handleRuns)
		r.Get("/{id}", a.handleRun)
		r.Delete("/{id}", a.handleDeleteRun)
		r.Get("/{id}/report.html", a.handleReportHTML)
		r.Get("/{id}/report.csv", a.handleReportCSV)
	})

	r.Post("/clean", a.handleClean)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (a *API) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.log.Info("http api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (a *API) handleRuns(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run history is disabled"))
		return
	}

	limit := DefaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := a.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// loadRun fetches the run named in the URL, writing the error response
// itself when it cannot.
func (a *API) loadRun(w http.ResponseWriter, r *http.Request) (*outcome.Run, bool) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run history is disabled"))
		return nil, false
	}
	run, err := a.history.Run(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, history.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err)
		return nil, false
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return run, true
}

type runResponse struct {
	*outcome.Run
	Summary outcome.Summary `json:"summary"`
}

func (a *API) handleRun(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Run: run, Summary: run.Summary()})
}

func (a *API) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("run history is disabled"))
		return
	}
	id := chi.URLParam(r, "id")
	err := a.history.Delete(r.Context(), id)
	switch {
	case errors.Is(err, history.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		a.log.Info("run deleted", zap.String("run", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *API) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteHTML(w, run, report.HTMLOptions{Now: run.FinishedAt}); err != nil {
		a.log.Error("render html report", zap.String("run", run.ID), zap.Error(err))
	}
}

func (a *API) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	run, ok := a.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.CSVName))
	if err := report.WriteCSV(w, run.Outcomes); err != nil {
		a.log.Error("render csv report", zap.String("run", run.ID), zap.Error(err))
	}
}

type cleanRequest struct {
	Path      string `json:"path"`
	OutputDir string `json:"output_dir"`
}

func (a *API) handleClean(w http.ResponseWriter, r *http.Request) {
	var req cleanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	info, err := os.Stat(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("'%s' is not a valid file or folder", req.Path))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var run *outcome.Run
	if req.OutputDir != "" {
		files := []string{req.Path}
		if info.IsDir() {
			files, err = cleaner.DiscoverDrawings(req.Path, a.cleaner.Options().Extensions)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
		run, err = a.cleaner.RunFiles(r.Context(), req.Path, req.OutputDir, files)
	} else {
		run, err = a.cleaner.Run(r.Context(), req.Path)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Run: run, Summary: run.Summary()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
