package cleaner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/frame-cleaner/internal/outcome"
)

// Sink receives every finished run. Sink errors are logged and never fail
// the run.
type Sink interface {
	WriteRun(ctx context.Context, run *outcome.Run) error
}

// AddSink registers s to receive finished runs.
func (c *Cleaner) AddSink(s Sink) {
	c.sinks = append(c.sinks, s)
}

// OutputDir returns the folder cleaned files go to: the named subfolder of
// the input folder, or of the input file's folder.
func OutputDir(input string, isDir bool, name string) string {
	if isDir {
		return filepath.Join(input, name)
	}
	return filepath.Join(filepath.Dir(input), name)
}

// DiscoverDrawings lists the files directly inside dir whose extension
// matches one of exts, case-insensitively. The result is sorted and holds
// each path once.
func DiscoverDrawings(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}

	seen := make(map[string]bool)
	var files []string
	for _, e := range entries {
		if e.IsDir() || !HasExtension(e.Name(), exts) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files, nil
}

// HasExtension reports whether name ends in one of exts, case-insensitively.
// Matching is on the suffix, so multi-dot extensions such as
// ".dxf.json" work.
func HasExtension(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if ext != "" && strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return true
		}
	}
	return false
}

// Run cleans input, which may be a single drawing or a folder of drawings.
//
// Files are processed in order, one at a time. A file that panics inside the
// host binding becomes a failed outcome and the batch continues. Cancelling
// ctx stops the batch between files; the partial run is still returned and
// handed to the sinks.
func (c *Cleaner) Run(ctx context.Context, input string) (*outcome.Run, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("'%s' is not a valid file or folder: %w", input, err)
	}

	var files []string
	if info.IsDir() {
		files, err = DiscoverDrawings(input, c.opts.Extensions)
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{input}
	}
	return c.RunFiles(ctx, input, OutputDir(input, info.IsDir(), c.opts.OutputDirName), files)
}

// RunFiles cleans files into outputDir as one run. input is recorded on the
// run for reference.
func (c *Cleaner) RunFiles(ctx context.Context, input, outputDir string, files []string) (*outcome.Run, error) {
	run := &outcome.Run{
		ID:        uuid.NewString(),
		Input:     input,
		OutputDir: outputDir,
		StartedAt: time.Now(),
		Outcomes:  make([]*outcome.ProcessingOutcome, 0, len(files)),
	}
	log := c.log.With(zap.String("run", run.ID))

	if len(files) == 0 {
		log.Warn("no drawings found", zap.String("input", input))
		run.FinishedAt = time.Now()
		return run, nil
	}
	log.Info("starting run", zap.String("input", input), zap.String("output", outputDir), zap.Int("files", len(files)))

	var runErr error
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			runErr = err
			log.Warn("run cancelled", zap.Int("remaining", len(files)-i))
			break
		}
		log.Debug("file", zap.Int("index", i+1), zap.Int("of", len(files)), zap.String("path", f))
		run.Outcomes = append(run.Outcomes, c.processIsolated(ctx, f, outputDir))
	}
	run.FinishedAt = time.Now()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Warn("cannot create output folder", zap.Error(err))
	}
	// Sinks still record a run whose ctx was cancelled part way.
	sinkCtx := context.WithoutCancel(ctx)
	for _, s := range c.sinks {
		if err := s.WriteRun(sinkCtx, run); err != nil {
			log.Warn("run sink failed", zap.Error(err))
		}
	}

	sum := run.Summary()
	log.Info("run complete",
		zap.Int("success", sum.Success),
		zap.Int("failed", sum.Failed),
		zap.Int("review", sum.Review),
		zap.Int("entities_removed", sum.Removed))
	for _, o := range run.FailedOutcomes() {
		log.Warn("failed file", zap.String("file", o.Filename), zap.String("error", o.ErrorMessage))
	}
	return run, runErr
}

// processIsolated runs ProcessFile and converts a panic into a failed
// outcome.
func (c *Cleaner) processIsolated(ctx context.Context, path, outputDir string) (out *outcome.ProcessingOutcome) {
	defer func() {
		if r := recover(); r != nil {
			name := filepath.Base(path)
			out = outcome.New(name, path)
			out.OutputPath = filepath.Join(outputDir, name)
			out.Fail(fmt.Sprintf("Unexpected error: %v", r))
			c.log.Error("unexpected error", zap.String("file", name), zap.Any("panic", r))
		}
	}()
	return c.ProcessFile(ctx, path, outputDir)
}
