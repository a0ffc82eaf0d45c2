// Package watch cleans drawings as they appear in a folder.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ironsheep/frame-cleaner/internal/cleaner"
	"github.com/ironsheep/frame-cleaner/internal/outcome"
)

// DefaultDebounce is how long a file must stay unchanged before it is
// cleaned.
const DefaultDebounce = time.Second

// Options tunes a Watcher.
type Options struct {
	// Debounce is the quiet period after the last write to a file.
	Debounce time.Duration

	// Existing also queues drawings already in the folder at start.
	Existing bool

	// OnRun is called after each batch with its run. Optional.
	OnRun func(*outcome.Run)
}

// Watcher queues new or rewritten drawings in one folder and hands them to
// the cleaner in batches, one batch at a time.
type Watcher struct {
	cleaner   *cleaner.Cleaner
	dir       string
	outputDir string
	opts      Options
	log       *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	// queued holds the modification time each ready file had when it was
	// handed out; done holds it for files the cleaner reached.
	queued map[string]time.Time
	done   map[string]time.Time
}

// New creates a watcher for dir. Cleaned files go where a folder run on dir
// would put them.
func New(c *cleaner.Cleaner, dir string, opts Options, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("'%s' is not a valid folder: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a folder", dir)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		cleaner:   c,
		dir:       abs,
		outputDir: cleaner.OutputDir(abs, true, c.Options().OutputDirName),
		opts:      opts,
		log:       logger.With(zap.String("folder", abs)),
		pending:   make(map[string]time.Time),
		queued:    make(map[string]time.Time),
		done:      make(map[string]time.Time),
	}, nil
}

// OutputDir returns the folder cleaned files are written to.
func (w *Watcher) OutputDir() string { return w.outputDir }

// Run watches until ctx is cancelled. Batches run on the calling goroutine,
// so drawings are never processed concurrently.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	if w.opts.Existing {
		files, err := cleaner.DiscoverDrawings(w.dir, w.cleaner.Options().Extensions)
		if err != nil {
			return err
		}
		now := time.Now()
		for _, f := range files {
			w.touch(f, now.Add(-w.opts.Debounce))
		}
	}

	tick := w.opts.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.log.Info("watching for drawings", zap.Duration("debounce", w.opts.Debounce))
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.observe(event.Name, time.Now())

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			if files := w.ready(now); len(files) > 0 {
				w.process(ctx, files)
			}
		}
	}
}

// observe queues path if it is a drawing.
func (w *Watcher) observe(path string, now time.Time) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	if !cleaner.HasExtension(filepath.Base(path), w.cleaner.Options().Extensions) {
		return
	}
	w.touch(path, now)
}

func (w *Watcher) touch(path string, now time.Time) {
	w.mu.Lock()
	w.pending[path] = now
	w.mu.Unlock()
}

// ready removes and returns, sorted, the pending files that have been quiet
// for the debounce period and were not already cleaned at their current
// modification time.
func (w *Watcher) ready(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []string
	for path, last := range w.pending {
		if now.Sub(last) < w.opts.Debounce {
			continue
		}
		delete(w.pending, path)

		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if mod, ok := w.done[path]; ok && mod.Equal(info.ModTime()) {
			continue
		}
		w.queued[path] = info.ModTime()
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Pending returns the number of files still waiting out the debounce.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *Watcher) process(ctx context.Context, files []string) {
	run, err := w.cleaner.RunFiles(ctx, w.dir, w.outputDir, files)
	if err != nil {
		w.log.Warn("batch interrupted", zap.Error(err))
	}
	w.markDone(files, run)
	if run != nil && w.opts.OnRun != nil {
		w.opts.OnRun(run)
	}
}

// markDone records the files that have an outcome in run. Files the run
// never reached stay eligible.
func (w *Watcher) markDone(files []string, run *outcome.Run) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if run != nil {
		for _, o := range run.Outcomes {
			if mod, ok := w.queued[o.InputPath]; ok {
				w.done[o.InputPath] = mod
			}
		}
	}
	for _, f := range files {
		delete(w.queued, f)
	}
}
