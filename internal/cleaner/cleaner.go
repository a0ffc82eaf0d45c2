package cleaner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/frame-cleaner/internal/detection"
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/logging"
	"github.com/ironsheep/frame-cleaner/internal/outcome"
	"github.com/ironsheep/frame-cleaner/internal/preview"
	"github.com/ironsheep/frame-cleaner/internal/prune"
)

var (
	// ErrOpenFailed means every open attempt failed.
	ErrOpenFailed = errors.New("could not open drawing")

	// ErrSaveFailed means the cleaned drawing could not be written.
	ErrSaveFailed = errors.New("could not save drawing")
)

// Cleaner processes drawings through one host session.
type Cleaner struct {
	host drawing.Host
	opts Options
	log  *zap.Logger

	sinks []Sink

	// sleep waits between open attempts; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Cleaner using host. A nil logger discards logs.
func New(host drawing.Host, opts Options, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		host:  host,
		opts:  opts.withDefaults(),
		log:   logging.OrNop(logger),
		sleep: sleepContext,
	}
}

// Options returns the effective options.
func (c *Cleaner) Options() Options { return c.opts }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// open tries to open path up to OpenAttempts times.
func (c *Cleaner) open(ctx context.Context, path string) (drawing.Document, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.OpenAttempts; attempt++ {
		doc, err := c.host.Open(ctx, path)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		c.log.Warn("open failed",
			zap.String("file", path),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.opts.OpenAttempts),
			zap.Error(err))

		if ctx.Err() != nil {
			break
		}
		if attempt < c.opts.OpenAttempts {
			if err := c.sleep(ctx, c.opts.RetryDelay); err != nil {
				lastErr = err
				break
			}
		}
	}
	return nil, fmt.Errorf("%w: failed after %d attempts: %w", ErrOpenFailed, c.opts.OpenAttempts, lastErr)
}

func (c *Cleaner) closeDoc(doc drawing.Document, path string) {
	if err := doc.Close(); err != nil {
		c.log.Warn("error closing document", zap.String("file", path), zap.Error(err))
	}
}

// ProcessFile cleans the drawing at inputPath into outputDir.
//
// The returned outcome is always non-nil and already classified.
func (c *Cleaner) ProcessFile(ctx context.Context, inputPath, outputDir string) *outcome.ProcessingOutcome {
	start := time.Now()
	name := filepath.Base(inputPath)
	out := outcome.New(name, inputPath)
	out.OutputPath = filepath.Join(outputDir, name)

	defer func() {
		out.ProcessingTime = time.Since(start)
		out.Classify(c.opts.ReviewThreshold)
		c.log.Info("processed",
			zap.String("file", name),
			zap.String("status", string(out.Status)),
			zap.Int("before", out.EntitiesBefore),
			zap.Int("after", out.EntitiesAfter),
			zap.Int("deleted", out.EntitiesDeleted),
			zap.String("border", out.BorderKind),
			zap.Duration("elapsed", out.ProcessingTime))
	}()

	if samePath(inputPath, out.OutputPath) {
		out.Fail("Output path would overwrite the input file")
		return out
	}

	doc, err := c.open(ctx, inputPath)
	if err != nil {
		out.Fail(failMessage(err))
		return out
	}
	defer c.closeDoc(doc, inputPath)

	snap, err := drawing.Take(doc)
	if err != nil {
		out.Fail(fmt.Sprintf("Failed to read model space: %v", err))
		return out
	}
	if snap.Unreadable > 0 {
		c.log.Debug("entities without readable handle", zap.String("file", name), zap.Int("count", snap.Unreadable))
	}

	if n, err := doc.Count(); err == nil {
		out.EntitiesBefore = n
	} else {
		out.EntitiesBefore = snap.Len()
	}

	border := detection.FindBorder(snap, c.opts.Detection)
	var plan *prune.Plan
	if border.Found {
		w := border.Winner
		out.BorderFound = true
		out.BorderKind = string(w.Kind)
		out.BorderWidth = w.Width()
		out.BorderHeight = w.Height()

		plan, err = prune.NewPlan(snap, w, c.opts.Tolerance)
		if err != nil {
			out.Fail(fmt.Sprintf("Failed to plan deletions: %v", err))
			return out
		}
		res, err := prune.Apply(doc, plan)
		out.EntitiesDeleted = res.Deleted
		out.DeleteFailures = len(res.Failures)
		for _, f := range res.Failures {
			c.log.Warn("delete failed", zap.String("file", name), zap.String("handle", f.Handle), zap.String("error", f.Err))
		}
		if err != nil {
			// The session is gone, so the pruned drawing can never be saved.
			err = fmt.Errorf("%w: session lost while pruning: %w", ErrSaveFailed, err)
			out.Fail(failMessage(err))
			c.log.Error("save failed", zap.String("file", name), zap.Error(err))
			return out
		}
	} else {
		c.log.Info("no border found", zap.String("file", name))
	}

	if n, err := doc.Count(); err == nil {
		out.EntitiesAfter = n
	} else {
		out.EntitiesAfter = out.EntitiesBefore - out.EntitiesDeleted
	}
	out.ComputeDeletePct()

	if err := doc.Save(out.OutputPath); err != nil {
		err = fmt.Errorf("%w: %w", ErrSaveFailed, err)
		out.Fail(failMessage(err))
		c.log.Error("save failed", zap.String("file", name), zap.Error(err))
		return out
	}

	if c.opts.Preview {
		c.writePreview(out, snap, border, plan, outputDir)
	}
	return out
}

func (c *Cleaner) writePreview(out *outcome.ProcessingOutcome, snap *drawing.Snapshot, border detection.Result, plan *prune.Plan, outputDir string) {
	img, err := preview.Render(snap, border.Winner, plan, preview.DefaultOptions())
	if err != nil {
		c.log.Warn("preview not rendered", zap.String("file", out.Filename), zap.Error(err))
		return
	}
	path := filepath.Join(outputDir, PreviewName(out.Filename))
	if err := preview.Save(path, img); err != nil {
		c.log.Warn("preview not saved", zap.String("file", out.Filename), zap.Error(err))
		return
	}
	out.PreviewPath = path
}

// PreviewName returns the preview file name for a drawing file name.
func PreviewName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".preview.png"
}

// failMessage renders err as a sentence for reports.
func failMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return "Unknown error"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
