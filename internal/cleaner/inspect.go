package cleaner

import (
	"context"
	"fmt"

	"github.com/ironsheep/frame-cleaner/internal/detection"
	"github.com/ironsheep/frame-cleaner/internal/drawing"
	"github.com/ironsheep/frame-cleaner/internal/prune"
)

// Inspection is a dry run of the pipeline: what would be detected and
// deleted, with nothing modified.
type Inspection struct {
	Path       string           `json:"path"`
	Entities   int              `json:"entities"`
	Unreadable int              `json:"unreadable"`
	Border     detection.Result `json:"border"`

	// WouldDelete lists the handles the pruner would remove.
	WouldDelete []string `json:"would_delete"`
	DeletePct   float64  `json:"delete_pct"`

	Snapshot *drawing.Snapshot `json:"-"`
	Plan     *prune.Plan       `json:"-"`
}

// Inspect opens path, detects the border and plans the prune without
// deleting or saving anything.
func (c *Cleaner) Inspect(ctx context.Context, path string) (*Inspection, error) {
	doc, err := c.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer c.closeDoc(doc, path)

	snap, err := drawing.Take(doc)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}

	in := &Inspection{
		Path:        path,
		Entities:    snap.Len(),
		Unreadable:  snap.Unreadable,
		Border:      detection.FindBorder(snap, c.opts.Detection),
		WouldDelete: []string{},
		Snapshot:    snap,
	}
	if !in.Border.Found {
		return in, nil
	}

	plan, err := prune.NewPlan(snap, in.Border.Winner, c.opts.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", path, err)
	}
	in.Plan = plan
	if deletes := plan.Deletes(); len(deletes) > 0 {
		in.WouldDelete = deletes
	}
	if in.Entities > 0 {
		in.DeletePct = float64(len(in.WouldDelete)) / float64(in.Entities) * 100
	}
	return in, nil
}
