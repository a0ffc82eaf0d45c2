// Package outcome defines the per-file audit record of a cleaning pass and
// the rule that turns it into a status.
package outcome

import (
	"time"
)

// Status is the final verdict for one file.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusReview  Status = "review"
)

// DefaultReviewThreshold is the delete percentage above which a cleaned file
// is flagged for review.
const DefaultReviewThreshold = 50.0

// ProcessingOutcome records what happened to one drawing.
type ProcessingOutcome struct {
	Filename   string `json:"filename"`
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path,omitempty"`

	// PreviewPath is the PNG preview written alongside the output, if any.
	PreviewPath string `json:"preview_path,omitempty"`

	EntitiesBefore  int `json:"entities_before"`
	EntitiesAfter   int `json:"entities_after"`
	EntitiesDeleted int `json:"entities_deleted"`

	// DeleteFailures counts delete requests the host refused.
	DeleteFailures int `json:"delete_failures,omitempty"`

	BorderFound  bool    `json:"border_found"`
	BorderKind   string  `json:"border_kind,omitempty"`
	BorderWidth  float64 `json:"border_width"`
	BorderHeight float64 `json:"border_height"`

	// DeletePct is EntitiesDeleted / EntitiesBefore × 100, or 0 when the
	// drawing was empty.
	DeletePct float64 `json:"delete_pct"`

	Status         Status        `json:"status"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	ProcessingTime time.Duration `json:"processing_time_ns"`
}

// New starts an outcome for the file at path.
func New(filename, inputPath string) *ProcessingOutcome {
	return &ProcessingOutcome{Filename: filename, InputPath: inputPath}
}

// Fail marks the outcome failed with msg.
func (o *ProcessingOutcome) Fail(msg string) {
	o.Status = StatusFailed
	o.ErrorMessage = msg
}

// Failed reports whether a fatal error was recorded.
func (o *ProcessingOutcome) Failed() bool {
	return o.Status == StatusFailed
}

// ComputeDeletePct fills DeletePct from the entity counts.
func (o *ProcessingOutcome) ComputeDeletePct() {
	if o.EntitiesBefore > 0 {
		o.DeletePct = float64(o.EntitiesDeleted) / float64(o.EntitiesBefore) * 100
	} else {
		o.DeletePct = 0
	}
}

// Classify sets the final status.
//
// A failed outcome stays failed. Otherwise the file needs review when a
// border was found and more than threshold percent of its entities were
// deleted; everything else is a success. A file with no border is a success
// with nothing removed.
func (o *ProcessingOutcome) Classify(threshold float64) Status {
	switch {
	case o.Status == StatusFailed:
		// stays failed
	case o.BorderFound && o.DeletePct > threshold:
		o.Status = StatusReview
	default:
		o.Status = StatusSuccess
	}
	return o.Status
}

// Summary aggregates a batch of outcomes.
type Summary struct {
	Total    int `json:"total"`
	Success  int `json:"success"`
	Failed   int `json:"failed"`
	Review   int `json:"review"`
	Removed  int `json:"entities_removed"`
	NoBorder int `json:"no_border"`
}

// Summarize counts outcomes by status and totals the removed entities.
func Summarize(outcomes []*ProcessingOutcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Total++
		switch o.Status {
		case StatusSuccess:
			s.Success++
		case StatusFailed:
			s.Failed++
		case StatusReview:
			s.Review++
		}
		s.Removed += o.EntitiesDeleted
		if o.Status != StatusFailed && !o.BorderFound {
			s.NoBorder++
		}
	}
	return s
}
