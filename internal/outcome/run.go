package outcome

import "time"

// Run is one invocation of the cleaner over a file or a folder.
type Run struct {
	ID         string               `json:"id"`
	Input      string               `json:"input"`
	OutputDir  string               `json:"output_dir"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Outcomes   []*ProcessingOutcome `json:"outcomes"`
}

// Summary aggregates the run's outcomes.
func (r *Run) Summary() Summary {
	return Summarize(r.Outcomes)
}

// FailedOutcomes returns the outcomes with status failed, in run order.
func (r *Run) FailedOutcomes() []*ProcessingOutcome {
	var out []*ProcessingOutcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}
