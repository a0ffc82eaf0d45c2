package detection

import (
	"sort"
	"sync"

	"github.com/ironsheep/frame-cleaner/internal/drawing"
)

// Options tunes FindBorder.
type Options struct {
	// Parallel runs the primary detectors concurrently. The result is the
	// same as a sequential run.
	Parallel bool

	// DisableLineFallback skips the line-rectangle detector.
	DisableLineFallback bool
}

// Result is the outcome of border arbitration.
type Result struct {
	// Found reports whether any detector produced a usable frame.
	Found bool `json:"found"`

	// Winner is the chosen frame, nil when Found is false.
	Winner *Candidate `json:"winner,omitempty"`

	// Candidates holds every primary-detector candidate in priority order,
	// before sorting by area. Empty when the line fallback decided.
	Candidates []*Candidate `json:"candidates"`

	// UsedFallback is set when the winner came from the line detector.
	UsedFallback bool `json:"used_fallback"`
}

// FindBorder runs the detector pipeline against snap and picks one frame.
//
// Candidates from the primary detectors (block, layer, face, polyline) are
// stable-sorted by area descending and the first is chosen, so equal areas
// resolve by detector priority. If no primary detector produces a candidate
// the line-rectangle detector decides alone.
func FindBorder(snap *drawing.Snapshot, opts Options) Result {
	candidates := runPrimary(snap, opts.Parallel)

	res := Result{Candidates: candidates}
	if len(candidates) > 0 {
		ranked := make([]*Candidate, len(candidates))
		copy(ranked, candidates)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Area > ranked[j].Area
		})
		res.Found = true
		res.Winner = ranked[0]
		return res
	}

	if opts.DisableLineFallback {
		return res
	}
	if c := DetectLines(snap); c != nil {
		res.Found = true
		res.Winner = c
		res.UsedFallback = true
	}
	return res
}

// runPrimary returns the non-nil primary candidates in Primary order.
func runPrimary(snap *drawing.Snapshot, parallel bool) []*Candidate {
	slots := make([]*Candidate, len(Primary))

	if parallel {
		var wg sync.WaitGroup
		for i, d := range Primary {
			wg.Add(1)
			go func(i int, d Detector) {
				defer wg.Done()
				slots[i] = d.Detect(snap)
			}(i, d)
		}
		wg.Wait()
	} else {
		for i, d := range Primary {
			slots[i] = d.Detect(snap)
		}
	}

	out := make([]*Candidate, 0, len(slots))
	for _, c := range slots {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
