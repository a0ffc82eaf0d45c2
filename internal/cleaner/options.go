package cleaner

import (
	"time"

	"github.com/ironsheep/frame-cleaner/internal/config"
	"github.com/ironsheep/frame-cleaner/internal/detection"
	"github.com/ironsheep/frame-cleaner/internal/outcome"
	"github.com/ironsheep/frame-cleaner/internal/prune"
)

// Options tunes a Cleaner.
type Options struct {
	Detection       detection.Options
	Tolerance       float64
	ReviewThreshold float64

	// OutputDirName is the subfolder cleaned files are written to.
	OutputDirName string

	// Extensions are the drawing file extensions a folder batch picks up,
	// matched case-insensitively.
	Extensions []string

	OpenAttempts int
	RetryDelay   time.Duration

	// Preview writes a PNG preview next to each cleaned file.
	Preview bool
}

// DefaultOptions mirrors config.Default.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig extracts the cleaner settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Detection: detection.Options{
			Parallel:            cfg.Detection.Parallel,
			DisableLineFallback: cfg.Detection.DisableLineFallback,
		},
		Tolerance:       cfg.Prune.Tolerance,
		ReviewThreshold: cfg.Outcome.ReviewThreshold,
		OutputDirName:   cfg.Cleaner.OutputDirName,
		Extensions:      append([]string(nil), cfg.Cleaner.Extensions...),
		OpenAttempts:    cfg.Cleaner.OpenAttempts,
		RetryDelay:      cfg.Cleaner.RetryDelay(),
		Preview:         cfg.Cleaner.Preview,
	}
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = prune.DefaultTolerance
	}
	if o.ReviewThreshold <= 0 {
		o.ReviewThreshold = outcome.DefaultReviewThreshold
	}
	if o.OutputDirName == "" {
		o.OutputDirName = "CLEAN"
	}
	if len(o.Extensions) == 0 {
		o.Extensions = []string{".json"}
	}
	if o.OpenAttempts < 1 {
		o.OpenAttempts = 1
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	return o
}
