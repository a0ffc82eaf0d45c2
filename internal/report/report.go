// Package report writes the audit reports of a cleaning run: a CSV with one
// row per file and a self-contained HTML page with totals.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/frame-cleaner/internal/outcome"
)

// Report file names inside a run's output folder.
const (
	CSVName  = "clean_report.csv"
	HTMLName = "clean_report.html"
)

// Writer writes the enabled reports into each run's output folder.
type Writer struct {
	CSV  bool
	HTML bool

	// Thumbnails embeds preview thumbnails in the HTML report for outcomes
	// that have a preview.
	Thumbnails bool
}

// WriteRun writes the enabled reports for run and returns the joined errors
// of any that failed.
func (w *Writer) WriteRun(_ context.Context, run *outcome.Run) error {
	if err := os.MkdirAll(run.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create report folder: %w", err)
	}

	var errs []error
	if w.CSV {
		if err := writeFile(filepath.Join(run.OutputDir, CSVName), func(f *os.File) error {
			return WriteCSV(f, run.Outcomes)
		}); err != nil {
			errs = append(errs, fmt.Errorf("csv report: %w", err))
		}
	}
	if w.HTML {
		if err := writeFile(filepath.Join(run.OutputDir, HTMLName), func(f *os.File) error {
			return WriteHTML(f, run, HTMLOptions{Thumbnails: w.Thumbnails})
		}); err != nil {
			errs = append(errs, fmt.Errorf("html report: %w", err))
		}
	}
	return errors.Join(errs...)
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
