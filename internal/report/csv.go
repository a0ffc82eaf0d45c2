package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ironsheep/frame-cleaner/internal/outcome"
)

// CSVHeader is the column layout of the CSV report.
var CSVHeader = []string{
	"Filename", "Status", "Error Message",
	"Entities Before", "Entities After", "Entities Deleted",
	"Border Found", "Border Type", "Border Width", "Border Height",
	"Processing Time (s)", "Input Path", "Output Path",
}

// WriteCSV writes one row per outcome under CSVHeader.
func WriteCSV(w io.Writer, outcomes []*outcome.ProcessingOutcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, o := range outcomes {
		if err := cw.Write(csvRow(o)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(o *outcome.ProcessingOutcome) []string {
	return []string{
		o.Filename,
		string(o.Status),
		o.ErrorMessage,
		strconv.Itoa(o.EntitiesBefore),
		strconv.Itoa(o.EntitiesAfter),
		strconv.Itoa(o.EntitiesDeleted),
		titleBool(o.BorderFound),
		o.BorderKind,
		fmt.Sprintf("%.2f", o.BorderWidth),
		fmt.Sprintf("%.2f", o.BorderHeight),
		fmt.Sprintf("%.2f", o.ProcessingTime.Seconds()),
		o.InputPath,
		o.OutputPath,
	}
}

// titleBool spells booleans True/False, as the report consumers expect.
func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
