package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/ironsheep/frame-cleaner/internal/outcome"
	"github.com/ironsheep/frame-cleaner/internal/preview"
)

//go:embed report.html.tmpl
var htmlSource string

var htmlTemplate = template.Must(template.New("report").Parse(htmlSource))

// HTMLOptions controls the HTML report.
type HTMLOptions struct {
	Thumbnails bool

	// Now stamps the report; zero means time.Now.
	Now time.Time
}

type htmlRow struct {
	Index        int
	Filename     string
	Link         template.URL
	Status       string
	StatusClass  string
	ErrorMessage string
	Before       int
	After        int
	Deleted      int
	Border       string
	Size         string
	Seconds      string
	Thumbnail    template.URL
}

type htmlPage struct {
	RunID     string
	Input     string
	Generated string
	Summary   outcome.Summary
	Rows      []htmlRow
}

// WriteHTML renders the HTML report for run.
func WriteHTML(w io.Writer, run *outcome.Run, opts HTMLOptions) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	page := htmlPage{
		RunID:     run.ID,
		Input:     run.Input,
		Generated: now.Format("2006-01-02 15:04:05"),
		Summary:   run.Summary(),
		Rows:      make([]htmlRow, 0, len(run.Outcomes)),
	}
	for i, o := range run.Outcomes {
		page.Rows = append(page.Rows, newRow(i+1, o, opts))
	}
	return htmlTemplate.Execute(w, page)
}

func newRow(index int, o *outcome.ProcessingOutcome, opts HTMLOptions) htmlRow {
	row := htmlRow{
		Index:        index,
		Filename:     o.Filename,
		Status:       strings.ToUpper(string(o.Status)),
		StatusClass:  "status-" + string(o.Status),
		ErrorMessage: o.ErrorMessage,
		Before:       o.EntitiesBefore,
		After:        o.EntitiesAfter,
		Deleted:      o.EntitiesDeleted,
		Border:       "Not found",
		Size:         "-",
		Seconds:      fmt.Sprintf("%.2f", o.ProcessingTime.Seconds()),
	}
	if o.BorderFound {
		row.Border = o.BorderKind
		row.Size = fmt.Sprintf("%.0f x %.0f", o.BorderWidth, o.BorderHeight)
	}

	target := o.InputPath
	if o.OutputPath != "" && !o.Failed() {
		target = o.OutputPath
	}
	row.Link = fileURL(target)

	if opts.Thumbnails && o.PreviewPath != "" {
		if uri, err := preview.ThumbnailDataURI(o.PreviewPath, preview.DefaultThumbnailSize); err == nil {
			row.Thumbnail = template.URL(uri)
		}
	}
	return row
}

// fileURL returns a file:// link to path.
func fileURL(path string) template.URL {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return template.URL(u.String())
}
