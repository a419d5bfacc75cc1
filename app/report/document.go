package report

import (
	"time"

	"github.com/lysyi3m/glp1-survey/app/diff"
)

// document is the JSON shape of a rendered report.
type document struct {
	Title           string           `json:"title,omitempty"`
	RunID           string           `json:"run_id,omitempty"`
	GeneratedAt     time.Time        `json:"generated_at"`
	PreviousTakenAt *time.Time       `json:"previous_taken_at,omitempty"`
	Message         string           `json:"message,omitempty"`
	Totals          diff.Totals      `json:"totals"`
	Sources         []documentSource `json:"sources"`
}

type documentSource struct {
	diff.SourceDiff
	Title string `json:"title,omitempty"`
	Error string `json:"error,omitempty"`
}

func newDocument(in Input) document {
	doc := document{
		Title:           in.Title,
		RunID:           in.Report.RunID,
		GeneratedAt:     in.Report.GeneratedAt,
		PreviousTakenAt: in.Report.PreviousTakenAt,
		Message:         in.Message,
		Totals:          in.Report.Totals(),
		Sources:         make([]documentSource, 0, len(in.Report.Sources)),
	}
	for _, s := range in.Report.Sources {
		doc.Sources = append(doc.Sources, documentSource{
			SourceDiff: s,
			Title:      in.Titles[s.Source],
			Error:      in.Errors[s.Source],
		})
	}
	return doc
}
