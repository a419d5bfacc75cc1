package database

import (
	"context"
	"errors"

	"github.com/lysyi3m/glp1-survey/app/diff"
)

var ErrNoReport = errors.New("no diff report available")

// ReportStore keeps the most recent DiffReport and the survey run history.
// The survey service writes one entry per run; the last-diff command and
// the API read from it.
type ReportStore interface {
	SaveReport(ctx context.Context, report *diff.Report, run RunSummary) error
	LastReport(ctx context.Context) (*diff.Report, error)
	Runs(ctx context.Context, limit int) ([]RunSummary, error)
}

var (
	_ ReportStore = (*MemoryReportStore)(nil)
	_ ReportStore = (*RunRepository)(nil)
)
