package survey

import (
	"errors"
	"time"

	"github.com/lysyi3m/glp1-survey/app/diff"
	"github.com/lysyi3m/glp1-survey/app/report"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
)

var ErrNoSourcesReachable = errors.New("no sources reachable, previous snapshot kept")

// SourceStatus describes what happened to one source during a run.
type SourceStatus struct {
	Name     string        `json:"name"`
	Title    string        `json:"title"`
	Status   diff.Status   `json:"status"`
	Error    string        `json:"error,omitempty"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`

	Fetched    int `json:"fetched"`
	Invalid    int `json:"invalid"`
	Filtered   int `json:"filtered"`
	Irrelevant int `json:"irrelevant"`
	Duplicates int `json:"duplicates"`
	Kept       int `json:"kept"`

	err error
}

func (s SourceStatus) Err() error {
	return s.err
}

// Result is the outcome of one survey run. Records holds every record the
// run ends with: fresh records, plus carried records of stale sources.
type Result struct {
	RunID         string           `json:"run_id"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
	Records       []snapshot.Entry `json:"records"`
	Report        *diff.Report     `json:"report"`
	Statuses      []SourceStatus   `json:"statuses"`
	Reachable     int              `json:"reachable"`
	SnapshotSaved bool             `json:"snapshot_saved"`
}

// Errors maps each failed source to its fetch error message.
func (r *Result) Errors() map[string]string {
	errs := make(map[string]string)
	for _, s := range r.Statuses {
		if s.Error != "" {
			errs[s.Name] = s.Error
		}
	}
	return errs
}

type SearchResult struct {
	Filter  report.Filter    `json:"-"`
	TakenAt time.Time        `json:"taken_at"`
	Records []snapshot.Entry `json:"records"`
	Report  *diff.Report     `json:"report,omitempty"`
}

// ShortageResult is a live check of one source against the last snapshot.
type ShortageResult struct {
	Source    string           `json:"source"`
	Title     string           `json:"title"`
	Status    diff.Status      `json:"status"`
	Confirmed bool             `json:"confirmed"`
	Error     string           `json:"error,omitempty"`
	Records   []snapshot.Entry `json:"records"`
	Report    *diff.Report     `json:"report"`
}
