package database

import (
	"time"
)

type RunStatus string

const (
	RunStatusOK      RunStatus = "ok"      // every source fetched
	RunStatusPartial RunStatus = "partial" // some sources stale
	RunStatusFailed  RunStatus = "failed"  // no source reachable or snapshot not written
)

// RunSummary is one row of survey run history.
type RunSummary struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Status       RunStatus `json:"status"`
	Message      string    `json:"message,omitempty"`
	Reachable    int       `json:"reachable"`
	TotalSources int       `json:"total_sources"`
}

func (r RunSummary) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
