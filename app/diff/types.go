package diff

import (
	"time"

	"github.com/lysyi3m/glp1-survey/app/snapshot"
)

type Status string

const (
	StatusOK             Status = "ok"
	StatusStale          Status = "stale"
	StatusEmptyConfirmed Status = "empty-confirmed"
)

// Source is one configured source in report order. Shortage marks the
// shortage-category source.
type Source struct {
	Name     string
	Shortage bool
}

type SourceDiff struct {
	Source    string     `json:"source"`
	Status    Status     `json:"status"`
	Shortage  bool       `json:"shortage,omitempty"`
	Confirmed bool       `json:"confirmed"`
	CheckedAt *time.Time `json:"checked_at,omitempty"`

	Added     []snapshot.Entry `json:"added"`
	Removed   []snapshot.Entry `json:"removed"`
	Unchanged []snapshot.Entry `json:"unchanged"`
	Carried   []snapshot.Entry `json:"carried,omitempty"`
}

// Current is every record the source holds after this run: the fresh
// records, or the carried ones when stale.
func (d SourceDiff) Current() []snapshot.Entry {
	if d.Status == StatusStale {
		return d.Carried
	}
	current := make([]snapshot.Entry, 0, len(d.Added)+len(d.Unchanged))
	current = append(current, d.Added...)
	current = append(current, d.Unchanged...)
	return current
}

type Report struct {
	RunID           string       `json:"run_id,omitempty"`
	GeneratedAt     time.Time    `json:"generated_at"`
	HasPrevious     bool         `json:"has_previous"`
	PreviousTakenAt *time.Time   `json:"previous_taken_at,omitempty"`
	Sources         []SourceDiff `json:"sources"`
}

func (r *Report) Source(name string) (*SourceDiff, bool) {
	for i := range r.Sources {
		if r.Sources[i].Source == name {
			return &r.Sources[i], true
		}
	}
	return nil, false
}

// StaleSources names every source reported stale, in report order.
func (r *Report) StaleSources() []string {
	var names []string
	for _, s := range r.Sources {
		if s.Status == StatusStale {
			names = append(names, s.Source)
		}
	}
	return names
}

type Totals struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Stale     int `json:"stale"`
}

func (r *Report) Totals() Totals {
	var t Totals
	for _, s := range r.Sources {
		t.Added += len(s.Added)
		t.Removed += len(s.Removed)
		t.Unchanged += len(s.Unchanged)
		if s.Status == StatusStale {
			t.Stale++
		}
	}
	return t
}
