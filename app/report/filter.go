package report

import (
	"strings"

	"github.com/lysyi3m/glp1-survey/app/diff"
	"github.com/lysyi3m/glp1-survey/app/feed"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
)

// Filter narrows records by a free-text query and a drug name. Both are
// expanded through the terms vocabulary, so a brand name also finds
// records that only mention the generic name. An empty Filter keeps
// everything.
type Filter struct {
	Query string
	Drug  string

	query []string
	drug  []string
}

func NewFilter(terms *feed.Terms, query, drug string) Filter {
	f := Filter{
		Query: strings.TrimSpace(query),
		Drug:  strings.TrimSpace(drug),
	}
	if terms == nil {
		terms = &feed.Terms{}
	}
	f.query = lowered(terms.Expand(f.Query))
	f.drug = lowered(terms.Expand(f.Drug))
	return f
}

func (f Filter) IsEmpty() bool {
	return len(f.query) == 0 && len(f.drug) == 0
}

func (f Filter) Match(e snapshot.Entry) bool {
	text := strings.ToLower(e.Text())
	return containsAny(text, f.query) && containsAny(text, f.drug)
}

func (f Filter) Records(entries []snapshot.Entry) []snapshot.Entry {
	if f.IsEmpty() {
		return entries
	}
	kept := make([]snapshot.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

// Report returns a filtered copy of r. Source statuses are kept even when
// every record of a source is filtered out, except that a confirmed
// shortage source left without records becomes empty-confirmed.
func (f Filter) Report(r *diff.Report) *diff.Report {
	if r == nil || f.IsEmpty() {
		return r
	}

	out := *r
	out.Sources = make([]diff.SourceDiff, 0, len(r.Sources))
	for _, s := range r.Sources {
		s.Added = f.Records(s.Added)
		s.Removed = f.Records(s.Removed)
		s.Unchanged = f.Records(s.Unchanged)
		if s.Carried != nil {
			s.Carried = f.Records(s.Carried)
		}
		// a confirmed shortage list without the filtered drug confirms it is not short
		if s.Shortage && s.Confirmed && s.Status == diff.StatusOK && len(s.Current()) == 0 {
			s.Status = diff.StatusEmptyConfirmed
		}
		out.Sources = append(out.Sources, s)
	}
	return &out
}

func containsAny(text string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func lowered(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}
