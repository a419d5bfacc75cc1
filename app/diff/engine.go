// Package diff compares two snapshots source by source.
package diff

import (
	"cmp"
	"slices"

	"github.com/lysyi3m/glp1-survey/app/fingerprint"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
)

// Compute builds the report for current against previous, which may be nil.
// Sources fixes the report order; sources present in either snapshot but
// not configured follow, sorted by name. A source found only in previous
// is reported stale with its records carried. With no sources given, every source of
// either snapshot is compared. Compute does not modify its inputs.
func Compute(previous, current *snapshot.Snapshot, sources []Source) *Report {
	report := &Report{
		HasPrevious: previous != nil,
		Sources:     make([]SourceDiff, 0, len(sources)),
	}
	if current != nil {
		report.GeneratedAt = current.TakenAt
	}
	if previous != nil {
		taken := previous.TakenAt
		report.PreviousTakenAt = &taken
	}

	for _, src := range reportOrder(previous, current, sources) {
		prev, _ := previous.Get(src.Name)
		cur, _ := current.Get(src.Name)
		report.Sources = append(report.Sources, compareSource(src, prev, cur))
	}

	return report
}

func compareSource(src Source, prev, cur *snapshot.Source) SourceDiff {
	d := SourceDiff{
		Source:    src.Name,
		Shortage:  src.Shortage,
		Added:     []snapshot.Entry{},
		Removed:   []snapshot.Entry{},
		Unchanged: []snapshot.Entry{},
	}

	// no fresh data: keep what we had, report nothing as removed
	if cur == nil || cur.Stale {
		d.Status = StatusStale
		switch {
		case cur != nil:
			d.Carried = sorted(cur.Records)
		case prev != nil:
			d.Carried = sorted(prev.Records)
		}
		return d
	}

	checked := cur.CheckedAt
	d.CheckedAt = &checked

	previous := make(map[fingerprint.Key]struct{})
	if prev != nil {
		for _, e := range prev.Records {
			previous[e.Fingerprint] = struct{}{}
		}
	}

	current := make(map[fingerprint.Key]struct{}, len(cur.Records))
	for _, e := range cur.Records {
		if _, dup := current[e.Fingerprint]; dup {
			continue
		}
		current[e.Fingerprint] = struct{}{}

		if _, ok := previous[e.Fingerprint]; ok {
			d.Unchanged = append(d.Unchanged, e)
		} else {
			d.Added = append(d.Added, e)
		}
	}

	if prev != nil {
		removed := make(map[fingerprint.Key]struct{})
		for _, e := range prev.Records {
			if _, ok := current[e.Fingerprint]; ok {
				continue
			}
			if _, dup := removed[e.Fingerprint]; dup {
				continue
			}
			removed[e.Fingerprint] = struct{}{}
			d.Removed = append(d.Removed, e)
		}
	}

	d.Added = sorted(d.Added)
	d.Removed = sorted(d.Removed)
	d.Unchanged = sorted(d.Unchanged)

	d.Status = StatusOK
	if src.Shortage {
		d.Confirmed = true
		if len(current) == 0 {
			d.Status = StatusEmptyConfirmed
		}
	}

	return d
}

func reportOrder(previous, current *snapshot.Snapshot, sources []Source) []Source {
	if len(sources) == 0 {
		seen := make(map[string]bool)
		var names []string
		for _, name := range append(previous.Names(), current.Names()...) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		slices.Sort(names)

		order := make([]Source, 0, len(names))
		for _, name := range names {
			order = append(order, Source{Name: name})
		}
		return order
	}

	order := slices.Clone(sources)
	configured := make(map[string]bool, len(sources))
	for _, s := range sources {
		configured[s.Name] = true
	}

	var extras []string
	for _, name := range append(current.Names(), previous.Names()...) {
		if !configured[name] {
			configured[name] = true
			extras = append(extras, name)
		}
	}
	slices.Sort(extras)

	for _, name := range extras {
		order = append(order, Source{Name: name})
	}
	return order
}

// sorted returns a copy ordered by published time (newest first, undated
// last), then normalized title, then fingerprint.
func sorted(entries []snapshot.Entry) []snapshot.Entry {
	out := slices.Clone(entries)
	if out == nil {
		out = []snapshot.Entry{}
	}
	slices.SortStableFunc(out, compareEntries)
	return out
}

func compareEntries(a, b snapshot.Entry) int {
	switch {
	case a.PublishedAt != nil && b.PublishedAt != nil:
		if c := b.PublishedAt.Compare(*a.PublishedAt); c != 0 {
			return c
		}
	case a.PublishedAt != nil:
		return -1
	case b.PublishedAt != nil:
		return 1
	}

	return cmp.Or(
		cmp.Compare(fingerprint.Title(a.Title), fingerprint.Title(b.Title)),
		cmp.Compare(a.Fingerprint, b.Fingerprint),
	)
}
