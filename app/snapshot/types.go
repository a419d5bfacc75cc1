package snapshot

import (
	"slices"
	"time"

	"github.com/lysyi3m/glp1-survey/app/fingerprint"
	"github.com/lysyi3m/glp1-survey/app/record"
)

// FormatVersion is written into every snapshot file.
const FormatVersion = 1

// Entry is a Record together with its fingerprint.
type Entry struct {
	Fingerprint fingerprint.Key `json:"fingerprint"`
	record.Record
}

func NewEntry(r record.Record) Entry {
	return Entry{Fingerprint: fingerprint.Of(r), Record: r}
}

type Source struct {
	CheckedAt time.Time `json:"checked_at"`
	Stale     bool      `json:"stale,omitempty"`
	Records   []Entry   `json:"records"`
}

// Snapshot holds every record captured in one run, keyed by source name.
type Snapshot struct {
	Version int                `json:"version"`
	TakenAt time.Time          `json:"taken_at"`
	Sources map[string]*Source `json:"sources"`
}

func New(takenAt time.Time) *Snapshot {
	return &Snapshot{
		Version: FormatVersion,
		TakenAt: takenAt.UTC(),
		Sources: make(map[string]*Source),
	}
}

// Put stores records for a source whose fetch succeeded in this run.
func (s *Snapshot) Put(name string, records []record.Record, checkedAt time.Time) {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, NewEntry(r))
	}
	s.Sources[name] = &Source{CheckedAt: checkedAt.UTC(), Records: entries}
}

// Get returns the named source. A nil snapshot has no sources.
func (s *Snapshot) Get(name string) (*Source, bool) {
	if s == nil {
		return nil, false
	}
	src, ok := s.Sources[name]
	return src, ok && src != nil
}

// Records returns the plain records of a source in stored order.
func (s *Snapshot) Records(name string) []record.Record {
	src, ok := s.Get(name)
	if !ok {
		return nil
	}
	records := make([]record.Record, 0, len(src.Records))
	for _, e := range src.Records {
		records = append(records, e.Record)
	}
	return records
}

// Names lists source names in lexical order.
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Sources))
	for name := range s.Sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// HasRecords reports whether any source fetched in this run holds records.
// Carried-forward sources do not count.
func (s *Snapshot) HasRecords() bool {
	if s == nil {
		return false
	}
	for _, src := range s.Sources {
		if src != nil && !src.Stale && len(src.Records) > 0 {
			return true
		}
	}
	return false
}

// CarryForward copies the previous records of each stale source into s,
// flagged stale, so the next run still has a baseline for them.
func (s *Snapshot) CarryForward(previous *Snapshot, stale []string) *Snapshot {
	for _, name := range stale {
		if _, ok := s.Sources[name]; ok {
			continue
		}
		prev, ok := previous.Get(name)
		if !ok {
			continue
		}
		s.Sources[name] = &Source{
			CheckedAt: prev.CheckedAt,
			Stale:     true,
			Records:   slices.Clone(prev.Records),
		}
	}
	return s
}
