package database

import (
	"context"
	"slices"
	"sync"

	"github.com/lysyi3m/glp1-survey/app/diff"
)

// MemoryReportStore holds reports for the lifetime of the process.
type MemoryReportStore struct {
	mu   sync.RWMutex
	last *diff.Report
	runs []RunSummary
}

func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{}
}

func (s *MemoryReportStore) SaveReport(_ context.Context, report *diff.Report, run RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report != nil {
		s.last = report
	}
	s.runs = append(s.runs, run)
	return nil
}

func (s *MemoryReportStore) LastReport(_ context.Context) (*diff.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return nil, ErrNoReport
	}
	return s.last, nil
}

// Runs returns up to limit runs, newest first. limit <= 0 returns all.
func (s *MemoryReportStore) Runs(_ context.Context, limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := slices.Clone(s.runs)
	slices.Reverse(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
