// Package survey runs the fetch, normalize, diff and persist pipeline and
// the read-only commands built on its results.
package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/glp1-survey/app/database"
	"github.com/lysyi3m/glp1-survey/app/diff"
	"github.com/lysyi3m/glp1-survey/app/feed"
	"github.com/lysyi3m/glp1-survey/app/fingerprint"
	"github.com/lysyi3m/glp1-survey/app/record"
	"github.com/lysyi3m/glp1-survey/app/report"
	"github.com/lysyi3m/glp1-survey/app/snapshot"
	"github.com/lysyi3m/glp1-survey/app/tasks"
)

type Deps struct {
	Configs   *feed.ConfigCache
	Collector tasks.Collector
	Pool      *tasks.Pool
	Terms     *feed.Terms
	Store     *snapshot.Store
	Reports   database.ReportStore
}

type Service struct {
	configs    *feed.ConfigCache
	collector  tasks.Collector
	pool       *tasks.Pool
	normalizer *record.Normalizer
	filterer   *feed.Filterer
	matcher    *feed.Matcher
	terms      *feed.Terms
	store      *snapshot.Store
	reports    database.ReportStore
	now        func() time.Time

	// one survey at a time; the snapshot file has a single writer
	mu sync.Mutex
}

func NewService(deps Deps) *Service {
	terms := deps.Terms
	if terms == nil {
		terms = feed.DefaultTerms()
	}
	reports := deps.Reports
	if reports == nil {
		reports = database.NewMemoryReportStore()
	}
	pool := deps.Pool
	if pool == nil {
		pool = tasks.NewPool(tasks.DefaultWorkerCount)
	}

	return &Service{
		configs:    deps.Configs,
		collector:  deps.Collector,
		pool:       pool,
		normalizer: record.NewNormalizer(),
		filterer:   feed.NewFilterer(),
		matcher:    feed.NewMatcher(terms),
		terms:      terms,
		store:      deps.Store,
		reports:    reports,
		now:        time.Now,
	}
}

// Run fetches every enabled source, diffs the result against the previous
// snapshot and persists the new one. The returned Result is complete even
// when err is ErrNoSourcesReachable or a *snapshot.SnapshotWriteError.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: s.now().UTC(),
	}

	configs := s.configs.GetEnabledConfigs()
	slog.Info("Survey started", "run_id", result.RunID, "sources", len(configs))

	outcomes := s.fetch(ctx, configs)
	takenAt := s.now().UTC()
	current := snapshot.New(takenAt)

	for i, outcome := range outcomes {
		sourceConfig := configs[i]
		status := SourceStatus{
			Name:     sourceConfig.Name,
			Title:    sourceConfig.DisplayName(),
			Attempts: outcome.Attempts,
			Duration: outcome.Duration,
		}

		if outcome.Err != nil {
			status.err = outcome.Err
			status.Error = outcome.Err.Error()
			result.Statuses = append(result.Statuses, status)
			continue
		}

		items := outcome.Task.(*tasks.FetchSourceTask).Items
		records := s.process(sourceConfig, items, &status)
		current.Put(sourceConfig.Name, records, takenAt)

		result.Reachable++
		result.Statuses = append(result.Statuses, status)
	}

	previous := s.store.LoadPrevious()

	result.Report = diff.Compute(previous, current, diffSources(configs))
	result.Report.RunID = result.RunID

	for i := range result.Statuses {
		if sd, ok := result.Report.Source(result.Statuses[i].Name); ok {
			result.Statuses[i].Status = sd.Status
		}
	}
	for _, sd := range result.Report.Sources {
		result.Records = append(result.Records, sd.Current()...)
	}

	var runErr error
	if len(configs) > 0 && result.Reachable == 0 {
		runErr = ErrNoSourcesReachable
		slog.Error("No sources reachable, snapshot left unchanged", "run_id", result.RunID, "sources", len(configs))
	} else {
		saved, err := s.store.Save(current.CarryForward(previous, result.Report.StaleSources()))
		result.SnapshotSaved = saved
		if err != nil {
			runErr = err
			slog.Error("Failed to save snapshot", "run_id", result.RunID, "error", err)
		}
	}

	result.FinishedAt = s.now().UTC()

	if err := s.reports.SaveReport(ctx, result.Report, runSummary(result, len(configs), runErr)); err != nil {
		slog.Error("Failed to store run report", "run_id", result.RunID, "error", err)
	}

	totals := result.Report.Totals()
	slog.Info("Survey completed",
		"run_id", result.RunID,
		"duration", result.FinishedAt.Sub(result.StartedAt),
		"reachable", result.Reachable,
		"stale", totals.Stale,
		"added", totals.Added,
		"removed", totals.Removed,
		"unchanged", totals.Unchanged,
		"snapshot_saved", result.SnapshotSaved)

	return result, runErr
}

func (s *Service) fetch(ctx context.Context, configs []*feed.Config) []tasks.Outcome {
	batch := make([]tasks.Task, 0, len(configs))
	for _, sourceConfig := range configs {
		batch = append(batch, tasks.NewFetchSourceTask(sourceConfig, s.collector))
	}
	return s.pool.Run(ctx, batch)
}

// process turns raw items of one source into the records stored for it:
// normalize, keyword filters, relevance, then dedupe keeping the first.
func (s *Service) process(sourceConfig *feed.Config, items []record.RawItem, status *SourceStatus) []record.Record {
	status.Fetched = len(items)

	records := make([]record.Record, 0, len(items))
	for _, raw := range items {
		r, err := s.normalizer.Run(sourceConfig.Name, sourceConfig.RecordCategory(), raw)
		if err != nil {
			slog.Warn("Dropping item", "source", sourceConfig.Name, "error", err)
			status.Invalid++
			continue
		}
		records = append(records, r)
	}

	records, status.Filtered = s.filterer.Run(records, sourceConfig)
	records, status.Irrelevant = s.matcher.Run(records, sourceConfig.MatchesTerms())
	records, status.Duplicates = fingerprint.Dedupe(records)
	status.Kept = len(records)

	slog.Debug("Source processed",
		"source", sourceConfig.Name,
		"fetched", status.Fetched,
		"invalid", status.Invalid,
		"filtered", status.Filtered,
		"irrelevant", status.Irrelevant,
		"duplicates", status.Duplicates,
		"kept", status.Kept)

	return records
}

func diffSources(configs []*feed.Config) []diff.Source {
	sources := make([]diff.Source, 0, len(configs))
	for _, c := range configs {
		sources = append(sources, diff.Source{Name: c.Name, Shortage: c.IsShortage()})
	}
	return sources
}

func runSummary(result *Result, total int, runErr error) database.RunSummary {
	run := database.RunSummary{
		ID:           result.RunID,
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
		Status:       database.RunStatusOK,
		Reachable:    result.Reachable,
		TotalSources: total,
	}

	switch {
	case runErr != nil:
		run.Status = database.RunStatusFailed
		run.Message = runErr.Error()
	case result.Reachable < total:
		run.Status = database.RunStatusPartial
		run.Message = fmt.Sprintf("%d of %d sources stale", total-result.Reachable, total)
	}

	return run
}

// Filter builds a search filter expanded through the terms vocabulary.
func (s *Service) Filter(query, drug string) report.Filter {
	return report.NewFilter(s.terms, query, drug)
}

// Search filters the records of the latest snapshot and the last report.
// Nothing is fetched.
func (s *Service) Search(ctx context.Context, filter report.Filter) (*SearchResult, error) {
	snap, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	var entries []snapshot.Entry
	for _, name := range s.sourceOrder(snap) {
		if src, ok := snap.Get(name); ok {
			entries = append(entries, src.Records...)
		}
	}

	result := &SearchResult{
		Filter:  filter,
		TakenAt: snap.TakenAt,
		Records: filter.Records(entries),
	}

	last, err := s.reports.LastReport(ctx)
	switch {
	case err == nil:
		result.Report = filter.Report(last)
	case !errors.Is(err, database.ErrNoReport):
		return nil, err
	}

	return result, nil
}

// Shortage fetches one source now and compares it with the last snapshot
// without writing anything. An empty source name selects the configured
// shortage source.
func (s *Service) Shortage(ctx context.Context, sourceName, drug string) (*ShortageResult, error) {
	sourceConfig, err := s.shortageConfig(sourceName)
	if err != nil {
		return nil, err
	}

	outcome := s.fetch(ctx, []*feed.Config{sourceConfig})[0]

	current := snapshot.New(s.now())
	result := &ShortageResult{
		Source: sourceConfig.Name,
		Title:  sourceConfig.DisplayName(),
	}

	if outcome.Err != nil {
		result.Error = outcome.Err.Error()
	} else {
		var status SourceStatus
		items := outcome.Task.(*tasks.FetchSourceTask).Items
		current.Put(sourceConfig.Name, s.process(sourceConfig, items, &status), current.TakenAt)
	}

	previous := s.store.LoadPrevious()
	rep := diff.Compute(previous, current, []diff.Source{{Name: sourceConfig.Name, Shortage: sourceConfig.IsShortage()}})
	rep.Sources = rep.Sources[:1]
	rep = s.Filter("", drug).Report(rep)

	sd := rep.Sources[0]
	result.Status = sd.Status
	result.Confirmed = sd.Confirmed
	result.Records = sd.Current()
	result.Report = rep

	return result, nil
}

func (s *Service) shortageConfig(sourceName string) (*feed.Config, error) {
	if sourceName != "" {
		return s.configs.GetConfig(sourceName)
	}
	sourceConfig, ok := s.configs.GetShortageConfig()
	if !ok {
		return nil, fmt.Errorf("no enabled shortage source: %w", feed.ErrUnknownSource)
	}
	return sourceConfig, nil
}

// LastDiff returns the most recently stored report.
func (s *Service) LastDiff(ctx context.Context) (*diff.Report, error) {
	return s.reports.LastReport(ctx)
}

func (s *Service) Runs(ctx context.Context, limit int) ([]database.RunSummary, error) {
	return s.reports.Runs(ctx, limit)
}

// Titles maps source names to display names for rendering.
func (s *Service) Titles() map[string]string {
	titles := make(map[string]string)
	for _, c := range s.configs.GetOrderedConfigs() {
		titles[c.Name] = c.DisplayName()
	}
	return titles
}

// sourceOrder lists snapshot sources in configured order, then any others
// by name.
func (s *Service) sourceOrder(snap *snapshot.Snapshot) []string {
	var names []string
	for _, c := range s.configs.GetOrderedConfigs() {
		if _, ok := snap.Get(c.Name); ok {
			names = append(names, c.Name)
		}
	}
	for _, name := range snap.Names() {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}
