package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/glp1-survey/app/diff"
)

const timeFormat = time.RFC3339Nano

// RunRepository stores run history and reports in SQLite.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) SaveReport(ctx context.Context, report *diff.Report, run RunSummary) error {
	var reportJSON sql.NullString
	if report != nil {
		data, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		reportJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, status, message, reachable, total_sources, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC().Format(timeFormat), run.FinishedAt.UTC().Format(timeFormat),
		string(run.Status), run.Message, run.Reachable, run.TotalSources, reportJSON)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

func (r *RunRepository) LastReport(ctx context.Context) (*diff.Report, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `
		SELECT report_json FROM runs
		WHERE report_json IS NOT NULL
		ORDER BY rowid DESC
		LIMIT 1
	`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last report: %w", err)
	}

	var report diff.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}

	return &report, nil
}

// Runs returns up to limit runs, newest first. limit <= 0 returns all.
func (r *RunRepository) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
		SELECT id, started_at, finished_at, status, message, reachable, total_sources
		FROM runs
		ORDER BY rowid DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var startedAt, finishedAt, status string
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &status, &run.Message, &run.Reachable, &run.TotalSources); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Status = RunStatus(status)
		if run.StartedAt, err = time.Parse(timeFormat, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(timeFormat, finishedAt); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}
