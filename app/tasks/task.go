package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const KindFetchSource Kind = "fetch_source"

const DefaultMaxRetries = 3

// Task is one unit of pool work. Info exposes the bookkeeping the pool
// updates between attempts.
type Task interface {
	Execute(ctx context.Context) error
	Info() *Info
}

// Info identifies a task and counts its attempts across retries.
type Info struct {
	ID         string
	Kind       Kind
	Source     string
	MaxRetries int
	Attempts   int

	startedAt time.Time
}

func NewInfo(kind Kind, source string, maxRetries int) Info {
	return Info{
		ID:         uuid.NewString(),
		Kind:       kind,
		Source:     source,
		MaxRetries: maxRetries,
	}
}

// begin counts an attempt; the first one fixes the start time.
func (i *Info) begin() {
	if i.Attempts == 0 {
		i.startedAt = time.Now()
	}
	i.Attempts++
}

func (i *Info) canRetry() bool {
	return i.Attempts <= i.MaxRetries
}

// Elapsed is the time since the first attempt started.
func (i *Info) Elapsed() time.Duration {
	if i.startedAt.IsZero() {
		return 0
	}
	return time.Since(i.startedAt)
}

func (i *Info) logAttrs(kv ...any) []any {
	return append([]any{"kind", string(i.Kind), "source", i.Source, "id", i.ID, "attempt", i.Attempts}, kv...)
}
