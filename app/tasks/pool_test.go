package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/glp1-survey/app/feed"
	"github.com/lysyi3m/glp1-survey/app/record"
)

type fakeCollector struct {
	mu       sync.Mutex
	failures map[string]int // attempts that fail before succeeding; -1 fails forever
	calls    map[string]int
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{failures: map[string]int{}, calls: map[string]int{}}
}

func (c *fakeCollector) Collect(ctx context.Context, sourceConfig *feed.Config) ([]record.RawItem, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	c.calls[sourceConfig.Name]++
	call := c.calls[sourceConfig.Name]
	failures := c.failures[sourceConfig.Name]
	c.mu.Unlock()

	if failures < 0 || call <= failures {
		return nil, errors.New("connection refused")
	}
	return []record.RawItem{{"title": sourceConfig.Name + " item"}}, nil
}

func sourceTasks(collector Collector, retries int, names ...string) []Task {
	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		cfg := &feed.Config{Name: name, Settings: feed.ConfigSettings{Retries: retries}}
		tasks = append(tasks, NewFetchSourceTask(cfg, collector))
	}
	return tasks
}

func newTestPool(workers int) *Pool {
	return NewPool(workers).WithBackoff(time.Millisecond, 5*time.Millisecond)
}

func TestPool_Run_AllSucceed(t *testing.T) {
	collector := newFakeCollector()
	tasks := sourceTasks(collector, 0, "a", "b", "c")

	outcomes := newTestPool(2).Run(context.Background(), tasks)

	if len(outcomes) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(outcomes))
	}
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			t.Errorf("Task %d: unexpected error %v", i, outcome.Err)
		}
		if outcome.Attempts != 1 {
			t.Errorf("Task %d: expected 1 attempt, got %d", i, outcome.Attempts)
		}
		if outcome.Task.Info().Source != tasks[i].Info().Source {
			t.Errorf("Expected outcomes in task order, got %s at %d", outcome.Task.Info().Source, i)
		}
		items := outcome.Task.(*FetchSourceTask).Items
		if len(items) != 1 {
			t.Errorf("Task %d: expected 1 item, got %d", i, len(items))
		}
	}
}

func TestPool_Run_RetriesThenSucceeds(t *testing.T) {
	collector := newFakeCollector()
	collector.failures["flaky"] = 2

	outcomes := newTestPool(1).Run(context.Background(), sourceTasks(collector, 3, "flaky"))

	if outcomes[0].Err != nil {
		t.Fatalf("Expected success after retries, got %v", outcomes[0].Err)
	}
	if outcomes[0].Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", outcomes[0].Attempts)
	}
}

func TestPool_Run_FailureIsolated(t *testing.T) {
	collector := newFakeCollector()
	collector.failures["down"] = -1

	outcomes := newTestPool(2).Run(context.Background(), sourceTasks(collector, 2, "down", "up"))

	var fetchErr *feed.FetchError
	if !errors.As(outcomes[0].Err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %v", outcomes[0].Err)
	}
	if fetchErr.Source != "down" {
		t.Errorf("Expected source 'down', got '%s'", fetchErr.Source)
	}
	if outcomes[0].Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", outcomes[0].Attempts)
	}
	if outcomes[1].Err != nil {
		t.Errorf("Expected sibling task to succeed, got %v", outcomes[1].Err)
	}
}

func TestPool_Run_BoundedConcurrency(t *testing.T) {
	collector := newFakeCollector()
	collector.delay = 20 * time.Millisecond

	newTestPool(2).Run(context.Background(), sourceTasks(collector, 0, "a", "b", "c", "d", "e"))

	if peak := collector.peak.Load(); peak > 2 {
		t.Errorf("Expected at most 2 concurrent tasks, got %d", peak)
	}
}

func TestPool_Run_CancelStopsRetries(t *testing.T) {
	collector := newFakeCollector()
	collector.failures["down"] = -1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool(1).WithBackoff(time.Hour, time.Hour)
	outcomes := pool.Run(ctx, sourceTasks(collector, 5, "down"))

	if outcomes[0].Err == nil {
		t.Fatal("Expected error for cancelled run")
	}
	if outcomes[0].Attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", outcomes[0].Attempts)
	}
}

func TestPool_RetryDelay(t *testing.T) {
	pool := NewPool(1)

	tests := map[int]time.Duration{
		1: time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
		6: 30 * time.Second,
	}
	for retry, want := range tests {
		if got := pool.retryDelay(retry); got != want {
			t.Errorf("Retry %d: expected %v, got %v", retry, want, got)
		}
	}
}

func TestNewInfo(t *testing.T) {
	a := NewInfo(KindFetchSource, "x", DefaultMaxRetries)
	b := NewInfo(KindFetchSource, "x", DefaultMaxRetries)

	if a.ID == b.ID {
		t.Error("Expected unique task IDs")
	}
	if a.Elapsed() != 0 {
		t.Error("Expected zero elapsed time before the first attempt")
	}

	for range DefaultMaxRetries {
		a.begin()
		if !a.canRetry() {
			t.Fatalf("Expected a retry to remain after attempt %d", a.Attempts)
		}
	}
	a.begin()
	if a.canRetry() {
		t.Errorf("Expected no retry after %d attempts", a.Attempts)
	}
}
