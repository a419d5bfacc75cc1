package tasks

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkerCount = 3
	DefaultTaskTimeout = 5 * time.Minute
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// Outcome is the final state of one task after all its attempts.
type Outcome struct {
	Task     Task
	Err      error
	Attempts int
	Duration time.Duration
}

// Pool runs a batch of tasks with bounded concurrency. A failing task is
// retried with exponential back-off until it succeeds, runs out of retries
// or the context is cancelled. Failures never cancel sibling tasks.
type Pool struct {
	workerCount int
	taskTimeout time.Duration
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = DefaultWorkerCount
	}
	return &Pool{
		workerCount: workerCount,
		taskTimeout: DefaultTaskTimeout,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
	}
}

// WithBackoff overrides the retry delays.
func (p *Pool) WithBackoff(baseDelay, maxDelay time.Duration) *Pool {
	p.baseDelay = baseDelay
	p.maxDelay = maxDelay
	return p
}

func (p *Pool) WithTaskTimeout(timeout time.Duration) *Pool {
	p.taskTimeout = timeout
	return p
}

// Run blocks until every task has resolved. Outcomes are returned in the
// order of tasks.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))

	var g errgroup.Group
	g.SetLimit(p.workerCount)

	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = p.execute(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (p *Pool) execute(ctx context.Context, task Task) Outcome {
	info := task.Info()

	for {
		info.begin()

		taskCtx, cancel := context.WithTimeout(ctx, p.taskTimeout)
		err := task.Execute(taskCtx)
		cancel()

		if err == nil {
			return newOutcome(task, nil)
		}

		if !info.canRetry() || ctx.Err() != nil {
			slog.Error("Task failed", info.logAttrs("max_retries", info.MaxRetries, "error", err)...)
			return newOutcome(task, err)
		}

		delay := p.retryDelay(info.Attempts)
		slog.Warn("Task attempt failed, retrying", info.logAttrs("delay", delay.String(), "error", err)...)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return newOutcome(task, err)
		case <-timer.C:
		}
	}
}

func newOutcome(task Task, err error) Outcome {
	info := task.Info()
	return Outcome{Task: task, Err: err, Attempts: info.Attempts, Duration: info.Elapsed()}
}

func (p *Pool) retryDelay(failures int) time.Duration {
	delay := p.baseDelay << uint(failures-1)
	if delay > p.maxDelay || delay < 0 {
		delay = p.maxDelay
	}
	return delay
}
