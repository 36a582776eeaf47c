package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/varietylab/macebatch/internal/catalog"
	"github.com/varietylab/macebatch/internal/log"
	"github.com/varietylab/macebatch/internal/model"
	"github.com/varietylab/macebatch/internal/runner"
)

// Executor runs one job to completion. *runner.Runner implements it.
type Executor interface {
	Run(ctx context.Context, job model.Job) (runner.Result, error)
}

// CompleteFunc reports whether the capture at path already holds a finished run.
type CompleteFunc func(path string) (bool, error)

// Scheduler owns a fixed pool of execution slots. A slot is a token in the
// slots channel: admission takes a token, and only the goroutine running the
// admitted job gives it back.
type Scheduler struct {
	executor Executor
	complete CompleteFunc
	slots    chan int
	running  atomic.Int32
	peak     atomic.Int32
}

type Stats struct {
	Total    int // jobs in the catalog
	Complete int // skipped, capture already shows a model
	Admitted int // given a slot
	Failed   int // admitted, but the tool could not be started
	Peak     int // most jobs running at the same time
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("total", s.Total),
		slog.Int("complete", s.Complete),
		slog.Int("admitted", s.Admitted),
		slog.Int("failed", s.Failed),
		slog.Int("peak", s.Peak),
	)
}

func New(concurrency int, executor Executor) (*Scheduler, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidConcurrency, concurrency)
	}
	if executor == nil {
		return nil, fmt.Errorf("scheduler requires an executor")
	}
	slots := make(chan int, concurrency)
	for i := range concurrency {
		slots <- i
	}
	return &Scheduler{
		executor: executor,
		complete: catalog.Complete,
		slots:    slots,
	}, nil
}

// WithComplete replaces the completion check, catalog.Complete by default.
func (s *Scheduler) WithComplete(f CompleteFunc) *Scheduler {
	s.complete = f
	return s
}

// Concurrency is the number of slots.
func (s *Scheduler) Concurrency() int {
	return cap(s.slots)
}

// Running is the number of jobs currently holding a slot.
func (s *Scheduler) Running() int {
	return int(s.running.Load())
}

// Run considers jobs in the given order. A job whose capture is already
// complete is skipped; any other job waits for a free slot and then starts in
// its own goroutine, while Run moves on to the next job. Run returns only after
// every admitted job finished, so all captures are fully written by then.
//
// Launch failures are logged and counted, they never stop the batch. A canceled
// ctx stops admission; jobs already running are still waited for, and the
// context error is returned.
func (s *Scheduler) Run(ctx context.Context, jobs []model.Job) (Stats, error) {
	stats := Stats{Total: len(jobs)}
	var wg sync.WaitGroup
	var failed atomic.Int32

admission:
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		jctx := log.ContextAttrs(ctx, job.LogAttrs()...)

		done, err := s.complete(job.CapturePath)
		if err != nil {
			slog.WarnContext(jctx, "completion check failed: job will run", "error", err)
		}
		if done {
			stats.Complete++
			slog.DebugContext(jctx, "already complete: skipping")
			continue
		}

		var slot int
		select {
		case slot = <-s.slots:
		case <-ctx.Done():
			break admission
		}
		if ctx.Err() != nil {
			s.slots <- slot
			break
		}
		stats.Admitted++
		jctx = log.ContextAttrs(jctx, slog.Int("slot", slot))

		wg.Go(func() {
			defer func() {
				s.slots <- slot
			}()
			s.enter()
			defer s.running.Add(-1)

			slog.InfoContext(jctx, "job started")
			res, err := s.executor.Run(jctx, job)
			if err != nil {
				failed.Add(1)
				slog.ErrorContext(jctx, "job failed to start", "error", err)
				return
			}
			slog.InfoContext(jctx, "job finished",
				"exit_code", res.ExitCode,
				"killed", res.Killed,
				"duration", res.Stopped.Sub(res.Started),
			)
		})
	}

	wg.Wait()
	stats.Failed = int(failed.Load())
	stats.Peak = int(s.peak.Load())
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("scheduling interrupted: %w", err)
	}
	return stats, nil
}

func (s *Scheduler) enter() {
	n := s.running.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			return
		}
	}
}
