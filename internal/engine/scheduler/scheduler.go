// File: internal/engine/scheduler/scheduler.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Task is one periodic job. Runs never overlap themselves: each task owns
// a single goroutine that executes Run to completion before the next tick
// is considered.
type Task struct {
	Name  string
	Every time.Duration

	// MinGap, when > 0, skips a tick if the previous completed run
	// finished more recently than this.
	MinGap time.Duration

	Run func(ctx context.Context)
}

// Scheduler drives independent cancellable periodic tasks. No ambient or
// package-level timers: the scheduler is constructed and torn down by its
// owner's lifecycle.
type Scheduler struct {
	clk    clock.Clock
	logger log.Logger
	tasks  []Task

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(clk clock.Clock, logger log.Logger, tasks ...Task) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Scheduler{clk: clk, logger: logger, tasks: tasks}
}

// Start launches every task. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	for _, t := range s.tasks {
		if t.Every <= 0 || t.Run == nil {
			continue
		}

		s.wg.Add(1)
		go s.loop(ctx, t)
	}
}

// Stop cancels every task and waits for in-flight runs to finish.
// Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	defer s.wg.Done()

	ticker := s.clk.Ticker(t.Every)
	defer ticker.Stop()

	var lastRun time.Time

	for {
		select {
		case <-ctx.Done():
			level.Debug(s.logger).Log("msg", "task stopped", "task", t.Name)
			return

		case <-ticker.C:
			now := s.clk.Now()
			if t.MinGap > 0 && !lastRun.IsZero() && now.Sub(lastRun) < t.MinGap {
				continue
			}

			t.Run(ctx)
			lastRun = s.clk.Now()
		}
	}
}
