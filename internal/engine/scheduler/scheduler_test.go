// File: internal/engine/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForRuns(t *testing.T, counter *atomic.Int64, want int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return counter.Load() == want
	}, time.Second, time.Millisecond, "expected %d runs, got %d", want, counter.Load())
}

func TestSchedulerRunsTaskEveryTick(t *testing.T) {
	mock := clock.NewMock()

	var runs atomic.Int64
	s := New(mock, nil, Task{
		Name:  "tick",
		Every: 5 * time.Second,
		Run:   func(ctx context.Context) { runs.Add(1) },
	})

	s.Start(context.Background())
	defer s.Stop()

	// Let the task goroutine reach its select before advancing time.
	time.Sleep(10 * time.Millisecond)

	mock.Add(5 * time.Second)
	waitForRuns(t, &runs, 1)

	mock.Add(5 * time.Second)
	waitForRuns(t, &runs, 2)
}

func TestSchedulerHonorsMinGap(t *testing.T) {
	mock := clock.NewMock()

	var runs atomic.Int64
	s := New(mock, nil, Task{
		Name:   "gapped",
		Every:  time.Second,
		MinGap: 3 * time.Second,
		Run:    func(ctx context.Context) { runs.Add(1) },
	})

	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(10 * time.Millisecond)

	mock.Add(time.Second)
	waitForRuns(t, &runs, 1)

	// Ticks inside the gap are skipped.
	mock.Add(time.Second)
	time.Sleep(10 * time.Millisecond)
	mock.Add(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int64(1), runs.Load())

	mock.Add(time.Second)
	waitForRuns(t, &runs, 2)
}

func TestSchedulerRunsTasksIndependently(t *testing.T) {
	mock := clock.NewMock()

	var fast, slow atomic.Int64
	s := New(mock, nil,
		Task{Name: "fast", Every: time.Second, Run: func(ctx context.Context) { fast.Add(1) }},
		Task{Name: "slow", Every: 3 * time.Second, Run: func(ctx context.Context) { slow.Add(1) }},
	)

	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(10 * time.Millisecond)

	mock.Add(time.Second)
	waitForRuns(t, &fast, 1)
	mock.Add(time.Second)
	waitForRuns(t, &fast, 2)
	mock.Add(time.Second)
	waitForRuns(t, &fast, 3)
	waitForRuns(t, &slow, 1)
}

func TestSchedulerStopCancelsTasks(t *testing.T) {
	mock := clock.NewMock()

	var runs atomic.Int64
	s := New(mock, nil, Task{
		Name:  "tick",
		Every: time.Second,
		Run:   func(ctx context.Context) { runs.Add(1) },
	})

	s.Start(context.Background())
	time.Sleep(10 * time.Millisecond)

	mock.Add(time.Second)
	waitForRuns(t, &runs, 1)

	s.Stop()
	s.Stop() // idempotent

	mock.Add(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int64(1), runs.Load())
}

func TestSchedulerStartTwiceIsNoop(t *testing.T) {
	mock := clock.NewMock()

	var runs atomic.Int64
	s := New(mock, nil, Task{
		Name:  "tick",
		Every: time.Second,
		Run:   func(ctx context.Context) { runs.Add(1) },
	})

	s.Start(context.Background())
	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(10 * time.Millisecond)

	mock.Add(time.Second)
	waitForRuns(t, &runs, 1)
}

func TestSchedulerSkipsInvalidTasks(t *testing.T) {
	s := New(clock.NewMock(), nil,
		Task{Name: "no-period", Run: func(ctx context.Context) {}},
		Task{Name: "no-run", Every: time.Second},
	)

	s.Start(context.Background())
	s.Stop()
}
