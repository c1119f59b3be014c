// File: internal/engine/pressure/dispatcher.go
package pressure

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AutoCookies/pomai-guard/internal/engine/memstats"
)

// Handler observes pressure events. Handlers run sequentially in
// registration order; returning an error (or panicking) is isolated and
// never blocks the remaining handlers.
type Handler func(ctx context.Context, ev Event) error

type subscription struct {
	id uuid.UUID
	fn Handler
}

// Dispatcher classifies readings and fans events out to subscribers.
// When a reading classifies as critical it additionally runs the
// configured critical action after every handler has returned.
type Dispatcher struct {
	thresholds Thresholds
	logger     log.Logger

	// CacheUsageFunc supplies cache footprint for recommendations. Optional.
	CacheUsageFunc func() CacheUsage

	// CriticalAction runs after handler dispatch for critical events.
	// Optional.
	CriticalAction func(ctx context.Context)

	// Events, when set, counts raised events by level.
	Events *prometheus.CounterVec

	mu   sync.Mutex
	subs []subscription
}

func NewDispatcher(th Thresholds, logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Dispatcher{thresholds: th, logger: logger}
}

// Subscribe registers a handler and returns its token.
func (d *Dispatcher) Subscribe(h Handler) uuid.UUID {
	id := uuid.New()

	d.mu.Lock()
	d.subs = append(d.subs, subscription{id: id, fn: h})
	d.mu.Unlock()

	return id
}

// Unsubscribe removes a handler by token and reports whether it existed.
func (d *Dispatcher) Unsubscribe(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, sub := range d.subs {
		if sub.id == id {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered handlers.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Reset drops every subscription.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	d.subs = nil
	d.mu.Unlock()
}

// Check classifies a reading and, if it crosses a threshold, notifies
// every subscriber sequentially. Returns the event and whether one was
// raised.
func (d *Dispatcher) Check(ctx context.Context, stats memstats.Stats) (Event, bool) {
	var cache CacheUsage
	if d.CacheUsageFunc != nil {
		cache = d.CacheUsageFunc()
	}

	ev, ok := Classify(stats, d.thresholds, cache)
	if !ok {
		return Event{}, false
	}

	if d.Events != nil {
		d.Events.WithLabelValues(ev.Level.String()).Inc()
	}

	level.Info(d.logger).Log(
		"msg", "memory pressure",
		"level", ev.Level.String(),
		"threshold", ev.ThresholdCrossed,
		"usage_percent", fmt.Sprintf("%.1f", ev.UsagePercent),
	)

	d.mu.Lock()
	subs := make([]subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, sub := range subs {
		d.dispatch(ctx, sub, ev)
	}

	if ev.Level == LevelCritical && d.CriticalAction != nil {
		d.CriticalAction(ctx)
	}

	return ev, true
}

// dispatch invokes one handler, containing both errors and panics.
func (d *Dispatcher) dispatch(ctx context.Context, sub subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			level.Error(d.logger).Log("msg", "pressure handler panicked", "handler", sub.id, "panic", r)
		}
	}()

	if err := sub.fn(ctx, ev); err != nil {
		level.Warn(d.logger).Log("msg", "pressure handler failed", "handler", sub.id, "err", err)
	}
}
