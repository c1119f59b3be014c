// File: internal/engine/manager.go
package engine

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/AutoCookies/pomai-guard/internal/engine/core"
	"github.com/AutoCookies/pomai-guard/internal/engine/eviction"
	"github.com/AutoCookies/pomai-guard/internal/engine/memstats"
	"github.com/AutoCookies/pomai-guard/internal/engine/pressure"
	"github.com/AutoCookies/pomai-guard/internal/engine/scheduler"
)

// ErrDisposed is returned by every mutating operation after Dispose.
var ErrDisposed = errors.New("resource manager disposed")

// CollectionTrigger requests a host-level forced collection. The return
// reports whether a collection actually ran; hosts without the capability
// return false rather than erroring.
type CollectionTrigger interface {
	RequestCollection() bool
}

// RuntimeCollector forces a Go garbage collection cycle.
type RuntimeCollector struct{}

func (RuntimeCollector) RequestCollection() bool {
	runtime.GC()
	return true
}

// NopCollector models an absent collection capability.
type NopCollector struct{}

func (NopCollector) RequestCollection() bool { return false }

// Options are the injectable collaborators of a Manager. Zero values pick
// production defaults.
type Options struct {
	Logger     log.Logger
	Clock      clock.Clock
	HeapSource memstats.HeapSource
	Collector  CollectionTrigger

	// Registry receives the engine's metrics; nil disables them.
	Registry prometheus.Registerer
}

// Manager is the public façade composing the cache table, eviction
// engine, stats probe, pressure dispatcher and scheduler. It owns their
// lifecycle: construct, Initialize once, Dispose once.
type Manager struct {
	cfg    Config
	logger log.Logger
	clk    clock.Clock

	store      *core.Store
	probe      *memstats.Probe
	dispatcher *pressure.Dispatcher
	sched      *scheduler.Scheduler
	collector  CollectionTrigger
	metrics    *Metrics

	group singleflight.Group
	optMu sync.Mutex

	initialized atomic.Bool
	disposed    atomic.Bool
}

// NewManager creates a manager with production collaborators: the real
// clock, runtime heap introspection and a runtime collection trigger.
func NewManager(cfg Config) (*Manager, error) {
	return NewManagerWithOptions(cfg, Options{})
}

// NewManagerWithOptions creates a manager with explicit collaborators.
func NewManagerWithOptions(cfg Config, opts Options) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.HeapSource == nil {
		opts.HeapSource = memstats.RuntimeSource{}
	}
	if opts.Collector == nil {
		opts.Collector = RuntimeCollector{}
	}

	m := &Manager{
		cfg:       cfg,
		logger:    opts.Logger,
		clk:       opts.Clock,
		collector: opts.Collector,
	}

	evictor := eviction.NewEngine(cfg.MaxCacheBytes, opts.Logger)

	m.store = core.NewStore(evictor, opts.Clock, opts.Logger)
	m.store.SetCompressMinBytes(cfg.CompressMinBytes)

	m.probe = memstats.NewProbe(opts.HeapSource, m.store)

	m.dispatcher = pressure.NewDispatcher(cfg.Thresholds, opts.Logger)
	m.dispatcher.CacheUsageFunc = func() pressure.CacheUsage {
		return pressure.CacheUsage{
			TotalBytes:    m.store.TotalBytes(),
			CapacityBytes: cfg.MaxCacheBytes,
		}
	}
	m.dispatcher.CriticalAction = func(ctx context.Context) {
		if _, err := m.OptimizeMemory(ctx); err != nil && !errors.Is(err, ErrDisposed) {
			level.Warn(m.logger).Log("msg", "automatic optimization failed", "err", err)
		}
	}

	if opts.Registry != nil {
		m.metrics = newMetrics(opts.Registry, m.counters)
		evictor.Evictions = m.metrics.Evictions
		m.dispatcher.Events = m.metrics.PressureEvents
	}

	m.sched = scheduler.New(opts.Clock, opts.Logger,
		scheduler.Task{
			Name:  "pressure-monitor",
			Every: cfg.MonitorPeriod,
			Run:   m.monitorTick,
		},
		scheduler.Task{
			Name:   "ttl-cleanup",
			Every:  cfg.CleanupPeriod,
			MinGap: cfg.CleanupPeriod,
			Run:    m.cleanupTick,
		},
	)

	return m, nil
}

// Initialize starts the periodic monitor and cleanup tasks. Calling it on
// an already-initialized manager is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	if m.disposed.Load() {
		return ErrDisposed
	}
	if !m.initialized.CompareAndSwap(false, true) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.sched.Start(ctx)
	level.Info(m.logger).Log(
		"msg", "resource manager initialized",
		"capacity_bytes", m.cfg.MaxCacheBytes,
		"monitor_period", m.cfg.MonitorPeriod,
		"cleanup_period", m.cfg.CleanupPeriod,
	)
	return nil
}

// Dispose stops both scheduled tasks, drops every cache entry and every
// pressure handler. Idempotent: the second and later calls are no-ops.
func (m *Manager) Dispose() {
	if !m.disposed.CompareAndSwap(false, true) {
		return
	}

	m.sched.Stop()
	m.store.Purge()
	m.dispatcher.Reset()

	level.Info(m.logger).Log("msg", "resource manager disposed")
}

// CacheData inserts or overwrites an entry, evicting as needed to stay
// within the configured capacity.
func (m *Manager) CacheData(key string, value interface{}, opts core.Options) error {
	if m.disposed.Load() {
		return ErrDisposed
	}

	if err := m.store.Put(key, value, opts); err != nil {
		return err
	}

	level.Debug(m.logger).Log("msg", "cached", "key", key)
	return nil
}

// GetCached returns the cached value for key, or absent. Expired entries
// are reclaimed lazily on read.
func (m *Manager) GetCached(key string) (interface{}, bool) {
	if m.disposed.Load() {
		return nil, false
	}
	return m.store.Get(key)
}

// GetOrLoad returns the cached value for key, invoking loader on a miss.
// Concurrent misses for the same key are coalesced into a single loader
// call; the loaded value is cached best-effort before being returned.
func (m *Manager) GetOrLoad(ctx context.Context, key string, loader func(ctx context.Context) (interface{}, core.Options, error)) (interface{}, error) {
	if m.disposed.Load() {
		return nil, ErrDisposed
	}

	if v, ok := m.store.Get(key); ok {
		return v, nil
	}

	resCh := m.group.DoChan(key, func() (interface{}, error) {
		v, opts, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		if err := m.store.Put(key, v, opts); err != nil {
			level.Warn(m.logger).Log("msg", "caching loaded value failed", "key", key, "err", err)
		}
		return v, nil
	})

	select {
	case r := <-resCh:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Evict removes an entry and reports whether it existed.
func (m *Manager) Evict(key string) (bool, error) {
	if m.disposed.Load() {
		return false, ErrDisposed
	}
	return m.store.Evict(key), nil
}

// ClearCache removes every entry matching any supplied criterion and
// returns the count removed.
func (m *Manager) ClearCache(c core.Criteria) (int, error) {
	if m.disposed.Load() {
		return 0, ErrDisposed
	}

	removed := m.store.Clear(c)
	if removed > 0 {
		level.Info(m.logger).Log("msg", "cleared cache entries", "removed", removed)
	}
	return removed, nil
}

// GetCacheStats aggregates the cache table.
func (m *Manager) GetCacheStats() core.Stats {
	return m.store.Stats()
}

// GetMemoryStats reads current process memory usage.
func (m *Manager) GetMemoryStats() memstats.Stats {
	return m.probe.Read()
}

// TTLRemaining reports the idle time left before key expires.
func (m *Manager) TTLRemaining(key string) (time.Duration, bool) {
	if m.disposed.Load() {
		return 0, false
	}
	return m.store.TTLRemaining(key)
}

// OnMemoryPressure registers a pressure handler and returns its token.
func (m *Manager) OnMemoryPressure(h pressure.Handler) (uuid.UUID, error) {
	if m.disposed.Load() {
		return uuid.Nil, ErrDisposed
	}
	return m.dispatcher.Subscribe(h), nil
}

// OffMemoryPressure unregisters a handler by token.
func (m *Manager) OffMemoryPressure(id uuid.UUID) (bool, error) {
	if m.disposed.Load() {
		return false, ErrDisposed
	}
	return m.dispatcher.Unsubscribe(id), nil
}

// ForceCollection requests a host collection cycle, reporting whether one
// actually ran.
func (m *Manager) ForceCollection() bool {
	if m.disposed.Load() || m.collector == nil {
		return false
	}
	return m.collector.RequestCollection()
}

// CheckPressure samples memory and dispatches a pressure event if a
// threshold is crossed. The scheduler calls this on every monitor tick;
// it is exported for hosts that want an immediate check.
func (m *Manager) CheckPressure(ctx context.Context) (pressure.Event, bool) {
	if m.disposed.Load() {
		return pressure.Event{}, false
	}
	return m.dispatcher.Check(ctx, m.probe.Read())
}

func (m *Manager) monitorTick(ctx context.Context) {
	m.CheckPressure(ctx)
}

func (m *Manager) cleanupTick(ctx context.Context) {
	if n := m.store.ClearExpired(); n > 0 {
		level.Debug(m.logger).Log("msg", "routine cleanup", "expired", n)
	}
}

// counters feeds the lazy metrics collectors.
func (m *Manager) counters() cacheCounters {
	st := m.store.Stats()
	return cacheCounters{
		entries: st.TotalEntries,
		bytes:   st.TotalSizeBytes,
		hits:    st.Hits,
		misses:  st.Misses,
		expired: st.Expired,
	}
}
