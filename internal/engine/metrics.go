// File: internal/engine/metrics.go
package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	Entries        prometheus.GaugeFunc
	Bytes          prometheus.GaugeFunc
	Hits           prometheus.CounterFunc
	Misses         prometheus.CounterFunc
	Expired        prometheus.CounterFunc
	Evictions      prometheus.Counter
	PressureEvents *prometheus.CounterVec
	OptimizeRuns   prometheus.Counter
}

// newMetrics creates and registers all collectors with the provided
// registry. statsFn is sampled lazily on scrape.
func newMetrics(reg prometheus.Registerer, statsFn func() cacheCounters) *Metrics {
	entries := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pomai_guard_cache_entries",
		Help: "Live entries in the cache table",
	}, func() float64 { return float64(statsFn().entries) })

	bytes := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pomai_guard_cache_bytes",
		Help: "Estimated bytes held by the cache table",
	}, func() float64 { return float64(statsFn().bytes) })

	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "pomai_guard_cache_hits_total",
		Help: "Successful cache reads",
	}, func() float64 { return float64(statsFn().hits) })

	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "pomai_guard_cache_misses_total",
		Help: "Cache reads that found no live entry",
	}, func() float64 { return float64(statsFn().misses) })

	expired := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "pomai_guard_cache_expired_total",
		Help: "Entries reclaimed through TTL expiry",
	}, func() float64 { return float64(statsFn().expired) })

	evictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pomai_guard_cache_evictions_total",
		Help: "Entries removed by the eviction engine",
	})

	pressureEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pomai_guard_pressure_events_total",
		Help: "Raised memory pressure events by level",
	}, []string{"level"})

	optimizeRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pomai_guard_optimize_runs_total",
		Help: "Completed optimization pipeline runs",
	})

	reg.MustRegister(entries, bytes, hits, misses, expired, evictions, pressureEvents, optimizeRuns)

	return &Metrics{
		Entries:        entries,
		Bytes:          bytes,
		Hits:           hits,
		Misses:         misses,
		Expired:        expired,
		Evictions:      evictions,
		PressureEvents: pressureEvents,
		OptimizeRuns:   optimizeRuns,
	}
}

// cacheCounters is the scrape-time snapshot behind the lazy collectors.
type cacheCounters struct {
	entries int
	bytes   int64
	hits    uint64
	misses  uint64
	expired uint64
}
