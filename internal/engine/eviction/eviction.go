// File: internal/engine/eviction/eviction.go
package eviction

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
)

// criticalProtectRatio is the share of the eviction target that must be
// freed from non-critical entries before critical entries become eligible.
const criticalProtectRatio = 0.8

// Candidate describes one reclaimable entry; oldest-access ordering is the
// table's responsibility.
type Candidate struct {
	Key      string
	Size     int64
	Critical bool
}

// Table is the slice of store state the engine reclaims from. All methods
// are invoked while the owning store's lock is held; implementations must
// not take the lock again.
type Table interface {
	// CandidatesOldestFirst lists live entries ordered by last access,
	// oldest first. Ties keep insertion order.
	CandidatesOldestFirst() []Candidate

	// Remove deletes an entry and reports the bytes it occupied.
	Remove(key string) (int64, bool)
}

// Engine frees space in a bounded table using recency ordering with
// priority protection. Recency keeps hot data resident; the protection
// ratio keeps critical entries alive until pressure exhausts the cheaper
// candidates.
type Engine struct {
	capacity int64
	logger   log.Logger

	// Evictions, when set, counts every removed entry.
	Evictions prometheus.Counter
}

// NewEngine creates an engine for a table bounded at capacity bytes.
// A capacity of 0 disables eviction entirely.
func NewEngine(capacity int64, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Engine{capacity: capacity, logger: logger}
}

func (e *Engine) Capacity() int64 {
	return e.capacity
}

// EnsureSpace makes room for an insertion of required bytes given the
// table's current usage. Returns the bytes actually freed.
func (e *Engine) EnsureSpace(t Table, used, required int64) int64 {
	if e.capacity <= 0 {
		return 0
	}

	if used+required <= e.capacity {
		return 0
	}

	deficit := used + required - e.capacity
	return e.EvictLRU(t, deficit)
}

// EvictLRU removes entries oldest-first until target bytes are freed.
// Critical entries are skipped while less than criticalProtectRatio of the
// target has been met; any still-standing critical entries are reclaimed
// as a last resort. Falling short when no candidates remain is not an
// error, only logged.
func (e *Engine) EvictLRU(t Table, target int64) int64 {
	if target <= 0 {
		return 0
	}

	candidates := t.CandidatesOldestFirst()

	var freed int64
	var evicted int
	var protected []Candidate

	for _, c := range candidates {
		if freed >= target {
			break
		}

		if c.Critical && float64(freed) < criticalProtectRatio*float64(target) {
			protected = append(protected, c)
			continue
		}

		if size, ok := t.Remove(c.Key); ok {
			freed += size
			evicted++
			if e.Evictions != nil {
				e.Evictions.Inc()
			}
		}
	}

	// Last resort: the protected entries, still oldest-first.
	for _, c := range protected {
		if freed >= target {
			break
		}

		if size, ok := t.Remove(c.Key); ok {
			freed += size
			evicted++
			if e.Evictions != nil {
				e.Evictions.Inc()
			}
		}
	}

	if freed < target {
		level.Warn(e.logger).Log(
			"msg", "eviction fell short of target",
			"target_bytes", target,
			"freed_bytes", freed,
			"evicted", evicted,
		)
	} else if evicted > 0 {
		level.Debug(e.logger).Log(
			"msg", "evicted entries",
			"target_bytes", target,
			"freed_bytes", freed,
			"evicted", evicted,
		)
	}

	return freed
}
