// File: internal/engine/optimize.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log/level"

	"github.com/AutoCookies/pomai-guard/internal/engine/core"
	"github.com/AutoCookies/pomai-guard/internal/engine/memstats"
)

// staleAfter is how long an entry may sit unread before the optimization
// pipeline treats it as stale.
const staleAfter = 10 * time.Minute

// rarelyAccessedBelow marks entries read fewer than this many times as
// reclaimable when pressure persists after the cheaper steps.
const rarelyAccessedBelow = 2

// OptimizeReport describes one run of the reclamation pipeline.
type OptimizeReport struct {
	Before  memstats.Stats `json:"before"`
	After   memstats.Stats `json:"after"`
	Actions []string       `json:"actions"`
}

// OptimizeMemory runs the staged reclamation pipeline: expired entries,
// low-priority entries, stale entries, a best-effort forced collection,
// then rarely-accessed entries if usage still sits above the warning
// threshold. Every step tolerates finding nothing to reclaim; the
// pipeline as a whole never fails for that reason. Runs are serialized.
func (m *Manager) OptimizeMemory(ctx context.Context) (*OptimizeReport, error) {
	if m.disposed.Load() {
		return nil, ErrDisposed
	}

	m.optMu.Lock()
	defer m.optMu.Unlock()

	report := &OptimizeReport{Before: m.probe.Read()}

	if n := m.store.ClearExpired(); n > 0 {
		report.Actions = append(report.Actions, fmt.Sprintf("cleared %d expired entries", n))
	}

	low := core.PriorityLow
	if n := m.store.Clear(core.Criteria{Priority: &low}); n > 0 {
		report.Actions = append(report.Actions, fmt.Sprintf("cleared %d low-priority entries", n))
	}

	if n := m.store.Clear(core.Criteria{OlderThan: staleAfter}); n > 0 {
		report.Actions = append(report.Actions, fmt.Sprintf("cleared %d entries idle longer than %v", n, staleAfter))
	}

	if m.ForceCollection() {
		report.Actions = append(report.Actions, "forced garbage collection")
	}

	current := m.probe.Read()
	if current.PercentUsed >= m.cfg.Thresholds.Warning {
		if n := m.store.Clear(core.Criteria{AccessCountBelow: rarelyAccessedBelow}); n > 0 {
			report.Actions = append(report.Actions, fmt.Sprintf("cleared %d rarely accessed entries", n))
		}
	}

	report.After = m.probe.Read()

	if m.metrics != nil {
		m.metrics.OptimizeRuns.Inc()
	}

	level.Info(m.logger).Log(
		"msg", "optimization run complete",
		"actions", len(report.Actions),
		"before_used_bytes", report.Before.UsedBytes,
		"after_used_bytes", report.After.UsedBytes,
	)

	return report, nil
}
