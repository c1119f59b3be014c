// File: internal/engine/pressure/classify.go
package pressure

import (
	"fmt"

	"github.com/AutoCookies/pomai-guard/internal/engine/memstats"
)

// Level is a coarse pressure severity.
type Level int

const (
	LevelLow Level = iota
	LevelModerate
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelModerate:
		return "moderate"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Thresholds are usage percentages, immutable after construction.
type Thresholds struct {
	Warning   float64 `json:"warning"`
	Cleanup   float64 `json:"cleanup"`
	Critical  float64 `json:"critical"`
	Emergency float64 `json:"emergency"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Warning: 70, Cleanup: 80, Critical: 85, Emergency: 95}
}

func (t Thresholds) Validate() error {
	if t.Warning <= 0 || t.Emergency > 100 {
		return fmt.Errorf("thresholds must lie in (0, 100], got %+v", t)
	}
	if !(t.Warning < t.Cleanup && t.Cleanup < t.Critical && t.Critical < t.Emergency) {
		return fmt.Errorf("thresholds must be strictly increasing, got %+v", t)
	}
	return nil
}

// Event is raised when usage crosses a threshold.
type Event struct {
	Level            Level    `json:"level"`
	UsagePercent     float64  `json:"usage_percent"`
	ThresholdCrossed string   `json:"threshold_crossed"`
	Recommendations  []string `json:"recommendations"`
}

// CacheUsage feeds the cache-specific recommendation rule.
type CacheUsage struct {
	TotalBytes    int64
	CapacityBytes int64
}

// Classify maps a memory reading to a pressure event. The second return
// is false when usage sits below the warning threshold.
func Classify(stats memstats.Stats, th Thresholds, cache CacheUsage) (Event, bool) {
	pct := stats.PercentUsed

	var ev Event
	switch {
	case pct >= th.Emergency:
		ev = Event{Level: LevelCritical, ThresholdCrossed: "emergency"}
	case pct >= th.Critical:
		ev = Event{Level: LevelCritical, ThresholdCrossed: "critical"}
	case pct >= th.Warning:
		ev = Event{Level: LevelModerate, ThresholdCrossed: "warning"}
	default:
		return Event{}, false
	}

	ev.UsagePercent = pct
	ev.Recommendations = recommend(pct, th, cache)
	return ev, true
}

func recommend(pct float64, th Thresholds, cache CacheUsage) []string {
	var recs []string

	if pct > th.Critical {
		recs = append(recs,
			"clear all non-critical cached data",
			"reduce concurrent operations",
			"force garbage collection",
		)
	}

	if pct > th.Warning {
		recs = append(recs,
			"clear expired cache entries",
			"reduce cache retention time",
			"process data in smaller chunks",
		)
	}

	if cache.CapacityBytes > 0 && float64(cache.TotalBytes) > 0.8*float64(cache.CapacityBytes) {
		recs = append(recs, "clear low-priority cached data")
	}

	return recs
}
