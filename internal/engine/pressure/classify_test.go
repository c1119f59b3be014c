// File: internal/engine/pressure/classify_test.go
package pressure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AutoCookies/pomai-guard/internal/engine/memstats"
)

func statsAt(pct float64) memstats.Stats {
	return memstats.Stats{
		UsedBytes:      int64(pct * 10),
		TotalBytes:     1000,
		AvailableBytes: 1000 - int64(pct*10),
		PercentUsed:    pct,
	}
}

func TestClassifyLevels(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		pct           float64
		wantEvent     bool
		wantLevel     Level
		wantThreshold string
	}{
		{pct: 50, wantEvent: false},
		{pct: 69.9, wantEvent: false},
		{pct: 72, wantEvent: true, wantLevel: LevelModerate, wantThreshold: "warning"},
		{pct: 94, wantEvent: true, wantLevel: LevelCritical, wantThreshold: "critical"},
		{pct: 96, wantEvent: true, wantLevel: LevelCritical, wantThreshold: "emergency"},
		{pct: 95, wantEvent: true, wantLevel: LevelCritical, wantThreshold: "emergency"},
		{pct: 85, wantEvent: true, wantLevel: LevelCritical, wantThreshold: "critical"},
		{pct: 70, wantEvent: true, wantLevel: LevelModerate, wantThreshold: "warning"},
	}

	for _, tt := range tests {
		ev, ok := Classify(statsAt(tt.pct), th, CacheUsage{})
		require.Equal(t, tt.wantEvent, ok, "pct=%v", tt.pct)
		if !tt.wantEvent {
			continue
		}
		assert.Equal(t, tt.wantLevel, ev.Level, "pct=%v", tt.pct)
		assert.Equal(t, tt.wantThreshold, ev.ThresholdCrossed, "pct=%v", tt.pct)
		assert.Equal(t, tt.pct, ev.UsagePercent)
	}
}

func TestClassifyRecommendationsOrdered(t *testing.T) {
	th := DefaultThresholds()

	ev, ok := Classify(statsAt(90), th, CacheUsage{TotalBytes: 90, CapacityBytes: 100})
	require.True(t, ok)

	assert.Equal(t, []string{
		"clear all non-critical cached data",
		"reduce concurrent operations",
		"force garbage collection",
		"clear expired cache entries",
		"reduce cache retention time",
		"process data in smaller chunks",
		"clear low-priority cached data",
	}, ev.Recommendations)
}

func TestClassifyWarningRecommendationsOnly(t *testing.T) {
	th := DefaultThresholds()

	ev, ok := Classify(statsAt(75), th, CacheUsage{TotalBytes: 10, CapacityBytes: 100})
	require.True(t, ok)

	assert.Equal(t, []string{
		"clear expired cache entries",
		"reduce cache retention time",
		"process data in smaller chunks",
	}, ev.Recommendations)
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())

	bad := Thresholds{Warning: 80, Cleanup: 70, Critical: 85, Emergency: 95}
	assert.Error(t, bad.Validate())

	assert.Error(t, Thresholds{}.Validate())

	over := Thresholds{Warning: 70, Cleanup: 80, Critical: 90, Emergency: 120}
	assert.Error(t, over.Validate())
}
