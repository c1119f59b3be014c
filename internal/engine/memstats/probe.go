// File: internal/engine/memstats/probe.go
package memstats

import (
	"runtime"

	"github.com/pbnjay/memory"
)

const (
	// fallbackOtherUsageBytes approximates non-cache process usage when no
	// heap source is available.
	fallbackOtherUsageBytes = 20 * 1024 * 1024

	// fallbackTotalBytes is a conservative budget assumed when the host
	// cannot report a real limit.
	fallbackTotalBytes = 100 * 1024 * 1024
)

// Stats is a point-in-time memory reading. Computed on demand, never stored.
type Stats struct {
	UsedBytes      int64   `json:"used_bytes"`
	TotalBytes     int64   `json:"total_bytes"`
	AvailableBytes int64   `json:"available_bytes"`
	PercentUsed    float64 `json:"percent_used"`
}

// HeapSource reports heap usage from the host runtime. Absence of a source
// is expected, not an error.
type HeapSource interface {
	ReadHeapStats() (usedBytes, limitBytes int64, ok bool)
}

// CacheSizer reports the cache's current footprint, used by the fallback
// estimate when no heap source is available.
type CacheSizer interface {
	TotalBytes() int64
}

// Probe retrieves memory usage from a HeapSource, falling back to an
// internal estimate derived from the cache footprint. Read never fails.
type Probe struct {
	source HeapSource
	cache  CacheSizer
}

// NewProbe creates a probe. source may be nil; cache may be nil, in which
// case the fallback assumes an empty cache.
func NewProbe(source HeapSource, cache CacheSizer) *Probe {
	return &Probe{source: source, cache: cache}
}

func (p *Probe) Read() Stats {
	if p.source != nil {
		if used, limit, ok := p.source.ReadHeapStats(); ok && limit > 0 {
			return derive(used, limit)
		}
	}

	var cacheBytes int64
	if p.cache != nil {
		cacheBytes = p.cache.TotalBytes()
	}

	return derive(cacheBytes+fallbackOtherUsageBytes, fallbackTotalBytes)
}

func derive(used, total int64) Stats {
	if used < 0 {
		used = 0
	}
	if used > total {
		used = total
	}

	s := Stats{
		UsedBytes:      used,
		TotalBytes:     total,
		AvailableBytes: total - used,
	}
	if total > 0 {
		s.PercentUsed = float64(used) / float64(total) * 100
	}
	return s
}

// RuntimeSource reads the Go heap and the machine's physical memory.
type RuntimeSource struct{}

func (RuntimeSource) ReadHeapStats() (int64, int64, bool) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	total := memory.TotalMemory()
	if total == 0 {
		return 0, 0, false
	}

	return int64(m.HeapAlloc), int64(total), true
}
