// File: internal/engine/config.go
package engine

import (
	"fmt"
	"time"

	"github.com/AutoCookies/pomai-guard/internal/engine/pressure"
)

const (
	DefaultMaxCacheBytes = 50 * 1024 * 1024
	DefaultMonitorPeriod = 5 * time.Second
	DefaultCleanupPeriod = 30 * time.Second
)

// Config is the construction-time surface of the manager. Immutable after
// NewManager.
type Config struct {
	// MaxCacheBytes bounds the cache table. 0 disables eviction.
	MaxCacheBytes int64

	// Thresholds classify memory pressure severity.
	Thresholds pressure.Thresholds

	// MonitorPeriod is the pressure-sampling tick.
	MonitorPeriod time.Duration

	// CleanupPeriod is the routine expired-entry reclamation tick.
	CleanupPeriod time.Duration

	// CompressMinBytes is the smallest byte payload considered for
	// compression. 0 disables compression.
	CompressMinBytes int
}

func DefaultConfig() Config {
	return Config{
		MaxCacheBytes:    DefaultMaxCacheBytes,
		Thresholds:       pressure.DefaultThresholds(),
		MonitorPeriod:    DefaultMonitorPeriod,
		CleanupPeriod:    DefaultCleanupPeriod,
		CompressMinBytes: 4096,
	}
}

func (c Config) Validate() error {
	if c.MaxCacheBytes < 0 {
		return fmt.Errorf("max cache bytes cannot be negative, got %d", c.MaxCacheBytes)
	}
	if c.MonitorPeriod <= 0 {
		return fmt.Errorf("monitor period must be positive, got %v", c.MonitorPeriod)
	}
	if c.CleanupPeriod <= 0 {
		return fmt.Errorf("cleanup period must be positive, got %v", c.CleanupPeriod)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}
	return nil
}
