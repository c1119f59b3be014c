// File: cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	httpAdapter "github.com/AutoCookies/pomai-guard/internal/adapter/http"
	"github.com/AutoCookies/pomai-guard/internal/engine"
	"github.com/AutoCookies/pomai-guard/internal/engine/pressure"
)

const (
	Version     = "1.0.0"
	ServiceName = "Pomai Guard"
)

type Config struct {
	HTTPPort int

	MaxCacheBytes    int64
	CompressMinBytes int

	WarningPct   float64
	CleanupPct   float64
	CriticalPct  float64
	EmergencyPct float64

	MonitorPeriod time.Duration
	CleanupPeriod time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	ShutdownTimeout  time.Duration

	EnableCORS bool
	LogLevel   string
}

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)

	level.Info(logger).Log(
		"msg", "starting",
		"service", ServiceName,
		"version", Version,
		"http_port", cfg.HTTPPort,
		"capacity_bytes", cfg.MaxCacheBytes,
	)

	engineCfg := engine.Config{
		MaxCacheBytes: cfg.MaxCacheBytes,
		Thresholds: pressure.Thresholds{
			Warning:   cfg.WarningPct,
			Cleanup:   cfg.CleanupPct,
			Critical:  cfg.CriticalPct,
			Emergency: cfg.EmergencyPct,
		},
		MonitorPeriod:    cfg.MonitorPeriod,
		CleanupPeriod:    cfg.CleanupPeriod,
		CompressMinBytes: cfg.CompressMinBytes,
	}

	manager, err := engine.NewManagerWithOptions(engineCfg, engine.Options{
		Logger:   logger,
		Registry: prometheus.DefaultRegisterer,
	})
	if err != nil {
		level.Error(logger).Log("msg", "configuration error", "err", err)
		os.Exit(1)
	}

	if err := manager.Initialize(context.Background()); err != nil {
		level.Error(logger).Log("msg", "initialization failed", "err", err)
		os.Exit(1)
	}

	httpConfig := httpAdapter.DefaultServerConfig()
	httpConfig.Port = cfg.HTTPPort
	httpConfig.ReadTimeout = cfg.HTTPReadTimeout
	httpConfig.WriteTimeout = cfg.HTTPWriteTimeout
	httpConfig.IdleTimeout = cfg.HTTPIdleTimeout
	httpConfig.EnableCORS = cfg.EnableCORS

	srv := httpAdapter.NewServerWithConfig(manager, httpConfig)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			level.Error(logger).Log("msg", "http server error", "err", err)
			os.Exit(1)
		}
	}()

	level.Info(logger).Log("msg", "http server started", "port", cfg.HTTPPort)

	gracefulShutdown(cfg, logger, srv, manager)
}

func gracefulShutdown(cfg Config, logger log.Logger, srv *httpAdapter.Server, manager *engine.Manager) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigCh
	level.Info(logger).Log("msg", "signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		level.Warn(logger).Log("msg", "http shutdown error", "err", err)
	}

	stats := manager.GetCacheStats()
	level.Info(logger).Log(
		"msg", "final stats",
		"entries", stats.TotalEntries,
		"bytes", stats.TotalSizeBytes,
		"hits", stats.Hits,
		"misses", stats.Misses,
		"evictions", stats.Evictions,
	)

	manager.Dispose()
	level.Info(logger).Log("msg", "shutdown complete")
}

func newLogger(lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	switch lvl {
	case "debug":
		return level.NewFilter(logger, level.AllowDebug())
	case "warn":
		return level.NewFilter(logger, level.AllowWarn())
	case "error":
		return level.NewFilter(logger, level.AllowError())
	default:
		return level.NewFilter(logger, level.AllowInfo())
	}
}

func loadConfig() Config {
	return Config{
		HTTPPort: getenvInt("PORT", 8080),

		MaxCacheBytes:    getenvInt64("MAX_CACHE_BYTES", engine.DefaultMaxCacheBytes),
		CompressMinBytes: getenvInt("COMPRESS_MIN_BYTES", 4096),

		WarningPct:   getenvFloat("PRESSURE_WARNING_PCT", 70),
		CleanupPct:   getenvFloat("PRESSURE_CLEANUP_PCT", 80),
		CriticalPct:  getenvFloat("PRESSURE_CRITICAL_PCT", 85),
		EmergencyPct: getenvFloat("PRESSURE_EMERGENCY_PCT", 95),

		MonitorPeriod: getenvDuration("MONITOR_PERIOD", engine.DefaultMonitorPeriod),
		CleanupPeriod: getenvDuration("CLEANUP_PERIOD", engine.DefaultCleanupPeriod),

		HTTPReadTimeout:  getenvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		HTTPWriteTimeout: getenvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		HTTPIdleTimeout:  getenvDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout:  getenvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		EnableCORS: getenvBool("ENABLE_CORS", false),
		LogLevel:   getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getenvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getenvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getenvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getenvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getenvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
