// Package timeouts provides centralized timeout values for handler and CLI
// operations against the document store.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks (store ping)
//   - Short: single-record reads (get application, fetch session user)
//   - Medium: list queries with reference resolution, single transitions
//   - Long: operations touching several collections (create with guards)
//   - Batch: catalog seeding and other bulk loads
package timeouts

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 2 * time.Minute
)

// Config holds timeout values. Zero fields mean "keep the current value".
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Ping:   DefaultPing,
		Short:  DefaultShort,
		Medium: DefaultMedium,
		Long:   DefaultLong,
		Batch:  DefaultBatch,
	}
}

var current atomic.Pointer[Config]

func init() { Reset() }

func load() Config { return *current.Load() }

// Ping returns the timeout for health checks.
func Ping() time.Duration { return load().Ping }

// Short returns the timeout for single-record reads.
func Short() time.Duration { return load().Short }

// Medium returns the timeout for list queries and single transitions.
func Medium() time.Duration { return load().Medium }

// Long returns the timeout for multi-collection operations.
func Long() time.Duration { return load().Long }

// Batch returns the timeout for bulk loads such as catalog seeding.
func Batch() time.Duration { return load().Batch }

// Current returns the configuration in effect.
func Current() Config { return load() }

// merge overlays the positive fields of over onto base.
func merge(base, over Config) Config {
	pick := func(a, b time.Duration) time.Duration {
		if b > 0 {
			return b
		}
		return a
	}
	return Config{
		Ping:   pick(base.Ping, over.Ping),
		Short:  pick(base.Short, over.Short),
		Medium: pick(base.Medium, over.Medium),
		Long:   pick(base.Long, over.Long),
		Batch:  pick(base.Batch, over.Batch),
	}
}

// Configure overrides the positive fields of cfg. Call it during startup.
func Configure(cfg Config) {
	next := merge(load(), cfg)
	current.Store(&next)
}

// Reset restores the defaults. Tests use it.
func Reset() {
	d := Defaults()
	current.Store(&d)
}

// envVars maps TIMEOUT_* variables onto Config fields.
var envVars = []struct {
	name string
	set  func(*Config, time.Duration)
}{
	{"TIMEOUT_PING", func(c *Config, d time.Duration) { c.Ping = d }},
	{"TIMEOUT_SHORT", func(c *Config, d time.Duration) { c.Short = d }},
	{"TIMEOUT_MEDIUM", func(c *Config, d time.Duration) { c.Medium = d }},
	{"TIMEOUT_LONG", func(c *Config, d time.Duration) { c.Long = d }},
	{"TIMEOUT_BATCH", func(c *Config, d time.Duration) { c.Batch = d }},
}

// ConfigureFromEnv applies TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG and TIMEOUT_BATCH (Go durations such as "500ms" or "2m").
// Unset, unparsable and non-positive values are ignored. It returns how many
// values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for _, v := range envVars {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			v.set(&cfg, d)
			n++
		}
	}
	Configure(cfg)
	return n
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was the reason the operation ended.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), log, "seed catalog")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
