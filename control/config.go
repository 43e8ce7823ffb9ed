// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration for the streaming core and a thread-safe store with
// hot-reload propagation.

package control

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Config holds tunables for the segment pool, the watchdog, transports,
// logging and metrics.
type Config struct {
	Pool      PoolConfig      `yaml:"pool" env:"POOL"`
	Watchdog  WatchdogConfig  `yaml:"watchdog" env:"WATCHDOG"`
	Transport TransportConfig `yaml:"transport" env:"TRANSPORT"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Metrics   MetricsConfig   `yaml:"metrics" env:"METRICS"`
}

// PoolConfig bounds the segment free list.
type PoolConfig struct {
	// MaxBytes caps the bytes held by pooled segments.
	MaxBytes int64 `yaml:"max_bytes" env:"MAX_BYTES"`
}

// WatchdogConfig tunes the AsyncTimeout watchdog goroutine.
type WatchdogConfig struct {
	// IdleTimeout is how long the watchdog lingers on an empty queue before exiting.
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
}

// TransportConfig holds defaults for the adapters built by the facade package.
type TransportConfig struct {
	// Timeout guards each blocking read/write; zero disables the watchdog.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // json or console
}

// MetricsConfig controls Prometheus collectors.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// Defaults used when no configuration is supplied.
const (
	DefaultPoolMaxBytes        = 64 * 1024
	DefaultWatchdogIdleTimeout = 60 * time.Second
)

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		Pool:      PoolConfig{MaxBytes: DefaultPoolMaxBytes},
		Watchdog:  WatchdogConfig{IdleTimeout: DefaultWatchdogIdleTimeout},
		Transport: TransportConfig{Timeout: 0},
		Log:       LogConfig{Level: "info", Format: "json"},
		Metrics:   MetricsConfig{Enabled: false, Namespace: "hioload_io"},
	}
}

// Validate rejects values the core cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Pool.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("pool.max_bytes must not be negative: %d", c.Pool.MaxBytes))
	}
	if c.Watchdog.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("watchdog.idle_timeout must be positive: %s", c.Watchdog.IdleTimeout))
	}
	if c.Transport.Timeout < 0 {
		errs = append(errs, fmt.Errorf("transport.timeout must not be negative: %s", c.Transport.Timeout))
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console: %q", c.Log.Format))
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		errs = append(errs, errors.New("metrics.namespace is required when metrics are enabled"))
	}
	return errors.Join(errs...)
}

// ConfigStore keeps the active Config and notifies listeners on change.
type ConfigStore struct {
	mu        sync.RWMutex
	config    Config
	listeners []func(Config)
}

// NewConfigStore initializes a store holding cfg (defaults when nil).
func NewConfigStore(cfg *Config) *ConfigStore {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &ConfigStore{config: *cfg}
}

// Snapshot returns a copy of the active config.
func (cs *ConfigStore) Snapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// Update validates and swaps in cfg, then dispatches reload listeners.
func (cs *ConfigStore) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.config = cfg
	listeners := append([]func(Config){}, cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func(Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
