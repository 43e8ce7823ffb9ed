// File: facade/hioload.go
// Unified facade layer for hioload-io.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file is the entry point other kits use: it turns a transport into a
// Sink or Source, wraps those in buffered adapters, and applies runtime
// configuration (pool cap, watchdog idle period, logger, metrics) to the
// process-wide segment pool and watchdog.

package facade

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/core/rope"
	"github.com/momentics/hioload-io/core/timeout"
	"github.com/momentics/hioload-io/pool"
	"github.com/momentics/hioload-io/transport"
)

// transportTimeout is the per-call timeout set by Configure.
var transportTimeout atomic.Int64

// withDefaults puts the configured timeout ahead of opts so callers can
// still override it.
func withDefaults(opts []transport.Option) []transport.Option {
	d := time.Duration(transportTimeout.Load())
	if d <= 0 {
		return opts
	}
	return append([]transport.Option{transport.WithTimeout(d)}, opts...)
}

// Sink returns a sink writing to t.
func Sink(t api.Transport, opts ...transport.Option) rope.Sink {
	return transport.NewSink(t, withDefaults(opts)...)
}

// Source returns a source reading from t.
func Source(t api.Transport, opts ...transport.Option) rope.Source {
	return transport.NewSource(t, withDefaults(opts)...)
}

// BufferSink wraps sink with a staging buffer.
func BufferSink(sink rope.Sink) *rope.BufferedSink {
	return rope.NewBufferedSink(sink)
}

// BufferSource wraps source with a read-ahead buffer.
func BufferSource(source rope.Source) *rope.BufferedSource {
	return rope.NewBufferedSource(source)
}

// NewBuffer returns an empty buffer on the default segment pool.
func NewBuffer() *rope.Buffer {
	return rope.NewBuffer()
}

// FileSink creates or truncates path.
func FileSink(path string, opts ...transport.Option) (rope.Sink, error) {
	return transport.FileSink(path, withDefaults(opts)...)
}

// AppendingFileSink appends to path.
func AppendingFileSink(path string, opts ...transport.Option) (rope.Sink, error) {
	return transport.AppendingFileSink(path, withDefaults(opts)...)
}

// FileSource reads path.
func FileSource(path string, opts ...transport.Option) (rope.Source, error) {
	return transport.FileSource(path, withDefaults(opts)...)
}

// Configure applies cfg to the process-wide logger, metrics, segment pool
// and watchdog, and sets the default timeout of the adapters built here.
// reg may be nil when metrics are disabled.
func Configure(cfg *control.Config, reg prometheus.Registerer) error {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := control.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	SetLogger(logger)

	var metrics *control.Metrics
	if cfg.Metrics.Enabled {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		metrics = control.EnableMetrics(cfg.Metrics.Namespace, reg)
	}

	p := pool.DefaultSegmentPool()
	p.SetMaxBytes(cfg.Pool.MaxBytes)
	p.Instrument(metrics)

	w := timeout.DefaultWatchdog()
	w.SetIdleTimeout(cfg.Watchdog.IdleTimeout)
	w.Instrument(metrics)

	transportTimeout.Store(int64(cfg.Transport.Timeout))

	logger.Info("hioload-io configured",
		zap.Int64("pool_max_bytes", cfg.Pool.MaxBytes),
		zap.Duration("watchdog_idle_timeout", cfg.Watchdog.IdleTimeout),
		zap.Duration("transport_timeout", cfg.Transport.Timeout),
		zap.Bool("metrics", cfg.Metrics.Enabled))
	return nil
}

// SetLogger installs l as the process-wide logger and hands it to the
// default segment pool and watchdog. A nil logger restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	control.SetLogger(l)
	pool.DefaultSegmentPool().SetLogger(l)
	timeout.DefaultWatchdog().SetLogger(l)
}

// Watch keeps the process-wide components in step with store.
func Watch(store *control.ConfigStore, reg prometheus.Registerer) {
	store.OnReload(func(cfg control.Config) {
		if err := Configure(&cfg, reg); err != nil {
			control.Logger().Error("reconfigure failed", zap.Error(err))
		}
	})
}

// Shutdown stops the process-wide watchdog goroutine.
func Shutdown() error {
	return timeout.DefaultWatchdog().Shutdown()
}
