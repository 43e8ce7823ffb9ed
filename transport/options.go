// File: transport/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-io/control"
	"github.com/momentics/hioload-io/core/rope"
	"github.com/momentics/hioload-io/core/timeout"
)

// Options configure adapters.
type Options struct {
	// Timeout bounds each blocking call; zero disables forced cancellation.
	Timeout time.Duration
	// Deadline bounds the whole stream; zero time disables it.
	Deadline time.Time
	// Watchdog services the guard; nil selects timeout.DefaultWatchdog.
	Watchdog *timeout.Watchdog
	// Name labels the stream in logs and timeout errors.
	Name string
	Logger *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithTimeout bounds every blocking call by d.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithDeadline bounds the stream by an absolute deadline.
func WithDeadline(at time.Time) Option {
	return func(o *Options) { o.Deadline = at }
}

// WithWatchdog selects the watchdog enforcing the timeout.
func WithWatchdog(w *timeout.Watchdog) Option {
	return func(o *Options) { o.Watchdog = w }
}

// WithName labels the stream.
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func buildOptions(opts []Option) Options {
	o := Options{Logger: control.Logger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o Options) guarded() bool {
	return o.Timeout > 0 || !o.Deadline.IsZero()
}

// asyncTimeout builds the guard whose hook closes c.
func (o Options) asyncTimeout(c io.Closer) *timeout.AsyncTimeout {
	logger := o.Logger.With(zap.String("component", "transport"), zap.String("name", o.Name))
	at := timeout.NewAsync(o.Name, func() {
		logger.Debug("timeout reached, closing transport")
		if c != nil {
			if err := c.Close(); err != nil {
				logger.Debug("close after timeout failed", zap.Error(err))
			}
		}
	})
	at.Watchdog = o.Watchdog
	if o.Timeout > 0 {
		at.SetMaxDuration(o.Timeout)
	}
	if !o.Deadline.IsZero() {
		at.SetDeadline(o.Deadline)
	}
	return at
}

// guard returns the AsyncTimeout for the stream, or nil when no timeout is
// configured, and the Timeout the adapter polls between chunks.
func (o Options) guard(c io.Closer) (*timeout.AsyncTimeout, *timeout.Timeout) {
	if !o.guarded() {
		return nil, timeout.New()
	}
	at := o.asyncTimeout(c)
	return at, &at.Timeout
}

func wrapSink(at *timeout.AsyncTimeout, s rope.Sink) rope.Sink {
	if at == nil {
		return s
	}
	return rope.GuardSink(at, s)
}

func wrapSource(at *timeout.AsyncTimeout, s rope.Source) rope.Source {
	if at == nil {
		return s
	}
	return rope.GuardSource(at, s)
}
