// File: core/timeout/watchdog.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Deadline-ordered AsyncTimeout queue serviced by one lazily started goroutine.

package timeout

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/control"
)

// Watchdog owns the queue of entered AsyncTimeout nodes. Nodes are kept in
// deadline order; nodes with equal deadlines keep registration order. The
// goroutine servicing the queue starts on the first Enter and exits once the
// queue has stayed empty for the idle timeout.
type Watchdog struct {
	mu          sync.Mutex
	head        *AsyncTimeout
	length      int
	seq         uint64
	running     bool
	stop        chan struct{}
	done        chan struct{}
	lastActive  time.Time
	idleTimeout time.Duration
	wake        chan struct{}

	metrics atomic.Pointer[control.Metrics]
	logger  atomic.Pointer[zap.Logger]
}

// WatchdogOption configures a Watchdog.
type WatchdogOption func(*Watchdog)

// WithIdleTimeout sets how long an idle watchdog goroutine lingers.
func WithIdleTimeout(d time.Duration) WatchdogOption {
	return func(w *Watchdog) { w.idleTimeout = d }
}

// WithWatchdogLogger sets the watchdog logger.
func WithWatchdogLogger(l *zap.Logger) WatchdogOption {
	return func(w *Watchdog) { w.logger.Store(l) }
}

// WithWatchdogMetrics reports watchdog activity to m.
func WithWatchdogMetrics(m *control.Metrics) WatchdogOption {
	return func(w *Watchdog) { w.metrics.Store(m) }
}

// NewWatchdog creates a stopped watchdog.
func NewWatchdog(opts ...WatchdogOption) *Watchdog {
	w := &Watchdog{
		idleTimeout: control.DefaultWatchdogIdleTimeout,
		wake:        make(chan struct{}, 1),
	}
	w.logger.Store(control.Logger())
	for _, opt := range opts {
		opt(w)
	}
	if w.idleTimeout <= 0 {
		panic(api.InvalidArgument("idle timeout", w.idleTimeout))
	}
	w.SetLogger(w.logger.Load())
	return w
}

// SetLogger replaces the watchdog logger.
func (w *Watchdog) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	w.logger.Store(l.With(zap.String("component", "watchdog")))
}

var (
	defaultWatchdogOnce sync.Once
	defaultWatchdog     *Watchdog
)

// DefaultWatchdog returns the process-wide watchdog used by AsyncTimeout
// nodes that do not name one.
func DefaultWatchdog() *Watchdog {
	defaultWatchdogOnce.Do(func() {
		defaultWatchdog = NewWatchdog(WithWatchdogMetrics(control.DefaultMetrics()))
		control.DefaultProbes().RegisterProbe("watchdog", func() any {
			return map[string]any{
				"running": defaultWatchdog.Running(),
				"queued":  defaultWatchdog.Len(),
			}
		})
	})
	return defaultWatchdog
}

// SetIdleTimeout changes the idle linger period of subsequent idle waits.
func (w *Watchdog) SetIdleTimeout(d time.Duration) {
	if d <= 0 {
		panic(api.InvalidArgument("idle timeout", d))
	}
	w.mu.Lock()
	w.idleTimeout = d
	w.mu.Unlock()
	w.signal()
}

// Instrument attaches metrics to an existing watchdog.
func (w *Watchdog) Instrument(m *control.Metrics) {
	w.metrics.Store(m)
}

// Running reports whether the watchdog goroutine is alive.
func (w *Watchdog) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Len returns the number of queued nodes.
func (w *Watchdog) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.length
}

// Shutdown stops the watchdog goroutine and waits for it. Queued nodes stay
// queued and are serviced again after the next Enter restarts the goroutine.
func (w *Watchdog) Shutdown() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stop, done := w.stop, w.done
	w.running = false
	w.stop, w.done = nil, nil
	close(stop)
	w.metrics.Load().SetWatchdogRunning(false)
	w.mu.Unlock()

	<-done
	return nil
}

var _ api.GracefulShutdown = (*Watchdog)(nil)

// schedule inserts a into the queue at its deadline.
func (w *Watchdog) schedule(a *AsyncTimeout, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if a.state == stateQueued {
		panic(api.NewError(api.ErrCodeInternal, "node queued twice"))
	}
	w.seq++
	a.at = at
	a.seq = w.seq
	a.state = stateQueued
	a.wd = w

	if w.head == nil || at.Before(w.head.at) {
		a.prev = nil
		a.next = w.head
		if w.head != nil {
			w.head.prev = a
		}
		w.head = a
		w.signal()
	} else {
		n := w.head
		for n.next != nil && !at.Before(n.next.at) {
			n = n.next
		}
		a.prev = n
		a.next = n.next
		if n.next != nil {
			n.next.prev = a
		}
		n.next = a
	}
	w.length++
	w.lastActive = time.Now()
	w.metrics.Load().SetWatchdogQueue(w.length)

	if !w.running {
		w.start()
	}
}

// cancel removes a from the queue. It returns true when the watchdog already
// expired a, in which case the hook has fired or is firing.
func (w *Watchdog) cancel(a *AsyncTimeout) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch a.state {
	case stateQueued:
		w.unlinkLocked(a)
		a.state = stateIdle
		w.lastActive = time.Now()
		w.metrics.Load().SetWatchdogQueue(w.length)
		return false
	case stateTimedOut:
		a.state = stateIdle
		return true
	default:
		return false
	}
}

func (w *Watchdog) unlinkLocked(a *AsyncTimeout) {
	if a.prev != nil {
		a.prev.next = a.next
	} else {
		w.head = a.next
	}
	if a.next != nil {
		a.next.prev = a.prev
	}
	a.prev, a.next = nil, nil
	w.length--
}

func (w *Watchdog) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// start launches the goroutine; w.mu must be held.
func (w *Watchdog) start() {
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.metrics.Load().SetWatchdogRunning(true)
	w.logger.Load().Debug("watchdog started")
	go w.run(w.stop, w.done)
}

func (w *Watchdog) run(stop, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		w.mu.Lock()
		select {
		case <-stop:
			w.mu.Unlock()
			return
		default:
		}

		var wait time.Duration
		if w.head == nil {
			wait = w.idleTimeout - time.Since(w.lastActive)
			if wait <= 0 {
				if w.stop == stop {
					w.running = false
					w.stop, w.done = nil, nil
					w.metrics.Load().SetWatchdogRunning(false)
				}
				w.mu.Unlock()
				w.logger.Load().Debug("watchdog idle, exiting")
				return
			}
		} else {
			wait = time.Until(w.head.at)
			if wait <= 0 {
				expired := w.popExpiredLocked(time.Now())
				w.mu.Unlock()
				for _, e := range expired {
					w.fire(e)
				}
				continue
			}
		}
		w.mu.Unlock()

		timer.Reset(wait)
		select {
		case <-w.wake:
		case <-timer.C:
		case <-stop:
			return
		}
		timer.Stop()
	}
}

// expiredNode captures what the hook needs while w.mu is held.
type expiredNode struct {
	name     string
	deadline time.Time
	hook     func()
}

// popExpiredLocked detaches every node whose deadline is not after now.
func (w *Watchdog) popExpiredLocked(now time.Time) []expiredNode {
	var expired []expiredNode
	for w.head != nil && !w.head.at.After(now) {
		a := w.head
		w.unlinkLocked(a)
		a.state = stateTimedOut
		expired = append(expired, expiredNode{name: a.Name, deadline: a.at, hook: a.OnTimeout})
	}
	w.lastActive = now
	w.metrics.Load().SetWatchdogQueue(w.length)
	return expired
}

func (w *Watchdog) fire(e expiredNode) {
	w.metrics.Load().RecordWatchdogTimeout()
	w.logger.Load().Debug("deadline passed, firing timeout hook",
		zap.String("name", e.name),
		zap.Time("deadline", e.deadline))

	if e.hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Load().Error("timeout hook panicked", zap.String("name", e.name), zap.Any("panic", r))
		}
	}()
	e.hook()
}
