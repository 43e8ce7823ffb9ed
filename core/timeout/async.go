// File: core/timeout/async.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timeout

import (
	"time"

	"github.com/momentics/hioload-io/api"
)

type nodeState uint8

const (
	stateIdle nodeState = iota
	stateQueued
	stateTimedOut
)

// AsyncTimeout is a Timeout that a watchdog enforces from another goroutine.
// Wrap a blocking call with Enter and Exit (or Guard); if the call outlives
// the deadline or budget, OnTimeout runs on the watchdog goroutine. The
// usual hook closes the transport so the blocked call returns with an error,
// which Exited then reports as a timeout.
//
// One AsyncTimeout guards one call at a time.
type AsyncTimeout struct {
	Timeout

	// Name labels the node in logs and timeout errors.
	Name string
	// OnTimeout runs at most once per Enter, on the watchdog goroutine.
	OnTimeout func()
	// Watchdog services the node; nil selects DefaultWatchdog.
	Watchdog *Watchdog

	entered bool

	// guarded by wd.mu
	state      nodeState
	at         time.Time
	seq        uint64
	prev, next *AsyncTimeout
	wd         *Watchdog
}

// NewAsync returns an AsyncTimeout calling onTimeout when it expires.
func NewAsync(name string, onTimeout func()) *AsyncTimeout {
	return &AsyncTimeout{Name: name, OnTimeout: onTimeout}
}

func (a *AsyncTimeout) watchdog() *Watchdog {
	if a.Watchdog != nil {
		return a.Watchdog
	}
	return DefaultWatchdog()
}

// Enter arms the budget and registers the node with the watchdog. Without
// a budget or deadline nothing is registered.
func (a *AsyncTimeout) Enter() {
	if a.entered {
		panic(api.ErrUnbalancedTimeout)
	}
	a.entered = true
	a.Begin()
	at, ok := a.expiry()
	if !ok {
		return
	}
	a.watchdog().schedule(a, at)
}

// Exit unregisters the node and reports whether it timed out. It is safe
// to race with the watchdog: the hook fires at most once, and never when
// Exit wins.
func (a *AsyncTimeout) Exit() bool {
	if !a.entered {
		panic(api.ErrUnbalancedTimeout)
	}
	a.entered = false
	if a.wd == nil {
		return false
	}
	return a.wd.cancel(a)
}

// Exited exits and classifies err: a call that timed out reports an
// api.TimeoutError wrapping err, otherwise err is returned unchanged.
func (a *AsyncTimeout) Exited(err error) error {
	if !a.Exit() {
		return err
	}
	a.watchdog().metrics.Load().RecordTimeoutExceeded(a.opName())
	return api.NewTimeoutError(a.opName(), err)
}

// Guard runs fn between Enter and Exit.
func (a *AsyncTimeout) Guard(fn func() error) error {
	a.Enter()
	exited := false
	defer func() {
		if !exited {
			a.Exit()
		}
	}()
	err := fn()
	exited = true
	return a.Exited(err)
}

func (a *AsyncTimeout) opName() string {
	if a.Name == "" {
		return "io"
	}
	return a.Name
}
