// File: core/timeout/timeout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timeout

import (
	"context"
	"errors"
	"time"

	"github.com/momentics/hioload-io/api"
)

// Causes reported by Check.
var (
	ErrDeadlineReached     = errors.New("deadline reached")
	ErrMaxDurationExceeded = errors.New("max duration exceeded")
)

// Timeout carries an optional per-call budget and an optional absolute
// deadline. The zero value has neither and never expires. A Timeout is owned
// by one stream and is not safe for concurrent mutation.
type Timeout struct {
	budget  time.Duration
	armedAt time.Time

	deadline    time.Time
	hasDeadline bool
}

// New returns a Timeout with no constraints.
func New() *Timeout { return &Timeout{} }

// FromContext returns a Timeout carrying ctx's deadline, if any.
func FromContext(ctx context.Context) *Timeout {
	t := New()
	if d, ok := ctx.Deadline(); ok {
		t.SetDeadline(d)
	}
	return t
}

// SetMaxDuration sets the per-call budget and arms it now. Zero clears it.
func (t *Timeout) SetMaxDuration(d time.Duration) *Timeout {
	if d < 0 {
		panic(api.InvalidArgument("max duration", d))
	}
	t.budget = d
	t.armedAt = time.Now()
	return t
}

// MaxDuration returns the per-call budget, zero when unset.
func (t *Timeout) MaxDuration() time.Duration { return t.budget }

// ClearMaxDuration removes the per-call budget.
func (t *Timeout) ClearMaxDuration() *Timeout {
	t.budget = 0
	t.armedAt = time.Time{}
	return t
}

// SetDeadline sets the absolute deadline.
func (t *Timeout) SetDeadline(at time.Time) *Timeout {
	t.deadline = at
	t.hasDeadline = true
	return t
}

// DeadlineAfter sets the deadline d from now.
func (t *Timeout) DeadlineAfter(d time.Duration) *Timeout {
	if d <= 0 {
		panic(api.InvalidArgument("deadline offset", d))
	}
	return t.SetDeadline(time.Now().Add(d))
}

// Deadline returns the absolute deadline and whether one is set.
func (t *Timeout) Deadline() (time.Time, bool) { return t.deadline, t.hasDeadline }

// ClearDeadline removes the absolute deadline.
func (t *Timeout) ClearDeadline() *Timeout {
	t.deadline = time.Time{}
	t.hasDeadline = false
	return t
}

// Begin re-arms the per-call budget at the start of an operation.
func (t *Timeout) Begin() {
	if t.budget > 0 {
		t.armedAt = time.Now()
	}
}

// Active reports whether any constraint is set.
func (t *Timeout) Active() bool { return t.budget > 0 || t.hasDeadline }

// expiry returns the earliest instant at which a constraint fails.
func (t *Timeout) expiry() (time.Time, bool) {
	var at time.Time
	ok := false
	if t.budget > 0 {
		at = t.armedAt.Add(t.budget)
		ok = true
	}
	if t.hasDeadline && (!ok || t.deadline.Before(at)) {
		at = t.deadline
		ok = true
	}
	return at, ok
}

// Remaining returns the time left before the earliest constraint fails.
func (t *Timeout) Remaining() (time.Duration, bool) {
	at, ok := t.expiry()
	if !ok {
		return 0, false
	}
	return time.Until(at), true
}

// Check returns an api.TimeoutError once the budget or the deadline has
// passed; its cause is ErrDeadlineReached or ErrMaxDurationExceeded. A
// Timeout without constraints never fails.
func (t *Timeout) Check() error {
	at, ok := t.expiry()
	if !ok {
		return nil
	}
	if time.Now().After(at) {
		if t.hasDeadline && !t.deadline.After(at) {
			return api.NewTimeoutError("", ErrDeadlineReached)
		}
		return api.NewTimeoutError("", ErrMaxDurationExceeded)
	}
	return nil
}
