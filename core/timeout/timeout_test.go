package timeout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/core/timeout"
)

func TestTimeout_NoConstraintsNeverFails(t *testing.T) {
	tm := timeout.New()
	assert.False(t, tm.Active())
	assert.NoError(t, tm.Check())

	_, ok := tm.Remaining()
	assert.False(t, ok)
	_, ok = tm.Deadline()
	assert.False(t, ok)
}

func TestTimeout_MaxDurationExceeded(t *testing.T) {
	tm := timeout.New().SetMaxDuration(50 * time.Millisecond)
	require.NoError(t, tm.Check())
	assert.Equal(t, 50*time.Millisecond, tm.MaxDuration())

	time.Sleep(70 * time.Millisecond)
	err := tm.Check()
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrTimeout))
	assert.True(t, api.IsTimeout(err))
	assert.ErrorIs(t, err, timeout.ErrMaxDurationExceeded)
	assert.Equal(t, "timeout: max duration exceeded", err.Error())

	tm.Begin()
	assert.NoError(t, tm.Check(), "Begin re-arms the budget")

	tm.ClearMaxDuration()
	time.Sleep(60 * time.Millisecond)
	assert.NoError(t, tm.Check())
}

func TestTimeout_Deadline(t *testing.T) {
	tm := timeout.New().SetDeadline(time.Now().Add(-time.Millisecond))
	err := tm.Check()
	require.Error(t, err)
	assert.ErrorIs(t, err, timeout.ErrDeadlineReached)
	assert.True(t, api.IsTimeout(err))
	assert.Equal(t, "timeout: deadline reached", err.Error())

	tm.ClearDeadline()
	assert.NoError(t, tm.Check())

	tm.DeadlineAfter(time.Hour)
	at, ok := tm.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), at, time.Second)

	left, ok := tm.Remaining()
	require.True(t, ok)
	assert.Greater(t, left, 59*time.Minute)
}

func TestTimeout_EarliestConstraintWins(t *testing.T) {
	tm := timeout.New().
		SetMaxDuration(time.Hour).
		SetDeadline(time.Now().Add(10 * time.Millisecond))

	left, ok := tm.Remaining()
	require.True(t, ok)
	assert.LessOrEqual(t, left, 10*time.Millisecond)
}

func TestTimeout_FromContext(t *testing.T) {
	assert.False(t, timeout.FromContext(context.Background()).Active())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	tm := timeout.FromContext(ctx)
	want, _ := ctx.Deadline()
	got, ok := tm.Deadline()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTimeout_RejectsInvalidArguments(t *testing.T) {
	assert.Panics(t, func() { timeout.New().SetMaxDuration(-time.Second) })
	assert.Panics(t, func() { timeout.New().DeadlineAfter(0) })
	assert.Panics(t, func() { timeout.New().DeadlineAfter(-time.Second) })
}
