// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-io.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
//
// End of input is reported with io.EOF and is not part of this set.
var (
	ErrClosed            = fmt.Errorf("stream is closed")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrTimeout           = fmt.Errorf("timeout exceeded")
	ErrPoolInvariant     = fmt.Errorf("segment pool invariant violated")
	ErrUnbalancedTimeout = fmt.Errorf("unbalanced enter/exit")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeClosed
	ErrCodeTimeout
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Unwrap exposes the sentinel the error was built from.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
		Err:     sentinelFor(code),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func sentinelFor(code ErrorCode) error {
	switch code {
	case ErrCodeInvalidArgument:
		return ErrInvalidArgument
	case ErrCodeClosed:
		return ErrClosed
	case ErrCodeTimeout:
		return ErrTimeout
	default:
		return nil
	}
}

// InvalidArgument reports a rejected argument value.
func InvalidArgument(name string, value any) error {
	return NewError(ErrCodeInvalidArgument, fmt.Sprintf("invalid argument %s", name)).
		WithContext(name, value)
}

// TimeoutError is returned when a guarded operation overran its timeout.
// Cause holds the transport error observed after a forced close, if any.
type TimeoutError struct {
	Op    string
	Cause error
}

// NewTimeoutError classifies cause as a timeout. A watchdog-forced close
// surfaces as a generic transport error; callers wrap it here so it can be
// told apart from a broken transport.
func NewTimeoutError(op string, cause error) *TimeoutError {
	return &TimeoutError{Op: op, Cause: cause}
}

func (e *TimeoutError) Error() string {
	msg := "timeout"
	if e.Op != "" {
		msg = e.Op + ": timeout"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying transport error.
func (e *TimeoutError) Unwrap() error { return e.Cause }

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Timeout satisfies net.Error.
func (e *TimeoutError) Timeout() bool { return true }

// Temporary satisfies net.Error.
func (e *TimeoutError) Temporary() bool { return true }

// IsTimeout reports whether err is, or wraps, a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
