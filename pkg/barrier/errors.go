package barrier

import (
	"errors"
	"fmt"
	"time"
)

// Source tags every error and occurrence produced by this package.
const Source = "eventbarrier"

// Sentinel errors matched with errors.Is.
var (
	// ErrTimeout matches any *TimeoutError.
	ErrTimeout = errors.New("timed out")

	// ErrAborted matches any *AbortionError, including cancellations.
	ErrAborted = errors.New("aborted")

	// ErrCancelled matches any *CancellationError.
	ErrCancelled = errors.New("aborted by signal")
)

// Usage errors.
var (
	// ErrConcurrentNext indicates Next was called while another Next on the
	// same stream was still pending.
	ErrConcurrentNext = errors.New("concurrent calls to Next")

	// ErrStreamTerminated indicates Next was called after the stream's
	// terminal error had already been returned.
	ErrStreamTerminated = errors.New("stream terminated")

	// ErrStreamClosed indicates the consumer closed the stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrClosed indicates the barrier has been closed.
	ErrClosed = errors.New("barrier closed")

	// ErrNoBus indicates On was called on a barrier without an observer bus.
	ErrNoBus = errors.New("barrier has no observer bus")

	// ErrNotReady is returned by Future.Result before the future completes.
	ErrNotReady = errors.New("result not ready")
)

// TimeoutError is surfaced when a waiter's timer fires first.
type TimeoutError struct {
	Event   string        // Event that was being waited on
	Timeout time.Duration // Configured timeout
	Source  string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: event %q: timed out after %s", e.Source, e.Event, e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// AbortionError is surfaced when waiters are aborted without an explicit
// error, or when the barrier is closed.
type AbortionError struct {
	Event   string // Event whose waiters were aborted
	Message string // Defaults to "aborted"
	Source  string
	Cause   error // Optional underlying cause
}

// Error implements the error interface.
func (e *AbortionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = ErrAborted.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: event %q: %s: %v", e.Source, e.Event, msg, e.Cause)
	}
	return fmt.Sprintf("%s: event %q: %s", e.Source, e.Event, msg)
}

// Unwrap returns the cause for errors.Is/As support.
func (e *AbortionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrAborted.
func (e *AbortionError) Is(target error) bool {
	return target == ErrAborted
}

// CancellationError is surfaced when a waiter's context is done first.
// It is also an *AbortionError; Cause holds context.Cause of the context.
type CancellationError struct {
	AbortionError
}

// Unwrap returns the embedded AbortionError so errors.As finds it.
func (e *CancellationError) Unwrap() error {
	return &e.AbortionError
}

// Is reports whether target is ErrCancelled.
func (e *CancellationError) Is(target error) bool {
	return target == ErrCancelled
}

func newTimeoutError(event string, timeout time.Duration) *TimeoutError {
	return &TimeoutError{Event: event, Timeout: timeout, Source: Source}
}

func newAbortionError(event string) *AbortionError {
	return &AbortionError{Event: event, Source: Source}
}

func newCancellationError(event string, cause error) *CancellationError {
	return &CancellationError{AbortionError{
		Event:   event,
		Message: ErrCancelled.Error(),
		Source:  Source,
		Cause:   cause,
	}}
}

func newClosedError(event string) *AbortionError {
	return &AbortionError{Event: event, Message: "barrier closed", Source: Source, Cause: ErrClosed}
}

// outcome classifies a terminal error for logs and metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "resolved"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrClosed), errors.Is(err, ErrStreamClosed):
		return "closed"
	default:
		return "aborted"
	}
}
