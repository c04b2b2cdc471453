// Package observability provides logging, metrics, and tracing for event
// barriers.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds waiter context to a logger.
// Returns a new logger with event and kind fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "job.done", "stream")
//	enriched.Debug("pulled value") // includes event, kind
func EnrichLogger(logger *slog.Logger, event, kind string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event", event),
		slog.String("kind", kind),
	)
}

// LogWaiterRegistered logs a new waiter joining an event's queue.
// logger is expected to come from EnrichLogger.
func LogWaiterRegistered(logger *slog.Logger, timeout time.Duration, queued int) {
	if logger == nil {
		return
	}
	logger.Debug("waiter registered",
		slog.Duration("timeout", timeout),
		slog.Int("queued", queued),
	)
}

// LogWaiterCompleted logs a waiter reaching a terminal state.
// logger is expected to come from EnrichLogger.
func LogWaiterCompleted(logger *slog.Logger, outcome string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("waiter completed",
		slog.String("outcome", outcome),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNotify logs delivery of a notified value.
func LogNotify(logger *slog.Logger, event string, woken, streams, remaining int) {
	if logger == nil {
		return
	}
	logger.Debug("event notified",
		slog.String("event", event),
		slog.Int("woken", woken),
		slog.Int("streams", streams),
		slog.Int("remaining", remaining),
	)
}

// LogAbort logs an abort of every waiter on an event.
func LogAbort(logger *slog.Logger, event string, aborted int, err error) {
	if logger == nil {
		return
	}
	logger.Debug("event aborted",
		slog.String("event", event),
		slog.Int("aborted", aborted),
		slog.String("error", err.Error()),
	)
}

// LogPublishError logs a failed publish to the observer bus (non-fatal).
func LogPublishError(logger *slog.Logger, event string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("observer publish failed",
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}

// LogObserverDrop logs an occurrence dropped because a subscriber's
// buffer was full.
func LogObserverDrop(logger *slog.Logger, event, subscriberID string) {
	if logger == nil {
		return
	}
	logger.Warn("observer dropped occurrence",
		slog.String("event", event),
		slog.String("subscriber", subscriberID),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... wait ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
