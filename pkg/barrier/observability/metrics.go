package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records barrier metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordWaiterRegistered records a waiter joining an event's queue.
	RecordWaiterRegistered(ctx context.Context, event, kind string)

	// RecordWaiterCompleted records a waiter reaching a terminal state.
	RecordWaiterCompleted(ctx context.Context, event, kind, outcome string, duration time.Duration)

	// RecordNotify records a notify call and how many waiters it reached.
	RecordNotify(ctx context.Context, event string, woken, streams int)

	// RecordAbort records an abort call and how many waiters it failed.
	RecordAbort(ctx context.Context, event string, aborted int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	registered    metric.Int64Counter
	completed     metric.Int64Counter
	pending       metric.Int64UpDownCounter
	waiterLatency metric.Float64Histogram
	notifications metric.Int64Counter
	delivered     metric.Int64Counter
	aborts        metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventbarrier")

	registered, err := meter.Int64Counter("eventbarrier.waiters.registered",
		metric.WithDescription("Number of waiters registered"),
	)
	if err != nil {
		return nil, err
	}

	completed, err := meter.Int64Counter("eventbarrier.waiters.completed",
		metric.WithDescription("Number of waiters that reached a terminal state"),
	)
	if err != nil {
		return nil, err
	}

	pending, err := meter.Int64UpDownCounter("eventbarrier.waiters.pending",
		metric.WithDescription("Number of waiters currently registered"),
	)
	if err != nil {
		return nil, err
	}

	waiterLatency, err := meter.Float64Histogram("eventbarrier.waiter.latency_ms",
		metric.WithDescription("Time from registration to completion in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter("eventbarrier.notifications",
		metric.WithDescription("Number of notify calls"),
	)
	if err != nil {
		return nil, err
	}

	delivered, err := meter.Int64Counter("eventbarrier.deliveries",
		metric.WithDescription("Number of values handed to waiters"),
	)
	if err != nil {
		return nil, err
	}

	aborts, err := meter.Int64Counter("eventbarrier.aborts",
		metric.WithDescription("Number of abort calls"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		registered:    registered,
		completed:     completed,
		pending:       pending,
		waiterLatency: waiterLatency,
		notifications: notifications,
		delivered:     delivered,
		aborts:        aborts,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordWaiterRegistered records a waiter registration.
func (m *otelMetrics) RecordWaiterRegistered(ctx context.Context, event, kind string) {
	attrs := metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("kind", kind),
	)
	m.registered.Add(ctx, 1, attrs)
	m.pending.Add(ctx, 1, attrs)
}

// RecordWaiterCompleted records a waiter completion.
func (m *otelMetrics) RecordWaiterCompleted(ctx context.Context, event, kind, outcome string, duration time.Duration) {
	m.pending.Add(ctx, -1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("kind", kind),
	))

	attrs := metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	)
	m.completed.Add(ctx, 1, attrs)
	m.waiterLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordNotify records a notify call.
func (m *otelMetrics) RecordNotify(ctx context.Context, event string, woken, streams int) {
	m.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
	if woken > 0 {
		m.delivered.Add(ctx, int64(woken), metric.WithAttributes(
			attribute.String("event", event),
			attribute.String("kind", "once"),
		))
	}
	if streams > 0 {
		m.delivered.Add(ctx, int64(streams), metric.WithAttributes(
			attribute.String("event", event),
			attribute.String("kind", "stream"),
		))
	}
}

// RecordAbort records an abort call.
func (m *otelMetrics) RecordAbort(ctx context.Context, event string, aborted int) {
	m.aborts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.Int("aborted", aborted),
	))
}
