package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordWaiterRegistered does nothing.
func (NoopMetrics) RecordWaiterRegistered(_ context.Context, _, _ string) {}

// RecordWaiterCompleted does nothing.
func (NoopMetrics) RecordWaiterCompleted(_ context.Context, _, _, _ string, _ time.Duration) {}

// RecordNotify does nothing.
func (NoopMetrics) RecordNotify(_ context.Context, _ string, _, _ int) {}

// RecordAbort does nothing.
func (NoopMetrics) RecordAbort(_ context.Context, _ string, _ int) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartWaitSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartWaitSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
