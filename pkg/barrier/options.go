package barrier

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/eventbarrier/pkg/barrier/config"
	"github.com/randalmurphal/eventbarrier/pkg/barrier/event"
	"github.com/randalmurphal/eventbarrier/pkg/barrier/journal"
)

// options holds barrier configuration.
type options struct {
	clock             Clock
	logger            *slog.Logger
	metrics           bool
	tracing           bool
	defaultTimeout    time.Duration
	streamIdleTimeout time.Duration
	bus               event.Bus
	busConfig         *event.BusConfig
	journal           journal.Store
}

func defaultOptions() options {
	return options{
		clock: realClock{},
	}
}

// Option configures a Barrier.
type Option func(*options)

// WithLogger sets the logger for waiter lifecycle tracing.
// Default: nil (silent)
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics.
// Default: false
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metrics = enabled
	}
}

// WithTracing enables OpenTelemetry spans around Wait.
// Default: false
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracing = enabled
	}
}

// WithClock replaces the clock used for timeouts.
// Default: the system clock
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithDefaultTimeout applies d to one-shot waits that do not pass WithTimeout.
// Default: 0 (wait forever)
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) {
		o.defaultTimeout = d
	}
}

// WithStreamIdleTimeout applies d as the inactivity timeout of streams that
// do not pass WithTimeout.
// Default: 0 (no inactivity timeout)
func WithStreamIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.streamIdleTimeout = d
	}
}

// WithBus publishes every notified value to bus before waiters see it.
// The caller keeps ownership of bus; Close does not close it.
//
// Notify never waits on observers. A bus implementing event.TryPublisher
// (such as *event.LocalBus) drops occurrences for full subscribers;
// any other bus must return from Publish promptly.
func WithBus(bus event.Bus) Option {
	return func(o *options) {
		o.bus = bus
		o.busConfig = nil
	}
}

// WithObserver creates a bus owned by the barrier. Close closes it.
// The bus is always non-blocking: occurrences that do not fit a
// subscriber's buffer are dropped and logged at warn level.
func WithObserver(cfg event.BusConfig) Option {
	return func(o *options) {
		o.bus = nil
		o.busConfig = &cfg
	}
}

// WithJournal records every notified value in store.
// A barrier without a bus gets an owned one. The caller closes store.
// A journal that falls a full buffer behind loses occurrences rather than
// slowing Notify.
func WithJournal(store journal.Store) Option {
	return func(o *options) {
		o.journal = store
	}
}

// WithSettings applies timeouts, metrics, tracing and the observer bus from
// settings. The journal is opened separately with journal.Open.
//
// Example:
//
//	settings, err := config.FromFile("barrier.yaml")
//	if err != nil {
//	    return err
//	}
//	b := barrier.New[string](barrier.WithSettings(settings))
func WithSettings(settings config.Settings) Option {
	return func(o *options) {
		o.defaultTimeout = settings.DefaultTimeout
		o.streamIdleTimeout = settings.StreamIdleTimeout
		o.metrics = settings.Metrics
		o.tracing = settings.Tracing
		if settings.Observer.Enabled {
			o.bus = nil
			o.busConfig = &event.BusConfig{
				BufferSize: settings.Observer.BufferSize,
			}
		}
	}
}

// waitOptions holds per-waiter configuration.
type waitOptions struct {
	timeout    time.Duration
	hasTimeout bool
}

// WaitOption configures a single WaitOnce, Wait or Stream call.
type WaitOption func(*waitOptions)

// WithTimeout sets the waiter's timeout. For streams it is an inactivity
// timeout, restarted by every Next. Zero or negative disables any default.
func WithTimeout(d time.Duration) WaitOption {
	return func(w *waitOptions) {
		w.timeout = d
		w.hasTimeout = true
	}
}

// timeoutFor resolves the effective timeout for a waiter kind.
func (o *options) timeoutFor(kind waiterKind, opts []WaitOption) time.Duration {
	var w waitOptions
	for _, opt := range opts {
		opt(&w)
	}
	if w.hasTimeout {
		return max(w.timeout, 0)
	}
	if kind == kindStream {
		return o.streamIdleTimeout
	}
	return o.defaultTimeout
}
