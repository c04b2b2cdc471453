package barrier

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/eventbarrier/pkg/barrier/event"
	"github.com/randalmurphal/eventbarrier/pkg/barrier/journal"
	"github.com/randalmurphal/eventbarrier/pkg/barrier/observability"
)

// Barrier lets any number of goroutines wait for named events.
//
// One-shot waiters (WaitOnce, Wait) are woken in registration order; stream
// waiters (Stream) receive every value. A Barrier is safe for concurrent use.
type Barrier[T any] struct {
	mu      sync.Mutex
	once    map[string][]*onceWaiter[T]
	streams map[string][]*Stream[T]
	closed  bool

	opts     options
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	bus      event.Bus
	ownsBus  bool
	recorder event.Subscription
}

// New creates a barrier carrying values of type T.
func New[T any](opts ...Option) *Barrier[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	b := &Barrier[T]{
		once:    make(map[string][]*onceWaiter[T]),
		streams: make(map[string][]*Stream[T]),
		opts:    o,
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		bus:     o.bus,
	}

	if o.metrics {
		b.metrics = observability.NewMetricsRecorder()
	}
	if o.tracing {
		b.spans = observability.NewSpanManager()
	}

	if b.bus == nil && (o.busConfig != nil || o.journal != nil) {
		cfg := event.DefaultBusConfig
		if o.busConfig != nil {
			cfg = *o.busConfig
		}
		cfg.NonBlocking = true
		if cfg.OnDrop == nil {
			cfg.OnDrop = func(evt event.Event, subscriberID string) {
				observability.LogObserverDrop(o.logger, evt.Name(), subscriberID)
			}
		}
		if cfg.OnError == nil {
			cfg.OnError = func(evt event.Event, _ string, err error) {
				observability.LogPublishError(o.logger, evt.Name(), err)
			}
		}
		b.bus = event.NewBus(cfg)
		b.ownsBus = true
	}

	if o.journal != nil {
		sub, err := b.bus.SubscribeAll(journal.NewRecorder(o.journal).WithLogger(o.logger))
		if err != nil && o.logger != nil {
			o.logger.Warn("journal subscription failed", slog.String("error", err.Error()))
		}
		b.recorder = sub
	}

	return b
}

// WaitOnce registers a one-shot waiter for event and returns its future.
//
// The waiter is cancelled with a *CancellationError when ctx is done; a ctx
// that is already done cancels it immediately. WithTimeout bounds the wait
// with a *TimeoutError.
func (b *Barrier[T]) WaitOnce(ctx context.Context, event string, opts ...WaitOption) *Future[T] {
	future := newFuture[T](event)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		var zero T
		future.complete(zero, newClosedError(event))
		return future
	}

	w := &onceWaiter[T]{future: future}
	w.init(b, kindOnce, event, b.opts.timeoutFor(kindOnce, opts))
	b.once[event] = append(b.once[event], w)
	w.arm(ctx, w)

	observability.LogWaiterRegistered(w.logger, w.timeout, len(b.once[event]))
	b.metrics.RecordWaiterRegistered(ctx, event, kindOnce.String())
	return future
}

// Wait blocks until event is notified, aborted, timed out or ctx is done.
func (b *Barrier[T]) Wait(ctx context.Context, event string, opts ...WaitOption) (T, error) {
	ctx, span := b.spans.StartWaitSpan(ctx, kindOnce.String(), event)
	future := b.WaitOnce(ctx, event, opts...)
	b.spans.AddSpanEvent(ctx, "waiter.registered")
	value, err := future.Wait()
	b.spans.AddSpanEvent(ctx, "waiter.completed", attribute.String("outcome", outcome(err)))
	b.spans.EndSpanWithError(span, err)
	return value, err
}

// Stream registers a stream waiter for event.
//
// Cancellation follows WaitOnce. WithTimeout sets an inactivity timeout,
// restarted by every Next.
func (b *Barrier[T]) Stream(ctx context.Context, event string, opts ...WaitOption) *Stream[T] {
	s := newStream[T]()

	b.mu.Lock()
	defer b.mu.Unlock()

	s.init(b, kindStream, event, b.opts.timeoutFor(kindStream, opts))
	if b.closed {
		s.disposed = true
		s.failed = true
		s.err = newClosedError(event)
		return s
	}

	b.streams[event] = append(b.streams[event], s)
	s.arm(ctx, s)

	observability.LogWaiterRegistered(s.logger, s.timeout, len(b.streams[event]))
	b.metrics.RecordWaiterRegistered(ctx, event, kindStream.String())
	return s
}

// Notify delivers value to every one-shot and stream waiter of event.
func (b *Barrier[T]) Notify(event string, value T) {
	b.notify(event, value, 0, true)
}

// NotifyN delivers value to the first n one-shot waiters of event in
// registration order and to every stream waiter. The remaining one-shot
// waiters stay queued; n <= 0 wakes none of them.
func (b *Barrier[T]) NotifyN(event string, value T, n int) {
	b.notify(event, value, n, false)
}

func (b *Barrier[T]) notify(name string, value T, n int, all bool) {
	b.publish(name, value)

	b.mu.Lock()
	defer b.mu.Unlock()

	queued := b.once[name]
	k := len(queued)
	if !all {
		k = min(max(n, 0), len(queued))
	}
	woken := slices.Clone(queued[:k])
	if rest := queued[k:]; len(rest) > 0 {
		b.once[name] = rest
	} else {
		delete(b.once, name)
	}
	for _, w := range woken {
		w.onNext(value)
	}

	streams := slices.Clone(b.streams[name])
	for _, s := range streams {
		s.onNext(value)
	}

	observability.LogNotify(b.opts.logger, name, len(woken), len(streams), len(b.once[name]))
	b.metrics.RecordNotify(context.Background(), name, len(woken), len(streams))
}

// publish hands value to the observer bus without waiting on observers.
// Failures are logged only.
func (b *Barrier[T]) publish(name string, value T) {
	if b.bus == nil {
		return
	}
	occ := event.New(name, Source, value)
	var err error
	if tp, ok := b.bus.(event.TryPublisher); ok {
		err = tp.TryPublish(occ)
	} else {
		err = b.bus.Publish(context.Background(), occ)
	}
	if err != nil {
		observability.LogPublishError(b.opts.logger, name, err)
	}
}

// Abort fails every one-shot and stream waiter of event with err.
// A nil err becomes an *AbortionError tagged with event.
func (b *Barrier[T]) Abort(event string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.abortLocked(event, err)
}

// AbortAll aborts every event that has waiters. With a nil err each event
// gets its own *AbortionError tagged with that event.
func (b *Barrier[T]) AbortAll(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range b.eventsLocked() {
		b.abortLocked(name, err)
	}
}

func (b *Barrier[T]) abortLocked(name string, err error) {
	if err == nil {
		err = newAbortionError(name)
	}

	once := b.once[name]
	streams := b.streams[name]
	delete(b.once, name)
	delete(b.streams, name)

	for _, w := range once {
		w.abort(err)
	}
	for _, s := range streams {
		s.abort(err)
	}

	aborted := len(once) + len(streams)
	observability.LogAbort(b.opts.logger, name, aborted, err)
	b.metrics.RecordAbort(context.Background(), name, aborted)
}

// Close aborts all waiters with an error matching ErrClosed and closes an
// owned observer bus. Later waits fail immediately. Close is idempotent.
func (b *Barrier[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, name := range b.eventsLocked() {
		b.abortLocked(name, newClosedError(name))
	}
	b.mu.Unlock()

	if b.recorder != nil {
		b.recorder.Unsubscribe()
	}
	if b.ownsBus {
		return b.bus.Close()
	}
	return nil
}

// On subscribes handler to the raw values notified on event.
// Handlers run on the bus's goroutines, never under the barrier lock.
func (b *Barrier[T]) On(name string, handler event.Handler) (event.Subscription, error) {
	if b.bus == nil {
		return nil, ErrNoBus
	}
	return b.bus.Subscribe([]string{name}, handler)
}

// Events returns the events that currently have waiters, sorted.
func (b *Barrier[T]) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.eventsLocked()
}

func (b *Barrier[T]) eventsLocked() []string {
	names := make([]string, 0, len(b.once)+len(b.streams))
	for name := range b.once {
		names = append(names, name)
	}
	for name := range b.streams {
		if _, ok := b.once[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// OnceWaiters returns the number of pending one-shot waiters on event.
func (b *Barrier[T]) OnceWaiters(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.once[event])
}

// StreamWaiters returns the number of active stream waiters on event.
func (b *Barrier[T]) StreamWaiters(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.streams[event])
}

// remove drops w from the list its kind lives in. Absent waiters are ignored.
func (b *Barrier[T]) remove(w *waiter[T]) {
	switch w.kind {
	case kindOnce:
		removeFrom(b.once, w.event, func(o *onceWaiter[T]) bool { return &o.waiter == w })
	case kindStream:
		removeFrom(b.streams, w.event, func(s *Stream[T]) bool { return &s.waiter == w })
	}
}

func removeFrom[W any](m map[string][]W, event string, match func(W) bool) {
	list := m[event]
	i := slices.IndexFunc(list, match)
	if i < 0 {
		return
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(m, event)
		return
	}
	m[event] = list
}
