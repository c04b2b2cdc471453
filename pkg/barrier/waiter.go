package barrier

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/eventbarrier/pkg/barrier/observability"
)

// waiterKind tags which registry list a waiter lives in.
type waiterKind uint8

const (
	kindOnce waiterKind = iota
	kindStream
)

func (k waiterKind) String() string {
	if k == kindStream {
		return "stream"
	}
	return "once"
}

// completer is the capability shared by both waiter kinds.
// All methods are called with the barrier lock held.
type completer[T any] interface {
	onNext(value T)
	abort(err error)
}

// waiter is the lifecycle shared by one-shot and stream waiters: an optional
// timer, an optional context subscription, and exactly-once disposal.
// All fields are guarded by the owning barrier's lock.
type waiter[T any] struct {
	barrier *Barrier[T]
	kind    waiterKind
	event   string
	timeout time.Duration
	logger  *slog.Logger
	elapsed func() float64 // milliseconds since registration

	timer      Timer
	generation uint64
	stopCtx    func() bool
	disposed   bool
}

func (w *waiter[T]) init(b *Barrier[T], kind waiterKind, event string, timeout time.Duration) {
	w.barrier = b
	w.kind = kind
	w.event = event
	w.timeout = timeout
	w.logger = observability.EnrichLogger(b.opts.logger, event, kind.String())
	w.elapsed = observability.TimedOperation()
}

// Event returns the event being waited on.
func (w *waiter[T]) Event() string {
	return w.event
}

// arm starts the timer and subscribes to ctx. A ctx that is already done
// cancels the waiter as soon as the lock is released.
func (w *waiter[T]) arm(ctx context.Context, c completer[T]) {
	if w.timeout > 0 {
		w.rearm(c)
	}
	if ctx.Done() == nil {
		return
	}
	b := w.barrier
	w.stopCtx = context.AfterFunc(ctx, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if w.disposed {
			return
		}
		c.abort(newCancellationError(w.event, context.Cause(ctx)))
	})
}

// rearm (re)starts the timer. Callbacks of replaced timers are ignored.
func (w *waiter[T]) rearm(c completer[T]) {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.generation++
	gen := w.generation
	b := w.barrier
	w.timer = b.opts.clock.AfterFunc(w.timeout, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if w.disposed || w.generation != gen {
			return
		}
		c.abort(newTimeoutError(w.event, w.timeout))
	})
}

// finish disposes the waiter and reports how it ended.
func (w *waiter[T]) finish(err error) {
	if !w.dispose() {
		return
	}
	result := outcome(err)
	durationMs := w.elapsed()
	observability.LogWaiterCompleted(w.logger, result, durationMs)
	w.barrier.metrics.RecordWaiterCompleted(context.Background(), w.event, w.kind.String(), result,
		time.Duration(durationMs*float64(time.Millisecond)))
}

// dispose stops the timer, drops the context subscription and removes the
// waiter from the registry. It reports false if already disposed.
func (w *waiter[T]) dispose() bool {
	if w.disposed {
		return false
	}
	w.disposed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.stopCtx != nil {
		w.stopCtx()
		w.stopCtx = nil
	}
	w.barrier.remove(w)
	return true
}
