package barrier

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock fires timers only when advanced.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs due callbacks outside the clock lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	slices.SortStableFunc(due, func(a, b *fakeTimer) int {
		return cmp.Compare(a.at, b.at)
	})
	for _, t := range due {
		t.f()
	}
}

// active returns the number of timers neither stopped nor fired.
func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// timer returns the i-th timer ever created.
func (c *fakeClock) timer(i int) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

// testCtx returns a context that is cancelled when the test ends.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// waitResult waits for a future with a test deadline.
func waitResult[T any](t *testing.T, f *Future[T]) (T, error) {
	t.Helper()
	select {
	case <-f.Done():
		return f.Wait()
	case <-time.After(2 * time.Second):
		require.FailNow(t, "future did not complete", "event %q", f.Event())
		var zero T
		return zero, nil
	}
}

// nextResult runs Next in the background and returns its result channel.
func nextResult[T any](ctx context.Context, s *Stream[T]) <-chan pullResult[T] {
	out := make(chan pullResult[T], 1)
	go func() {
		v, err := s.Next(ctx)
		out <- pullResult[T]{value: v, err: err}
	}()
	return out
}

// awaitingPull reports whether the stream has a Next pending.
func awaitingPull[T any](s *Stream[T]) bool {
	s.barrier.mu.Lock()
	defer s.barrier.mu.Unlock()
	_, ok := s.pull.(*awaiting[T])
	return ok
}

// receive reads one pull result with a test deadline.
func receive[T any](t *testing.T, ch <-chan pullResult[T]) (T, error) {
	t.Helper()
	select {
	case r := <-ch:
		return r.value, r.err
	case <-time.After(2 * time.Second):
		require.FailNow(t, "Next did not return")
		var zero T
		return zero, nil
	}
}
