/*
Package barrier lets any number of goroutines wait for named events.

# Overview

A Barrier is a registry of waiters keyed by event name. Producers call
Notify to deliver a value; consumers either wait for a single occurrence or
pull every occurrence from a stream. Each waiter may carry a timeout and is
cancelled when the context it was registered with is done.

# Waiting Once

	b := barrier.New[string]()

	go func() {
	    time.Sleep(100 * time.Millisecond)
	    b.Notify("job.done", "ok")
	}()

	value, err := b.Wait(ctx, "job.done", barrier.WithTimeout(time.Second))
	if err != nil {
	    return err
	}

WaitOnce returns a Future instead of blocking, so several waits can be
registered before any of them is awaited. Notify wakes every one-shot
waiter; NotifyN wakes the first n in registration order and leaves the rest
queued.

# Streams

	stream := b.Stream(ctx, "temperature", barrier.WithTimeout(time.Minute))
	for value, err := range stream.All(ctx) {
	    if err != nil {
	        return err
	    }
	    record(value)
	}

Every stream receives every value. Values are buffered until pulled, and
WithTimeout on a stream is an inactivity timeout restarted by each Next.

# Errors

A waiter fails with exactly one of:
  - *TimeoutError (errors.Is ErrTimeout) when its timer fires
  - *CancellationError (errors.Is ErrCancelled and ErrAborted) when its
    context is done; Cause holds context.Cause
  - the error passed to Abort or AbortAll, or an *AbortionError tagged with
    the event when that error is nil

# Observers and Journal

WithObserver or WithBus publishes every notified value on an event.Bus
before any waiter sees it; On subscribes a handler to one event.
WithJournal records every value in a journal.Store.

# Observability

WithLogger traces waiter lifecycles at debug level. WithMetrics and
WithTracing enable OpenTelemetry instruments and spans; see the
observability package.
*/
package barrier
