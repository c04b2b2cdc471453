package barrier

import (
	"context"
	"errors"
	"iter"
)

// pullState is either idle (values buffered, no pull pending) or awaiting
// (one pull pending, buffer empty).
type pullState[T any] interface {
	isPullState()
}

type idle[T any] struct {
	buffer []T
}

type awaiting[T any] struct {
	reply chan pullResult[T]
}

func (*idle[T]) isPullState()     {}
func (*awaiting[T]) isPullState() {}

type pullResult[T any] struct {
	value T
	err   error
}

// Stream is a pull-based sequence of every value notified on an event.
// Values are buffered until pulled; only one Next may be pending at a time.
//
// A stream ends when it is aborted (the error is returned once, after the
// buffered values) or closed by the consumer.
type Stream[T any] struct {
	waiter[T]
	pull     pullState[T]
	failed   bool
	err      error // terminal error not yet returned
	surfaced bool
	closed   bool
}

func newStream[T any]() *Stream[T] {
	return &Stream[T]{pull: &idle[T]{}}
}

func (s *Stream[T]) onNext(value T) {
	if s.failed || s.disposed {
		return
	}
	switch p := s.pull.(type) {
	case *awaiting[T]:
		p.reply <- pullResult[T]{value: value}
		s.pull = &idle[T]{}
	case *idle[T]:
		p.buffer = append(p.buffer, value)
	}
}

func (s *Stream[T]) abort(err error) {
	if s.failed || s.disposed {
		return
	}
	s.failed = true
	if p, ok := s.pull.(*awaiting[T]); ok {
		p.reply <- pullResult[T]{err: err}
		s.pull = &idle[T]{}
		s.surfaced = true
	} else {
		s.err = err
	}
	s.finish(err)
}

// Next returns the next value, blocking until one is notified.
//
// Buffered values are returned before a terminal error. After the terminal
// error has been returned, Next returns ErrStreamTerminated; after Close it
// returns ErrStreamClosed. If ctx ends while Next is blocked, the pull is
// withdrawn and ctx.Err() is returned; the stream remains usable.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	b := s.barrier

	b.mu.Lock()
	if s.timeout > 0 && !s.disposed {
		s.rearm(s)
	}

	switch p := s.pull.(type) {
	case *awaiting[T]:
		b.mu.Unlock()
		return zero, ErrConcurrentNext
	case *idle[T]:
		if len(p.buffer) > 0 {
			value := p.buffer[0]
			p.buffer[0] = zero
			p.buffer = p.buffer[1:]
			b.mu.Unlock()
			return value, nil
		}
	}

	switch {
	case s.closed:
		b.mu.Unlock()
		return zero, ErrStreamClosed
	case s.failed && !s.surfaced:
		err := s.err
		s.err = nil
		s.surfaced = true
		b.mu.Unlock()
		return zero, err
	case s.failed:
		b.mu.Unlock()
		return zero, ErrStreamTerminated
	}

	reply := make(chan pullResult[T], 1)
	s.pull = &awaiting[T]{reply: reply}
	b.mu.Unlock()

	select {
	case r := <-reply:
		return r.value, r.err
	case <-ctx.Done():
	}

	b.mu.Lock()
	if p, ok := s.pull.(*awaiting[T]); ok && p.reply == reply {
		s.pull = &idle[T]{}
		b.mu.Unlock()
		return zero, ctx.Err()
	}
	b.mu.Unlock()

	// Completed between ctx ending and the withdrawal.
	r := <-reply
	return r.value, r.err
}

// Close stops the stream and removes it from the barrier. Buffered values
// are dropped; a pending or later Next returns ErrStreamClosed.
// Close is safe to call more than once.
func (s *Stream[T]) Close() {
	b := s.barrier
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if p, ok := s.pull.(*awaiting[T]); ok {
		p.reply <- pullResult[T]{err: ErrStreamClosed}
	}
	s.pull = &idle[T]{}
	s.finish(ErrStreamClosed)
}

// Abort terminates the stream with err as if the barrier had aborted it.
// A nil err becomes an *AbortionError tagged with the stream's event.
//
// Abort reports the end of the sequence to its caller: it returns the error
// the stream ended with. On a stream that had already ended it returns
// ErrStreamClosed or ErrStreamTerminated and changes nothing.
func (s *Stream[T]) Abort(err error) error {
	b := s.barrier
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case s.closed:
		return ErrStreamClosed
	case s.failed || s.disposed:
		return ErrStreamTerminated
	}
	if err == nil {
		err = newAbortionError(s.event)
	}
	s.abort(err)
	return err
}

// All adapts the stream to a range-over-func loop. A terminal error is
// yielded once with the zero value. The stream is closed when the loop ends.
//
// Example:
//
//	for value, err := range stream.All(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    handle(value)
//	}
func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for {
			value, err := s.Next(ctx)
			if errors.Is(err, ErrStreamClosed) {
				return
			}
			if err != nil {
				yield(value, err)
				return
			}
			if !yield(value, nil) {
				return
			}
		}
	}
}
