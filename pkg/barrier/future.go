package barrier

// Future is the pending result of a WaitOnce call.
// It completes exactly once with either a value or an error.
type Future[T any] struct {
	event string
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any](event string) *Future[T] {
	return &Future[T]{event: event, done: make(chan struct{})}
}

// Event returns the event being waited on.
func (f *Future[T]) Event() string {
	return f.event
}

// Done is closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Result returns the outcome without blocking, or ErrNotReady.
func (f *Future[T]) Result() (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
		var zero T
		return zero, ErrNotReady
	}
}

func (f *Future[T]) complete(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// onceWaiter resolves its future with the first value or error.
type onceWaiter[T any] struct {
	waiter[T]
	future *Future[T]
}

func (o *onceWaiter[T]) onNext(value T) {
	if o.disposed {
		return
	}
	o.future.complete(value, nil)
	o.finish(nil)
}

func (o *onceWaiter[T]) abort(err error) {
	if o.disposed {
		return
	}
	var zero T
	o.future.complete(zero, err)
	o.finish(err)
}
