package gate

import "context"

// Future is the pending result of an asynchronous operation. The result
// is published exactly once and is either a fully decoded value or an
// error, never both.
type Future[T any] struct {
	op     string
	door   int
	done   chan struct{}
	cancel context.CancelFunc
	value  T
	err    error
}

// start runs fn on its own goroutine under a cancellable child of ctx.
func start[T any](ctx context.Context, op string, door int, fn func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{op: op, door: door, done: make(chan struct{}), cancel: cancel}

	go func() {
		defer cancel()
		value, err := fn(ctx)
		if err != nil {
			var zero T
			value = zero
		}
		f.value, f.err = value, err
		close(f.done)
	}()

	return f
}

// failed returns a Future that has already failed.
func failed[T any](op string, door int, err error) *Future[T] {
	f := &Future[T]{op: op, door: door, done: make(chan struct{}), cancel: func() {}, err: err}
	close(f.done)
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx ends. If ctx ends
// first the underlying request is cancelled and a KindTransport error
// wrapping ctx.Err() is returned.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		f.cancel()
		var zero T
		return zero, canceled(ctx, f.op, f.door)
	}
}

// Cancel aborts the outstanding request. Await then returns the
// cancellation as a KindTransport error.
func (f *Future[T]) Cancel() {
	f.cancel()
}
