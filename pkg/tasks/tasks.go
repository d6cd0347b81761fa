package tasks

import "context"

// Result carries the outcome of an asynchronous call.
type Result[T any] struct {
	Value T
	Err   error
}

// Go runs fn on its own goroutine and delivers the outcome on the returned
// channel. The channel is buffered, so the goroutine never blocks on a
// receiver that went away, and it is closed after the single send.
func Go[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		value, err := fn()
		ch <- Result[T]{Value: value, Err: err}
		close(ch)
	}()
	return ch
}

// Await blocks until the task completes or the context is cancelled.
// On cancellation the task keeps running in the background; its buffered
// result is dropped when it finishes.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	select {
	case res := <-ch:
		return res.Value, res.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
