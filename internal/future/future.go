// Package future provides a one-shot result slot shared between the goroutine
// that produces a value and any number of goroutines waiting for it.
package future

import (
	"context"
	"sync"
)

// Future holds a result that is settled exactly once, either with a value
// or with an error. The zero value is not usable; create one with New.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New returns an unsettled future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve settles the future with a value. It reports false when the future
// was already settled, in which case v is discarded.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with an error. It reports false when the future
// was already settled.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value = v
		f.err = err
		settled = true
		close(f.done)
	})
	return settled
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether a result is available.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the settled value and error. It must only be called after
// Done is closed; before that it returns the zero value and nil.
func (f *Future[T]) Result() (T, error) {
	if !f.Settled() {
		var zero T
		return zero, nil
	}
	return f.value, f.err
}

// Wait blocks until the future settles or ctx ends. A context error leaves
// the future untouched; a later settlement is still observable.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
