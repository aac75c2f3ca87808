// Package future provides a single-assignment asynchronous result
// container with ownership split between a reader half (Future) and a
// writer half (Promise). The writer is typically handed to a different
// actor than the one that created the pair, e.g. a process reaper that
// completes an operation's future when the OS reports termination.
package future

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyResolved is returned when a Promise is completed a second
// time. A double completion is a contract violation by the writer, not
// a runtime condition, so it is surfaced rather than silently ignored.
var ErrAlreadyResolved = errors.New("future already resolved")

// Future is the reader half of a single-assignment result.
type Future[T any] struct {
	mu       sync.Mutex
	done     chan struct{}
	value    T
	err      error
	resolved bool
}

// Promise is the sole writer half of a Future. Exactly one of Resolve
// or Fail may be called, exactly once.
type Promise[T any] struct {
	f *Future[T]
}

// New creates a pending future and its promise.
func New[T any]() (*Future[T], *Promise[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return f, &Promise[T]{f: f}
}

// Resolved creates a future already completed with a value.
func Resolved[T any](v T) *Future[T] {
	f, p := New[T]()
	_ = p.Resolve(v)
	return f
}

// Failed creates a future already completed with an error.
func Failed[T any](err error) *Future[T] {
	f, p := New[T]()
	_ = p.Fail(err)
	return f
}

// Resolve completes the future with a value. Returns
// ErrAlreadyResolved if the future was already completed.
func (p *Promise[T]) Resolve(v T) error {
	return p.f.complete(v, nil)
}

// Fail completes the future with an error. Returns ErrAlreadyResolved
// if the future was already completed.
func (p *Promise[T]) Fail(err error) error {
	var zero T
	return p.f.complete(zero, err)
}

func (f *Future[T]) complete(v T, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolved {
		return ErrAlreadyResolved
	}
	f.value = v
	f.err = err
	f.resolved = true
	close(f.done)
	return nil
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Peek returns the result without blocking. The bool reports whether
// the future has completed.
func (f *Future[T]) Peek() (T, error, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err, f.resolved
}

// Wait blocks until the future completes or the context is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Map derives a future by transforming the value of another. The
// transform runs on the given queue once the source completes; a nil
// queue runs it on the waiting goroutine. Source errors propagate
// without invoking the transform.
func Map[T, U any](src *Future[T], q *Queue, fn func(T) (U, error)) *Future[U] {
	out, promise := New[U]()
	schedule(src, q, func(v T, err error) {
		if err != nil {
			_ = promise.Fail(err)
			return
		}
		u, err := fn(v)
		if err != nil {
			_ = promise.Fail(err)
			return
		}
		_ = promise.Resolve(u)
	})
	return out
}

// FlatMap derives a future by chaining onto a future-returning
// continuation, flattening the result.
func FlatMap[T, U any](src *Future[T], q *Queue, fn func(T) *Future[U]) *Future[U] {
	out, promise := New[U]()
	schedule(src, q, func(v T, err error) {
		if err != nil {
			_ = promise.Fail(err)
			return
		}
		next := fn(v)
		schedule(next, q, func(u U, err error) {
			if err != nil {
				_ = promise.Fail(err)
				return
			}
			_ = promise.Resolve(u)
		})
	})
	return out
}

// schedule runs fn with the source's result once it completes,
// on q when provided.
func schedule[T any](src *Future[T], q *Queue, fn func(T, error)) {
	run := func() {
		v, err, _ := src.Peek()
		fn(v, err)
	}
	go func() {
		<-src.done
		if q != nil {
			q.Schedule(run)
			return
		}
		run()
	}()
}
