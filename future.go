// Copyright 2025 Balance Lab, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package addrlb

import (
	"context"
	"sync"
)

// Future is the one-shot result of an asynchronous resolution. It completes
// exactly once, with either a value or an error, and is safe for use by any
// number of concurrent waiters.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Promise is the producer side of a [Future]. Only the first call to
// Complete or Fail takes effect.
type Promise[T any] struct {
	once   sync.Once
	future *Future[T]
}

// NewPromise creates an unfulfilled promise and its future.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{
		future: &Future[T]{done: make(chan struct{})},
	}
}

// Complete fulfills the future with a value. It reports whether this call
// was the one that completed it.
func (p *Promise[T]) Complete(value T) bool {
	completed := false
	p.once.Do(func() {
		p.future.value = value
		close(p.future.done)
		completed = true
	})
	return completed
}

// Fail fulfills the future with an error. It reports whether this call was
// the one that completed it.
func (p *Promise[T]) Fail(err error) bool {
	completed := false
	p.once.Do(func() {
		p.future.err = err
		close(p.future.done)
		completed = true
	})
	return completed
}

// Future returns the consumer side of the promise.
func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

// CompletedFuture returns a future that already holds the given value.
func CompletedFuture[T any](value T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: value}
	close(f.done)
	return f
}

// FailedFuture returns a future that already holds the given error.
func FailedFuture[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Done returns a channel that is closed when the future has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future completes or ctx is done, whichever comes
// first. When ctx wins, the future itself is unaffected and may still
// complete later.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome of the future. It must only be called after
// the channel returned by Done has been closed.
func (f *Future[T]) Result() (T, error) {
	return f.value, f.err
}
