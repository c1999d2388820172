// Package sink provides terminal consumers that bridge demand-driven
// publishers back into ordinary blocking Go code.
package sink

import (
	"context"
	"sync"

	"github.com/arloliu/groupstream/types"
)

// Collect subscribes to pub with unbounded demand and blocks until the
// sequence terminates or ctx is done.
//
// Parameters:
//   - ctx: Bounds the wait; cancellation cancels the subscription
//   - pub: Publisher to drain
//
// Returns:
//   - []T: All values received before the terminal signal
//   - error: The sequence's terminal error, or ctx's error on timeout
//
// Example:
//
//	values, err := sink.Collect(ctx, group)
func Collect[T any](ctx context.Context, pub types.Publisher[T]) ([]T, error) {
	var (
		mu     sync.Mutex
		values []T
	)

	err := Each(ctx, pub, func(v T) error {
		mu.Lock()
		values = append(values, v)
		mu.Unlock()

		return nil
	})

	mu.Lock()
	defer mu.Unlock()

	return values, err
}

// Each subscribes to pub with unbounded demand and invokes fn for every
// value, blocking until the sequence terminates or ctx is done. A non-nil
// error from fn cancels the subscription and is returned.
func Each[T any](ctx context.Context, pub types.Publisher[T], fn func(T) error) error {
	s := &eachSubscriber[T]{fn: fn, done: make(chan struct{})}
	pub.Subscribe(s)

	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		s.cancel()
		return context.Cause(ctx)
	}
}

type eachSubscriber[T any] struct {
	fn   func(T) error
	done chan struct{}

	mu     sync.Mutex
	sub    types.Subscription
	err    error
	closed bool
}

func (s *eachSubscriber[T]) OnSubscribe(sub types.Subscription) {
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	sub.Request(types.Unbounded)
}

func (s *eachSubscriber[T]) OnNext(v T) {
	if err := s.fn(v); err != nil {
		s.fail(err)
		s.cancel()
	}
}

func (s *eachSubscriber[T]) OnError(err error) {
	s.fail(err)
}

func (s *eachSubscriber[T]) OnComplete() {
	s.fail(nil)
}

// fail records the terminal outcome once; later signals are ignored.
func (s *eachSubscriber[T]) fail(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.closed = true
	s.err = err
	s.mu.Unlock()

	close(s.done)
}

func (s *eachSubscriber[T]) cancel() {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}
