package testing

import (
	"sync"
	"time"

	"github.com/arloliu/groupstream/types"
)

// Subscriber is a recording subscriber with manual demand control, for
// driving publishers in tests.
//
// It records every value and the terminal signal, and only requests what
// the test tells it to: construct with the initial demand (0 to start with
// no demand at all) and call Request for more.
type Subscriber[T any] struct {
	mu        sync.Mutex
	values    []T
	err       error
	completed bool
	sub       types.Subscription

	initial int64
	done    chan struct{}
	next    chan struct{} // pulsed once per OnNext
}

var _ types.Subscriber[int] = (*Subscriber[int])(nil)

// NewSubscriber creates a recording subscriber.
//
// Parameters:
//   - initialDemand: Demand requested inside OnSubscribe; use
//     types.Unbounded to consume freely, 0 to exercise zero-demand paths
//
// Returns:
//   - *Subscriber[T]: Ready to pass to Publisher.Subscribe
func NewSubscriber[T any](initialDemand int64) *Subscriber[T] {
	return &Subscriber[T]{
		initial: initialDemand,
		done:    make(chan struct{}),
		next:    make(chan struct{}, 1024),
	}
}

func (s *Subscriber[T]) OnSubscribe(sub types.Subscription) {
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	if s.initial != 0 {
		sub.Request(s.initial)
	}
}

func (s *Subscriber[T]) OnNext(v T) {
	s.mu.Lock()
	s.values = append(s.values, v)
	s.mu.Unlock()

	select {
	case s.next <- struct{}{}:
	default:
	}
}

func (s *Subscriber[T]) OnError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

func (s *Subscriber[T]) OnComplete() {
	s.mu.Lock()
	s.completed = true
	s.mu.Unlock()
	close(s.done)
}

// Request adds demand through the recorded subscription.
func (s *Subscriber[T]) Request(n int64) {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()

	sub.Request(n)
}

// Cancel cancels the recorded subscription.
func (s *Subscriber[T]) Cancel() {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()

	sub.Cancel()
}

// Subscription returns the subscription passed to OnSubscribe, or nil
// before the handshake.
func (s *Subscriber[T]) Subscription() types.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sub
}

// Values returns a copy of everything received so far.
func (s *Subscriber[T]) Values() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, len(s.values))
	copy(out, s.values)

	return out
}

// Err returns the terminal error, or nil.
func (s *Subscriber[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Completed reports whether OnComplete was received.
func (s *Subscriber[T]) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.completed
}

// Terminated reports whether any terminal signal was received.
func (s *Subscriber[T]) Terminated() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// AwaitDone blocks until a terminal signal arrives or the timeout elapses.
//
// Returns:
//   - bool: true when the subscriber terminated within the timeout
func (s *Subscriber[T]) AwaitDone(timeout time.Duration) bool {
	select {
	case <-s.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// AwaitValues blocks until at least n values arrived or the timeout
// elapses.
//
// Returns:
//   - bool: true when n values arrived within the timeout
func (s *Subscriber[T]) AwaitValues(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)

	for {
		s.mu.Lock()
		got := len(s.values)
		s.mu.Unlock()

		if got >= n {
			return true
		}

		select {
		case <-s.next:
		case <-s.done:
			s.mu.Lock()
			got = len(s.values)
			s.mu.Unlock()

			return got >= n
		case <-deadline:
			return false
		}
	}
}
