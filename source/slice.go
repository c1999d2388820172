package source

import (
	"fmt"
	"sync/atomic"

	"github.com/arloliu/groupstream/internal/flow"
	"github.com/arloliu/groupstream/types"
)

// FromSlice creates a publisher that emits the elements of items in order,
// then completes. Each Subscribe starts an independent pass over the slice;
// the slice itself is not copied and must not be mutated while subscribed.
//
// Parameters:
//   - items: Elements to emit
//
// Returns:
//   - types.Publisher[T]: Demand-driven publisher over items
//
// Example:
//
//	src := source.FromSlice([]string{"a", "b", "c"})
func FromSlice[T any](items []T) types.Publisher[T] {
	return &slicePublisher[T]{items: items}
}

// Just creates a publisher emitting exactly the given elements.
func Just[T any](items ...T) types.Publisher[T] {
	return &slicePublisher[T]{items: items}
}

// Range creates a publisher emitting the integers start, start+1, ...,
// start+count-1.
//
// Parameters:
//   - start: First value emitted
//   - count: Number of values, must be non-negative
func Range(start, count int) types.Publisher[int] {
	items := make([]int, 0, max(count, 0))
	for i := 0; i < count; i++ {
		items = append(items, start+i)
	}

	return &slicePublisher[int]{items: items}
}

// Empty creates a publisher that completes immediately without emitting.
func Empty[T any]() types.Publisher[T] {
	return &slicePublisher[T]{}
}

// Error creates a publisher that fails with err immediately after the
// subscription handshake, without emitting any element.
func Error[T any](err error) types.Publisher[T] {
	return &slicePublisher[T]{failure: err}
}

type slicePublisher[T any] struct {
	items   []T
	failure error
}

func (p *slicePublisher[T]) Subscribe(sub types.Subscriber[T]) {
	if p.failure != nil {
		sub.OnSubscribe(nopSubscription{})
		sub.OnError(p.failure)

		return
	}

	s := &sliceSubscription[T]{sub: sub, items: p.items}
	sub.OnSubscribe(s)
	s.drain()
}

// sliceSubscription walks one subscriber through the slice under its
// demand. Emission is serialized with the work-in-progress guard, so a
// Request issued from inside OnNext folds into the running loop instead of
// recursing.
type sliceSubscription[T any] struct {
	sub   types.Subscriber[T]
	items []T
	index int // guarded by the drain loop

	requested atomic.Int64
	wip       atomic.Int32
	cancelled atomic.Bool
	violation atomic.Pointer[error]
	finished  atomic.Bool
}

func (s *sliceSubscription[T]) Request(n int64) {
	if n <= 0 {
		err := fmt.Errorf("%w: requested %d", ErrNonPositiveRequest, n)
		s.violation.CompareAndSwap(nil, &err)
		s.drain()

		return
	}

	flow.AddCap(&s.requested, n)
	s.drain()
}

func (s *sliceSubscription[T]) Cancel() {
	s.cancelled.Store(true)
}

func (s *sliceSubscription[T]) drain() {
	if s.wip.Add(1) != 1 {
		return
	}

	missed := int32(1)
	for {
		s.drainLoop()

		missed = s.wip.Add(-missed)
		if missed == 0 {
			return
		}
	}
}

func (s *sliceSubscription[T]) drainLoop() {
	if s.cancelled.Load() || s.finished.Load() {
		return
	}

	if errp := s.violation.Load(); errp != nil {
		if s.finished.CompareAndSwap(false, true) {
			s.sub.OnError(*errp)
		}

		return
	}

	req := s.requested.Load()
	emitted := int64(0)

	for emitted < req && s.index < len(s.items) {
		v := s.items[s.index]
		s.index++
		emitted++

		s.sub.OnNext(v)

		if s.cancelled.Load() {
			return
		}
	}

	if emitted > 0 {
		flow.Produced(&s.requested, emitted)
	}

	if s.index == len(s.items) && s.finished.CompareAndSwap(false, true) {
		s.sub.OnComplete()
	}
}
