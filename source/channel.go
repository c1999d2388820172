package source

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/arloliu/groupstream/internal/flow"
	"github.com/arloliu/groupstream/types"
)

// FromChannel creates a publisher that emits values received from ch until
// the channel is closed (normal completion) or ctx is done (error
// completion with ctx's cause).
//
// The publisher is single-subscriber: the channel can only be consumed
// once. Values are received from ch only when the subscriber has
// outstanding demand, so backpressure propagates to the channel's senders
// through ordinary channel blocking.
//
// Parameters:
//   - ctx: Bounds the subscription lifetime
//   - ch: Value source, closed by the producer on completion
//
// Returns:
//   - types.Publisher[T]: Demand-driven publisher over ch
func FromChannel[T any](ctx context.Context, ch <-chan T) types.Publisher[T] {
	return &channelPublisher[T]{ctx: ctx, ch: ch}
}

type channelPublisher[T any] struct {
	ctx        context.Context
	ch         <-chan T
	subscribed atomic.Bool
}

func (p *channelPublisher[T]) Subscribe(sub types.Subscriber[T]) {
	if p.subscribed.Swap(true) {
		sub.OnSubscribe(nopSubscription{})
		sub.OnError(ErrAlreadySubscribed)

		return
	}

	s := &channelSubscription[T]{
		ctx:    p.ctx,
		ch:     p.ch,
		sub:    sub,
		demand: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}

	sub.OnSubscribe(s)
	go s.run()
}

type channelSubscription[T any] struct {
	ctx context.Context
	ch  <-chan T
	sub types.Subscriber[T]

	requested atomic.Int64
	demand    chan struct{} // pulsed on Request
	stop      chan struct{}
	stopped   atomic.Bool
}

func (s *channelSubscription[T]) Request(n int64) {
	if n <= 0 {
		if s.stopped.CompareAndSwap(false, true) {
			close(s.stop)
			s.sub.OnError(fmt.Errorf("%w: requested %d", ErrNonPositiveRequest, n))
		}

		return
	}

	flow.AddCap(&s.requested, n)

	select {
	case s.demand <- struct{}{}:
	default:
	}
}

func (s *channelSubscription[T]) Cancel() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stop)
	}
}

func (s *channelSubscription[T]) run() {
	for {
		// Park until the subscriber has outstanding demand.
		for s.requested.Load() == 0 {
			select {
			case <-s.demand:
			case <-s.stop:
				return
			case <-s.ctx.Done():
				s.finish(context.Cause(s.ctx))
				return
			}
		}

		select {
		case v, ok := <-s.ch:
			if !ok {
				s.finish(nil)
				return
			}

			if s.stopped.Load() {
				// Lost the race against Cancel; drop without delivering.
				return
			}

			s.sub.OnNext(v)
			flow.Produced(&s.requested, 1)
		case <-s.stop:
			return
		case <-s.ctx.Done():
			s.finish(context.Cause(s.ctx))
			return
		}
	}
}

func (s *channelSubscription[T]) finish(err error) {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}

	close(s.stop)

	if err != nil {
		s.sub.OnError(err)
	} else {
		s.sub.OnComplete()
	}
}

// nopSubscription ignores all demand; handed to subscribers whose sequence
// terminates during the handshake.
type nopSubscription struct{}

func (nopSubscription) Request(_ int64) {}
func (nopSubscription) Cancel()         {}
