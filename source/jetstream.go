package source

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/groupstream/internal/flow"
	"github.com/arloliu/groupstream/internal/logging"
	"github.com/arloliu/groupstream/types"
)

const (
	defaultFetchBatch   = 64
	defaultFetchMaxWait = 5 * time.Second
)

// JetStreamOption configures the JetStream publisher.
type JetStreamOption func(*jetStreamOptions)

type jetStreamOptions struct {
	fetchBatch   int
	fetchMaxWait time.Duration
	logger       types.Logger
}

// WithFetchBatch caps how many messages one pull fetch may request.
// Outstanding subscriber demand above the cap is served by further fetches.
func WithFetchBatch(n int) JetStreamOption {
	return func(o *jetStreamOptions) {
		if n > 0 {
			o.fetchBatch = n
		}
	}
}

// WithFetchMaxWait bounds how long a pull fetch waits for messages before
// returning a short batch.
func WithFetchMaxWait(d time.Duration) JetStreamOption {
	return func(o *jetStreamOptions) {
		if d > 0 {
			o.fetchMaxWait = d
		}
	}
}

// WithJetStreamLogger sets the logger for the fetch loop.
func WithJetStreamLogger(logger types.Logger) JetStreamOption {
	return func(o *jetStreamOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewJetStream creates a publisher backed by a JetStream pull consumer.
//
// Subscriber demand is converted directly into pull fetches: the loop never
// requests more messages than the subscriber asked for, so JetStream's
// redelivery machinery only ever sees credit the downstream can absorb.
// Messages are delivered unacknowledged; acking is the subscriber's
// responsibility. Messages fetched but undelivered at cancellation are
// negatively acknowledged for redelivery.
//
// The publisher is single-subscriber and terminates with the fetch error if
// the consumer becomes unusable, or completes when ctx is done.
//
// Parameters:
//   - ctx: Bounds the subscription lifetime
//   - consumer: JetStream pull consumer to fetch from
//   - opts: Optional fetch tuning and logging
//
// Returns:
//   - types.Publisher[jetstream.Msg]: Demand-driven publisher of messages
//
// Example:
//
//	cons, _ := js.Consumer(ctx, "EVENTS", "worker")
//	src := source.NewJetStream(ctx, cons, source.WithFetchBatch(128))
//	op, err := groupstream.GroupBy(src, func(m jetstream.Msg) (string, error) {
//	    return m.Subject(), nil
//	})
func NewJetStream(ctx context.Context, consumer jetstream.Consumer, opts ...JetStreamOption) types.Publisher[jetstream.Msg] {
	options := jetStreamOptions{
		fetchBatch:   defaultFetchBatch,
		fetchMaxWait: defaultFetchMaxWait,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &jetStreamPublisher{ctx: ctx, consumer: consumer, opts: options}
}

type jetStreamPublisher struct {
	ctx        context.Context
	consumer   jetstream.Consumer
	opts       jetStreamOptions
	subscribed atomic.Bool
}

func (p *jetStreamPublisher) Subscribe(sub types.Subscriber[jetstream.Msg]) {
	if p.subscribed.Swap(true) {
		sub.OnSubscribe(nopSubscription{})
		sub.OnError(ErrAlreadySubscribed)

		return
	}

	s := &jetStreamSubscription{
		ctx:      p.ctx,
		consumer: p.consumer,
		sub:      sub,
		opts:     p.opts,
		demand:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}

	sub.OnSubscribe(s)
	go s.run()
}

type jetStreamSubscription struct {
	ctx      context.Context
	consumer jetstream.Consumer
	sub      types.Subscriber[jetstream.Msg]
	opts     jetStreamOptions

	requested atomic.Int64
	demand    chan struct{}
	stop      chan struct{}
	stopped   atomic.Bool
}

func (s *jetStreamSubscription) Request(n int64) {
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

func (s *jetStreamSubscription) Cancel() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stop)
	}
}

func (s *jetStreamSubscription) run() {
	for {
		for s.requested.Load() == 0 {
			select {
			case <-s.demand:
			case <-s.stop:
				return
			case <-s.ctx.Done():
				s.finish(nil)
				return
			}
		}

		if !s.fetchOnce() {
			return
		}
	}
}

// fetchOnce issues one pull fetch sized to the outstanding demand and
// delivers its messages. Returns false when the subscription is over.
func (s *jetStreamSubscription) fetchOnce() bool {
	batch := s.requested.Load()
	if batch > int64(s.opts.fetchBatch) {
		batch = int64(s.opts.fetchBatch)
	}

	msgs, err := s.consumer.Fetch(int(batch), jetstream.FetchMaxWait(s.opts.fetchMaxWait))
	if err != nil {
		s.finish(fmt.Errorf("jetstream fetch failed: %w", err))
		return false
	}

	for msg := range msgs.Messages() {
		if s.stopped.Load() {
			// Hand the message back for redelivery.
			if nakErr := msg.Nak(); nakErr != nil {
				s.opts.logger.Warn("nak failed for undelivered message", "error", nakErr)
			}

			continue
		}

		s.sub.OnNext(msg)
		flow.Produced(&s.requested, 1)
	}

	if err := msgs.Error(); err != nil && !errors.Is(err, jetstream.ErrNoMessages) {
		s.finish(fmt.Errorf("jetstream fetch failed: %w", err))
		return false
	}

	select {
	case <-s.stop:
		return false
	case <-s.ctx.Done():
		s.finish(nil)
		return false
	default:
		return true
	}
}

func (s *jetStreamSubscription) finish(err error) {
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
