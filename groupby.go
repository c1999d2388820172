package groupstream

import (
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/groupstream/internal/flow"
	"github.com/arloliu/groupstream/internal/logging"
	"github.com/arloliu/groupstream/internal/metrics"
	"github.com/arloliu/groupstream/internal/queue"
	"github.com/arloliu/groupstream/types"
)

// KeySelector derives the routing key for an upstream element. Returning an
// error is the "no key" signal: it is a contract fault that terminates the
// whole operator immediately.
type KeySelector[T any, K comparable] func(elem T) (K, error)

// ValueSelector derives the delivered value for an upstream element.
// Returning an error is treated exactly like a key-selector fault.
type ValueSelector[T any, V any] func(elem T) (V, error)

// GroupBy creates a group-by operator that partitions the source sequence
// by key, delivering each element unchanged to its group.
//
// Parameters:
//   - source: Upstream publisher, subscribed exactly once per Subscribe
//   - keySelector: Derives the routing key per element
//   - opts: Optional configuration, logger, and metrics
//
// Returns:
//   - *Operator[T, K, T]: Publisher of grouped streams
//   - error: Non-nil when source or selector is missing, or the
//     configuration is invalid
//
// Example:
//
//	op, err := groupstream.GroupBy(source.Range(1, 10), func(v int) (int, error) {
//	    return v % 2, nil
//	})
func GroupBy[T any, K comparable](source types.Publisher[T], keySelector KeySelector[T, K], opts ...Option) (*Operator[T, K, T], error) {
	return GroupByValues(source, keySelector, func(elem T) (T, error) { return elem, nil }, opts...)
}

// GroupByValues creates a group-by operator with an explicit value selector
// mapping each element to the value delivered inside its group.
//
// Parameters:
//   - source: Upstream publisher, subscribed exactly once per Subscribe
//   - keySelector: Derives the routing key per element
//   - valueSelector: Derives the delivered value per element
//   - opts: Optional configuration, logger, and metrics
//
// Returns:
//   - *Operator[T, K, V]: Publisher of grouped streams
//   - error: Non-nil when an argument is missing or the configuration is invalid
func GroupByValues[T any, K comparable, V any](
	source types.Publisher[T],
	keySelector KeySelector[T, K],
	valueSelector ValueSelector[T, V],
	opts ...Option,
) (*Operator[T, K, V], error) {
	if source == nil {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidConfig)
	}
	if keySelector == nil {
		return nil, fmt.Errorf("%w: key selector is required", ErrInvalidConfig)
	}
	if valueSelector == nil {
		return nil, fmt.Errorf("%w: value selector is required", ErrInvalidConfig)
	}

	options := operatorOptions{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&options)
	}

	SetDefaults(&options.config)
	if err := options.config.Validate(); err != nil {
		return nil, err
	}

	if options.logger == nil {
		options.logger = logging.NewNop()
	}
	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}

	return &Operator[T, K, V]{
		source:        source,
		keySelector:   keySelector,
		valueSelector: valueSelector,
		cfg:           options.config,
		logger:        options.logger,
		metrics:       options.metrics,
	}, nil
}

// Operator is the group-by publisher: it partitions one upstream sequence
// into per-key grouped streams and publishes each group, on first occurrence
// of its key, to a single group-level subscriber.
type Operator[T any, K comparable, V any] struct {
	source        types.Publisher[T]
	keySelector   KeySelector[T, K]
	valueSelector ValueSelector[T, V]
	cfg           Config
	logger        types.Logger
	metrics       types.MetricsCollector

	subscribed atomic.Bool
}

// Subscribe attaches the group-level consumer and subscribes upstream.
//
// The operator is unicast at the group level: a second subscriber receives
// ErrAlreadySubscribed. The consumer's Subscription can be type-asserted to
// Introspector for diagnostic snapshots.
func (o *Operator[T, K, V]) Subscribe(sub types.Subscriber[*GroupedStream[K, V]]) {
	if o.subscribed.Swap(true) {
		subscribeError(sub, ErrAlreadySubscribed)
		return
	}

	o.source.Subscribe(newCoordinator(o, sub))
}

// coordinator is the central state machine behind one subscription: it is
// the upstream's subscriber and, at the same time, the group-level
// consumer's subscription.
//
// Lifecycle: unsubscribed -> active -> completed | errored | cancelled. All
// three terminal states are absorbing; reentry is a no-op guarded by the
// done/error/cancelled flags.
type coordinator[T any, K comparable, V any] struct {
	op     *Operator[T, K, V]
	actual types.Subscriber[*GroupedStream[K, V]]

	// groups maps each live key to its channel; consumer cancellations
	// remove entries from goroutines other than the upstream's, hence the
	// concurrent map. First-seen order lives in newGroups, not here.
	groups    *xsync.MapOf[K, *GroupedStream[K, V]]
	newGroups *queue.Ring[*GroupedStream[K, V]]

	upstream   types.Subscription
	upstreamOk atomic.Bool

	requested atomic.Int64 // group-level demand for new-group notifications
	wip       atomic.Int32

	errSlot    atomic.Pointer[fault]
	violation  atomic.Pointer[fault]
	done       atomic.Bool
	cancelled  atomic.Bool
	terminated atomic.Bool // terminal signal delivered to the group-level consumer
}

var (
	_ types.Subscriber[int] = (*coordinator[int, string, int])(nil)
	_ types.Subscription    = (*coordinator[int, string, int])(nil)
)

func newCoordinator[T any, K comparable, V any](op *Operator[T, K, V], actual types.Subscriber[*GroupedStream[K, V]]) *coordinator[T, K, V] {
	return &coordinator[T, K, V]{
		op:        op,
		actual:    actual,
		groups:    xsync.NewMapOf[K, *GroupedStream[K, V]](),
		newGroups: queue.New[*GroupedStream[K, V]](op.cfg.NewGroupBuffer),
	}
}

// OnSubscribe completes the handshake with upstream: hand the group-level
// consumer its subscription first, then request the initial prefetch
// credit. An unbounded prefetch requests the maximum representable demand,
// disabling backpressure toward upstream.
func (c *coordinator[T, K, V]) OnSubscribe(s types.Subscription) {
	if c.upstreamOk.Swap(true) {
		// Upstream violated the single-subscription contract.
		s.Cancel()
		return
	}

	c.upstream = s
	c.actual.OnSubscribe(c)

	if c.cancelled.Load() {
		// Consumer cancelled from within OnSubscribe.
		s.Cancel()
		return
	}

	c.op.metrics.RecordUpstreamRequest(c.op.cfg.Prefetch)
	s.Request(c.op.cfg.Prefetch)
}

// OnNext routes one upstream element: derive key and value, create the
// group channel on first key occurrence, then buffer the value.
func (c *coordinator[T, K, V]) OnNext(elem T) {
	if c.done.Load() || c.errSlot.Load() != nil {
		c.op.logger.Debug("element dropped after terminal state")
		return
	}

	key, err := c.applyKeySelector(elem)
	if err != nil {
		c.fault(err, true)
		return
	}

	value, err := c.applyValueSelector(elem)
	if err != nil {
		c.fault(err, true)
		return
	}

	g, ok := c.groups.Load(key)
	if !ok {
		if c.cancelled.Load() {
			// No new groups after the group-level consumer cancelled.
			return
		}

		g = newGroupedStream[K, V](key, c, c.op.cfg.GroupBuffer, c.op.logger, c.op.metrics)
		c.groups.Store(key, g)
		c.op.metrics.RecordGroupCreated()
		c.op.metrics.SetActiveGroups(c.groups.Size())
		c.op.logger.Debug("group created", "key", key)

		if !g.offer(value) {
			c.overflow("group", key)
			return
		}

		if !c.newGroups.Offer(g) {
			c.op.metrics.RecordOverflow("groups")
			c.fault(fmt.Errorf("%w: %d undelivered groups", ErrNewGroupOverflow, c.op.cfg.NewGroupBuffer), true)

			return
		}

		c.drain()

		return
	}

	if !g.offer(value) {
		c.overflow("group", key)
	}
}

// OnError latches the upstream failure and propagates it to the group-level
// consumer and every live group.
func (c *coordinator[T, K, V]) OnError(err error) {
	c.fault(err, false)
}

// OnComplete marks every live group terminal in the same pass; the
// group-level consumer sees completion once the new-group queue drains.
func (c *coordinator[T, K, V]) OnComplete() {
	if c.errSlot.Load() != nil || c.done.Swap(true) {
		return
	}

	c.groups.Range(func(_ K, g *GroupedStream[K, V]) bool {
		g.terminate(nil)
		return true
	})

	c.drain()
}

// Request adds group-level demand for new-group notifications.
//
// Upstream credit is deliberately not coupled to this demand: a slow
// consumer of the stream of groups must not starve already-open groups of
// upstream data.
func (c *coordinator[T, K, V]) Request(n int64) {
	if n <= 0 {
		c.violation.CompareAndSwap(nil, &fault{err: fmt.Errorf("%w: requested %d", ErrNonPositiveRequest, n)})
		c.drain()

		return
	}

	flow.AddCap(&c.requested, n)
	c.op.metrics.RecordDemandRequested("groups", n)
	c.drain()
}

// Cancel tears down the group-level subscription: upstream is cancelled,
// undelivered new-group notifications are discarded, and already-delivered
// groups keep draining what they buffered before completing.
func (c *coordinator[T, K, V]) Cancel() {
	if c.cancelled.Swap(true) {
		return
	}

	c.op.logger.Debug("group-level consumer cancelled")

	if c.upstreamOk.Load() {
		c.upstream.Cancel()
	}

	c.groups.Range(func(_ K, g *GroupedStream[K, V]) bool {
		g.terminate(nil)
		return true
	})

	c.drain()
}

func (c *coordinator[T, K, V]) applyKeySelector(elem T) (key K, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrKeySelector, r)
		}
	}()

	key, err = c.op.keySelector(elem)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrKeySelector, err)
	}

	return key, err
}

func (c *coordinator[T, K, V]) applyValueSelector(elem T) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrValueSelector, r)
		}
	}()

	value, err = c.op.valueSelector(elem)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrValueSelector, err)
	}

	return value, err
}

// overflow converts a queue rejection into the fatal fault that terminates
// the whole operator: a stuck group means the demand contract upstream of
// its consumer is broken, and this operator performs no retries.
func (c *coordinator[T, K, V]) overflow(queueKind string, key K) {
	c.op.metrics.RecordOverflow(queueKind)
	c.fault(fmt.Errorf("%w: key %v", ErrGroupOverflow, key), true)
}

// fault latches err as the single terminal error (first write wins),
// optionally cancels upstream, and terminates every live group.
func (c *coordinator[T, K, V]) fault(err error, cancelUpstream bool) {
	if !c.errSlot.CompareAndSwap(nil, &fault{err: err}) {
		c.op.logger.Debug("error dropped, terminal error already latched", "error", err)
		return
	}

	c.op.logger.Error("group-by terminated", "error", err)

	if cancelUpstream && c.upstreamOk.Load() {
		c.upstream.Cancel()
	}

	c.groups.Range(func(_ K, g *GroupedStream[K, V]) bool {
		g.terminate(err)
		return true
	})

	c.drain()
}

// replenish requests n more elements from upstream. Replenishment is driven
// purely by consumption of already-delivered elements, keeping the
// coordinator's outstanding credit at or below the prefetch watermark.
func (c *coordinator[T, K, V]) replenish(n int64) {
	if n <= 0 || c.op.cfg.Prefetch == types.Unbounded {
		return
	}

	if c.done.Load() || c.cancelled.Load() || c.errSlot.Load() != nil {
		return
	}

	c.op.metrics.RecordUpstreamRequest(n)
	c.upstream.Request(n)
}

func (c *coordinator[T, K, V]) groupCancelled(key K, discarded int64) {
	if _, ok := c.groups.LoadAndDelete(key); ok {
		c.op.metrics.RecordGroupClosed("cancelled")
		c.op.metrics.SetActiveGroups(c.groups.Size())
		c.op.logger.Debug("group cancelled", "key", key, "discarded", discarded)
	}

	if discarded > 0 {
		c.replenish(discarded)
	}
}

func (c *coordinator[T, K, V]) groupFinalized(key K, reason string) {
	if _, ok := c.groups.LoadAndDelete(key); ok {
		c.op.metrics.RecordGroupClosed(reason)
		c.op.metrics.SetActiveGroups(c.groups.Size())
		c.op.logger.Debug("group closed", "key", key, "reason", reason)
	}
}

// drain serializes the delivery of new-group notifications: the caller that
// transitions the guard 0 to 1 runs the loop, concurrent triggers fold into
// the winner's re-check pass.
func (c *coordinator[T, K, V]) drain() {
	if c.wip.Add(1) != 1 {
		return
	}

	missed := int32(1)
	for {
		c.drainLoop()

		missed = c.wip.Add(-missed)
		if missed == 0 {
			return
		}
	}
}

func (c *coordinator[T, K, V]) drainLoop() {
	if c.cancelled.Load() {
		c.discardPendingGroups()
		return
	}

	if f := c.violation.Load(); f != nil {
		c.discardPendingGroups()

		if c.terminated.CompareAndSwap(false, true) {
			c.actual.OnError(f.err)
		}

		return
	}

	req := c.requested.Load()
	delivered := int64(0)

	for delivered < req {
		g, ok := c.newGroups.Poll()
		if !ok {
			break
		}

		c.actual.OnNext(g)
		delivered++

		if c.cancelled.Load() {
			break
		}
	}

	if delivered > 0 {
		flow.Produced(&c.requested, delivered)
	}

	if f := c.errSlot.Load(); f != nil {
		c.discardPendingGroups()

		if c.terminated.CompareAndSwap(false, true) {
			c.actual.OnError(f.err)
		}

		return
	}

	if c.done.Load() && c.newGroups.IsEmpty() {
		if c.terminated.CompareAndSwap(false, true) {
			c.actual.OnComplete()
		}
	}
}

// discardPendingGroups drops new-group notifications that will never reach
// the consumer. Each undelivered group is cancelled so its buffered values
// are discarded and, when upstream is still live, their credit replenished.
func (c *coordinator[T, K, V]) discardPendingGroups() {
	for {
		g, ok := c.newGroups.Poll()
		if !ok {
			return
		}

		g.Cancel()
	}
}
