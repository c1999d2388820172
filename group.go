package groupstream

import (
	"fmt"
	"sync/atomic"

	"github.com/arloliu/groupstream/internal/flow"
	"github.com/arloliu/groupstream/internal/queue"
	"github.com/arloliu/groupstream/types"
)

// GroupedStream is the sub-sequence of all upstream elements sharing one
// key, exposed as an independently consumable publisher.
//
// A grouped stream is unicast: exactly one subscriber may ever attach, and a
// second attach attempt receives ErrAlreadySubscribed without disturbing the
// first. Values are delivered in upstream arrival order for this key;
// ordering across different groups is not guaranteed once groups are
// consumed on separate goroutines.
//
// The stream's Subscription also implements types.PullCapable, so trusted
// in-process consumers can negotiate the poll-based fast path.
type GroupedStream[K comparable, V any] struct {
	key     K
	ring    *queue.Ring[V]
	parent  groupParent[K]
	logger  types.Logger
	metrics types.MetricsCollector

	actual    atomic.Pointer[subscriberBox[V]]
	requested atomic.Int64
	wip       atomic.Int32

	done       atomic.Bool // upstream terminated or coordinator closed the queue
	errSlot    atomic.Pointer[fault]
	violation  atomic.Pointer[fault]
	cancelled  atomic.Bool
	discarded  atomic.Bool // discard ran (cancel or violation path)
	terminated atomic.Bool // terminal signal delivered to the consumer
	pullMode   atomic.Bool
}

var (
	_ types.Publisher[int]   = (*GroupedStream[string, int])(nil)
	_ types.Subscription     = (*GroupedStream[string, int])(nil)
	_ types.PullCapable[int] = (*GroupedStream[string, int])(nil)
	_ types.PullQueue[int]   = (*groupPullQueue[string, int])(nil)
)

func newGroupedStream[K comparable, V any](
	key K,
	parent groupParent[K],
	buffer int,
	logger types.Logger,
	metrics types.MetricsCollector,
) *GroupedStream[K, V] {
	return &GroupedStream[K, V]{
		key:     key,
		ring:    queue.New[V](buffer),
		parent:  parent,
		logger:  logger,
		metrics: metrics,
	}
}

// Key returns the discriminator value shared by every element of this group.
func (g *GroupedStream[K, V]) Key() K {
	return g.key
}

// Subscribe attaches the single consumer of this group.
//
// The consumer slot is claimed with an atomic compare-and-set from absent;
// the loser of a racing double attach receives ErrAlreadySubscribed as its
// terminal signal. If the group is already terminal, the consumer receives
// the buffered remainder (as demand permits) followed by the terminal
// signal; buffered values are never lost to late subscription.
func (g *GroupedStream[K, V]) Subscribe(sub types.Subscriber[V]) {
	if !g.actual.CompareAndSwap(nil, &subscriberBox[V]{sub: sub}) {
		subscribeError(sub, ErrAlreadySubscribed)
		return
	}

	sub.OnSubscribe(g)
	g.drain()
}

// Request adds n to the consumer's outstanding demand.
//
// A non-positive n is a protocol violation reported to this group's
// consumer only: the buffer is discarded and the consumer receives
// ErrNonPositiveRequest; other groups are unaffected. Requesting after the
// group is terminal and drained is a no-op.
func (g *GroupedStream[K, V]) Request(n int64) {
	if n <= 0 {
		g.violation.CompareAndSwap(nil, &fault{err: fmt.Errorf("%w: requested %d", ErrNonPositiveRequest, n)})
		g.cancelled.Store(true)
		g.drain()

		return
	}

	flow.AddCap(&g.requested, n)
	g.metrics.RecordDemandRequested("group", n)
	g.drain()
}

// Cancel detaches the consumer, discarding any undelivered buffered values.
// It never blocks and is safe to call concurrently with an in-flight drain:
// the drain pass that observes the flag performs the discard.
func (g *GroupedStream[K, V]) Cancel() {
	if g.cancelled.Swap(true) {
		return
	}

	g.drain()
}

// EnablePull negotiates the poll-based fast path (types.PullCapable).
//
// Only an attached consumer may enable pull mode. Afterwards OnNext carries
// the zero value as a data-available wakeup and the consumer drains the
// returned queue directly; terminal signals still arrive via
// OnError/OnComplete once the queue is empty.
func (g *GroupedStream[K, V]) EnablePull() (types.PullQueue[V], bool) {
	if g.actual.Load() == nil || g.terminated.Load() {
		return nil, false
	}

	g.pullMode.Store(true)

	return &groupPullQueue[K, V]{g: g}, true
}

// GroupStats is a read-only snapshot of one group's internal state.
type GroupStats struct {
	// Buffered is the number of values awaiting delivery.
	Buffered int

	// Requested is the consumer's outstanding demand.
	Requested int64

	// Terminal reports whether the group has reached a terminal state.
	Terminal bool

	// Err is the latched terminal error, if any.
	Err error
}

// Stats returns a non-blocking snapshot of the group's buffered count,
// outstanding demand, and terminal state.
func (g *GroupedStream[K, V]) Stats() GroupStats {
	var err error
	if f := g.errSlot.Load(); f != nil {
		err = f.err
	}

	return GroupStats{
		Buffered:  g.ring.Len(),
		Requested: g.requested.Load(),
		Terminal:  g.done.Load() || err != nil || g.cancelled.Load(),
		Err:       err,
	}
}

// offer enqueues an upstream value for this group.
//
// Returns:
//   - bool: false on a genuine overflow (fatal for the whole operator);
//     values racing a consumer cancellation are dropped with their upstream
//     credit replenished and report success
func (g *GroupedStream[K, V]) offer(v V) bool {
	if !g.ring.Offer(v) {
		if g.ring.Closed() {
			// Lost the race against Cancel; the element is discarded, so
			// hand its credit back to keep upstream flowing.
			g.parent.replenish(1)
			return true
		}

		return false
	}

	g.metrics.RecordValueRouted()
	g.drain()

	return true
}

// terminate moves the group into a terminal state. A nil err marks normal
// completion; buffered values remain drainable either way, with the
// terminal signal following the last buffered value.
func (g *GroupedStream[K, V]) terminate(err error) {
	if err != nil {
		g.errSlot.CompareAndSwap(nil, &fault{err: err})
	} else {
		g.done.Store(true)
	}

	g.drain()
}

// drain is the serialized entry to the drain loop: the caller that
// transitions the guard 0 to 1 runs the loop, every other concurrent caller
// folds its trigger into the winner's re-check pass.
func (g *GroupedStream[K, V]) drain() {
	if g.wip.Add(1) != 1 {
		return
	}

	missed := int32(1)
	for {
		g.drainLoop()

		missed = g.wip.Add(-missed)
		if missed == 0 {
			return
		}
	}
}

func (g *GroupedStream[K, V]) drainLoop() {
	if g.cancelled.Load() {
		g.discard()
		return
	}

	box := g.actual.Load()
	if box == nil {
		// No consumer yet; values keep buffering.
		return
	}

	if g.pullMode.Load() {
		g.drainPull(box.sub)
		return
	}

	req := g.requested.Load()
	delivered := int64(0)

	for delivered < req {
		v, ok := g.ring.Poll()
		if !ok {
			break
		}

		box.sub.OnNext(v)
		g.metrics.RecordValueDelivered()
		delivered++

		if g.cancelled.Load() {
			break
		}
	}

	if delivered > 0 {
		flow.Produced(&g.requested, delivered)
		g.parent.replenish(delivered)
	}

	g.checkTerminal(box.sub)
}

// drainPull signals the pull-mode consumer. Data availability is a zero
// value OnNext wakeup; the consumer polls the queue directly.
func (g *GroupedStream[K, V]) drainPull(sub types.Subscriber[V]) {
	if !g.ring.IsEmpty() {
		var zero V
		sub.OnNext(zero)
	}

	g.checkTerminal(sub)
}

// checkTerminal delivers the terminal signal once the buffer is fully
// drained. The error slot wins over normal completion.
func (g *GroupedStream[K, V]) checkTerminal(sub types.Subscriber[V]) {
	if !g.ring.IsEmpty() {
		return
	}

	if f := g.errSlot.Load(); f != nil {
		if g.terminated.CompareAndSwap(false, true) {
			sub.OnError(f.err)
			g.parent.groupFinalized(g.key, "errored")
		}

		return
	}

	if g.done.Load() {
		if g.terminated.CompareAndSwap(false, true) {
			sub.OnComplete()
			g.parent.groupFinalized(g.key, "completed")
		}
	}
}

// discard tears the group down after cancellation or a demand-protocol
// violation: close the queue, hand discarded credit back upstream, and
// deliver the violation error to the offending consumer if there was one.
func (g *GroupedStream[K, V]) discard() {
	if g.discarded.Swap(true) {
		return
	}

	dropped := g.ring.Close()

	if f := g.violation.Load(); f != nil && g.terminated.CompareAndSwap(false, true) {
		if box := g.actual.Load(); box != nil {
			box.sub.OnError(f.err)
		}
	} else {
		g.terminated.Store(true)
	}

	g.parent.groupCancelled(g.key, int64(dropped))
}

// groupPullQueue adapts the group's ring buffer to types.PullQueue,
// keeping upstream credit replenishment intact per polled element.
type groupPullQueue[K comparable, V any] struct {
	g *GroupedStream[K, V]
}

func (q *groupPullQueue[K, V]) Poll() (V, bool) {
	v, ok := q.g.ring.Poll()
	if !ok {
		return v, false
	}

	q.g.metrics.RecordValueDelivered()
	q.g.parent.replenish(1)

	if q.g.ring.IsEmpty() && (q.g.done.Load() || q.g.errSlot.Load() != nil) {
		// The consumer just drained the last value of a terminal group;
		// schedule the terminal signal.
		q.g.drain()
	}

	return v, true
}

func (q *groupPullQueue[K, V]) IsEmpty() bool {
	return q.g.ring.IsEmpty()
}

func (q *groupPullQueue[K, V]) Clear() int {
	dropped := q.g.ring.Clear()
	if dropped > 0 {
		q.g.parent.replenish(int64(dropped))
	}

	return dropped
}
