package types

import "math"

// Unbounded is the maximum representable demand. Requesting Unbounded from a
// publisher effectively disables backpressure: the publisher may deliver
// elements as fast as it can produce them.
const Unbounded int64 = math.MaxInt64

// Subscription is the control handle a publisher hands to its subscriber.
//
// Demand flows through Request as a cumulative credit counter: each call
// authorizes the publisher to deliver up to n additional elements. Credit
// never expires and saturates at Unbounded.
//
// Both methods must be safe for concurrent use and must never block.
type Subscription interface {
	// Request adds n to the subscriber's outstanding demand.
	//
	// n must be positive. A non-positive n is a protocol violation reported
	// to the calling subscriber as a terminal error; other subscribers of
	// the same operator are not affected.
	Request(n int64)

	// Cancel tears down the subscription. Cancellation is cooperative and
	// terminal: no further OnNext calls are delivered after an in-flight
	// drain pass observes it, and no terminal signal follows.
	Cancel()
}

// Subscriber receives elements and terminal signals from a publisher.
//
// The publisher guarantees OnSubscribe is called exactly once before any
// other method, OnNext calls are never concurrent for the same subscriber,
// and exactly one of OnError or OnComplete terminates the sequence, never
// after cancellation was requested.
type Subscriber[T any] interface {
	// OnSubscribe hands the subscriber its demand/cancellation handle.
	OnSubscribe(sub Subscription)

	// OnNext delivers the next element. Called only while outstanding
	// demand is positive.
	OnNext(value T)

	// OnError signals an abnormal end of the sequence. Terminal.
	OnError(err error)

	// OnComplete signals a normal end of the sequence. Terminal.
	OnComplete()
}

// Publisher is a source of an ordered, possibly infinite, element sequence
// delivered to subscribers under the credit-based demand protocol.
type Publisher[T any] interface {
	Subscribe(sub Subscriber[T])
}

// PullQueue exposes direct, poll-based access to a publisher's internal
// buffer for trusted in-process consumers (the pull fast path).
//
// Poll bypasses demand accounting; upstream credit replenishment still
// happens internally per polled element.
type PullQueue[T any] interface {
	// Poll removes and returns the next buffered element, if any.
	Poll() (T, bool)

	// IsEmpty reports whether the buffer currently holds no elements.
	IsEmpty() bool

	// Clear discards all buffered elements and returns how many were
	// dropped.
	Clear() int
}

// PullCapable is implemented by subscriptions that can negotiate the pull
// fast path. A consumer that supports polling type-asserts its Subscription
// to PullCapable inside OnSubscribe and calls EnablePull.
//
// After a successful EnablePull, OnNext carries the zero value of T and
// serves purely as a data-available wakeup; the consumer drains the returned
// queue directly. Terminal signals still arrive through OnError/OnComplete.
// If EnablePull reports false the consumer must fall back to the push
// protocol.
type PullCapable[T any] interface {
	EnablePull() (PullQueue[T], bool)
}
