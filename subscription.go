package groupstream

import "github.com/arloliu/groupstream/types"

// fault boxes a terminal error so it can live behind an atomic pointer with
// first-write-wins semantics.
type fault struct {
	err error
}

// subscriberBox wraps a subscriber so the unicast owner slot can be a single
// atomic compare-and-set from nil.
type subscriberBox[T any] struct {
	sub types.Subscriber[T]
}

// deadSubscription accepts and ignores all demand. Handed to subscribers
// whose sequence terminates before it can produce anything.
type deadSubscription struct{}

func (deadSubscription) Request(_ int64) {}
func (deadSubscription) Cancel()         {}

// subscribeError completes the protocol handshake for a subscriber whose
// sequence fails immediately: OnSubscribe with an inert subscription, then
// the terminal error.
func subscribeError[T any](sub types.Subscriber[T], err error) {
	sub.OnSubscribe(deadSubscription{})
	sub.OnError(err)
}

// groupParent is the coordinator surface a group channel calls back into.
// It is an interface so the group channel does not need the coordinator's
// element type parameter.
type groupParent[K comparable] interface {
	// replenish requests n more elements from upstream. Driven purely by
	// consumption (delivery or discard) of already-received elements.
	replenish(n int64)

	// groupCancelled removes a consumer-cancelled group from the key map
	// and replenishes credit for its discarded buffer.
	groupCancelled(key K, discarded int64)

	// groupFinalized removes a terminal, fully drained group from the key
	// map.
	groupFinalized(key K, reason string)
}
