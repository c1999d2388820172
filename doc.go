// Package groupstream provides a demand-driven group-by operator: it
// partitions one upstream sequence into per-key sub-streams, each
// independently consumable under its own backpressure.
//
// # Overview
//
// A group-by subscription runs a three-party protocol:
//
//   - The upstream publisher produces elements under a bounded credit window
//     (the prefetch). The operator replenishes credit as values are consumed
//     or discarded, never merely buffered.
//   - The group-level consumer receives each GroupedStream once, on the
//     first occurrence of its key, paced by its own demand.
//   - Each group's consumer receives that key's values in upstream arrival
//     order, paced by per-group demand.
//
// Group-level demand and upstream credit are deliberately decoupled: a slow
// consumer of the stream of groups cannot starve already-open groups of
// data.
//
// # Quick Start
//
//	op, err := groupstream.GroupBy(
//	    source.FromSlice(words),
//	    func(w string) (string, error) { return w[:1], nil },
//	    groupstream.WithConfig(groupstream.Config{Prefetch: 64}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	op.Subscribe(mySubscriber) // receives *GroupedStream[string, string]
//
// Each delivered group must be subscribed (or cancelled) promptly: an
// unconsumed group buffers values and, with bounded buffers configured,
// eventually stalls the whole pipeline with ErrGroupOverflow.
//
// # Lifecycle
//
// Upstream completion or failure terminates every group after its buffered
// values drain. Cancelling the group-level subscription cancels upstream,
// drops undelivered groups, and completes delivered ones after their
// buffers drain. Cancelling a single group discards its buffer, replenishes
// the credit, and frees the key for a fresh group on recurrence.
package groupstream
