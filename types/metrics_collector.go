package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods may be called from the upstream delivery goroutine and from
// group consumer goroutines concurrently and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	GroupMetrics
	RoutingMetrics
	DemandMetrics
}

// GroupMetrics defines metrics for group lifecycle events.
type GroupMetrics interface {
	// RecordGroupCreated records the discovery of a new key.
	RecordGroupCreated()

	// RecordGroupClosed records a group reaching a terminal, drained state.
	//
	// Parameters:
	//   - reason: Why the group closed ("completed", "errored", "cancelled")
	RecordGroupClosed(reason string)

	// SetActiveGroups sets the current number of live groups (gauge metric).
	SetActiveGroups(count int)
}

// RoutingMetrics defines metrics for element routing and buffering.
type RoutingMetrics interface {
	// RecordValueRouted records one upstream element routed into a group buffer.
	RecordValueRouted()

	// RecordValueDelivered records one buffered value handed to a group consumer.
	RecordValueDelivered()

	// RecordOverflow records a queue rejecting an element.
	//
	// Parameters:
	//   - queue: Which queue overflowed ("group" or "groups")
	RecordOverflow(queue string)
}

// DemandMetrics defines metrics for the credit protocol.
type DemandMetrics interface {
	// RecordUpstreamRequest records credit requested from the upstream source.
	RecordUpstreamRequest(n int64)

	// RecordDemandRequested records demand issued by a downstream consumer.
	//
	// Parameters:
	//   - scope: Demand target ("groups" for the group-level consumer, "group" for a per-key consumer)
	//   - n: Requested credit
	RecordDemandRequested(scope string, n int64)
}
