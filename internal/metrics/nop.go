// Package metrics provides types.MetricsCollector implementations for the
// groupstream operator.
package metrics

import "github.com/arloliu/groupstream/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// GroupMetrics implementation

// RecordGroupCreated discards the group creation event.
func (n *NopMetrics) RecordGroupCreated() {
	// No-op
}

// RecordGroupClosed discards the group close event.
func (n *NopMetrics) RecordGroupClosed(_ /* reason */ string) {
	// No-op
}

// SetActiveGroups discards the active group gauge update.
func (n *NopMetrics) SetActiveGroups(_ /* count */ int) {
	// No-op
}

// RoutingMetrics implementation

// RecordValueRouted discards the routed value event.
func (n *NopMetrics) RecordValueRouted() {
	// No-op
}

// RecordValueDelivered discards the delivered value event.
func (n *NopMetrics) RecordValueDelivered() {
	// No-op
}

// RecordOverflow discards the overflow event.
func (n *NopMetrics) RecordOverflow(_ /* queue */ string) {
	// No-op
}

// DemandMetrics implementation

// RecordUpstreamRequest discards the upstream credit request.
func (n *NopMetrics) RecordUpstreamRequest(_ /* n */ int64) {
	// No-op
}

// RecordDemandRequested discards the downstream demand event.
func (n *NopMetrics) RecordDemandRequested(_ /* scope */ string, _ /* n */ int64) {
	// No-op
}
