// Package types defines the public contracts shared across the groupstream
// library: the credit-based pull-stream protocol (Publisher, Subscriber,
// Subscription), the pull fast-path extensions, and the pluggable Logger and
// MetricsCollector interfaces.
//
// Keeping these interfaces in a dedicated package allows implementations in
// internal packages and user code to depend on them without importing the
// operator itself.
package types
