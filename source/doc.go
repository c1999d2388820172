// Package source provides ready-made demand-driven publishers: in-memory
// sequences for tests and examples, a channel bridge, and a NATS JetStream
// pull-consumer bridge that converts downstream credit into fetch batches.
package source
