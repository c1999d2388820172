package groupstream

import "github.com/arloliu/groupstream/types"

// Re-export types from the types subpackage.
//
// This file provides a convenient public API for the library's core
// contracts. It uses type aliases to re-export definitions from the `types`
// subpackage, which internal packages depend on without importing the root
// package (avoiding import cycles), while users can simply write
// `groupstream.Publisher`, `groupstream.Logger`, etc.
type (
	Subscription     = types.Subscription
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
)

// Unbounded is the maximum representable demand; requesting it disables
// backpressure toward the producer.
const Unbounded = types.Unbounded
