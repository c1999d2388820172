// Package testing provides test utilities for the groupstream library.
//
// It follows Go's convention of a dedicated testing-helpers package
// (similar to net/http/httptest).
//
// Key utilities:
//   - Subscriber: A recording subscriber with manual demand control
//   - StartEmbeddedNATS: Single in-process NATS server with JetStream
//   - CreateJetStreamStream: Convenience wrapper for stream creation
//
// Example usage:
//
//	import (
//	    "testing"
//	    gstest "github.com/arloliu/groupstream/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := gstest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
