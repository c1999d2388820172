// Package flow implements the credit arithmetic of the demand protocol.
//
// Demand is a signed 64-bit counter that saturates at types.Unbounded. The
// helpers here are the only places that mutate demand counters, so the
// saturation and floor rules live in exactly one spot.
package flow

import (
	"sync/atomic"

	"github.com/arloliu/groupstream/types"
)

// AddCap atomically adds n credits to requested, saturating at
// types.Unbounded.
//
// Parameters:
//   - requested: The demand counter to update
//   - n: Credits to add (must be positive, validated by callers)
//
// Returns:
//   - int64: The demand value before the addition
func AddCap(requested *atomic.Int64, n int64) int64 {
	for {
		current := requested.Load()
		if current == types.Unbounded {
			return current
		}

		next := current + n
		if next < 0 {
			// signed overflow
			next = types.Unbounded
		}

		if requested.CompareAndSwap(current, next) {
			return current
		}
	}
}

// Produced atomically subtracts n delivered elements from requested.
// Unbounded demand stays unbounded; bounded demand never drops below zero.
//
// Parameters:
//   - requested: The demand counter to update
//   - n: Number of elements delivered
//
// Returns:
//   - int64: The remaining demand after the subtraction
func Produced(requested *atomic.Int64, n int64) int64 {
	for {
		current := requested.Load()
		if current == types.Unbounded {
			return current
		}

		next := current - n
		if next < 0 {
			next = 0
		}

		if requested.CompareAndSwap(current, next) {
			return next
		}
	}
}
