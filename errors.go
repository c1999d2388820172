package groupstream

import "errors"

// Sentinel errors returned by the group-by operator.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrKeySelector wraps a key-selector failure. A selector failure is
	// fatal: the whole operator terminates and no part of the offending
	// element is delivered.
	ErrKeySelector = errors.New("key selector failed")

	// ErrValueSelector wraps a value-selector failure. Treated identically
	// to a key-selector failure.
	ErrValueSelector = errors.New("value selector failed")

	// ErrAlreadySubscribed is delivered to a second subscriber attaching to
	// a unicast sequence. The first subscriber is not disturbed.
	ErrAlreadySubscribed = errors.New("sequence allows only one subscriber")

	// ErrNonPositiveRequest is delivered to a subscriber that requested
	// demand with a non-positive value. Other live consumers are not
	// affected.
	ErrNonPositiveRequest = errors.New("request must be positive")

	// ErrGroupOverflow is returned when a per-group value queue rejects an
	// element. Fatal: an overflowing group indicates a broken demand
	// contract, so the whole operator terminates.
	ErrGroupOverflow = errors.New("group value queue overflow")

	// ErrNewGroupOverflow is returned when too many newly discovered groups
	// are awaiting delivery to the group-level consumer. Fatal.
	ErrNewGroupOverflow = errors.New("new-group queue overflow")
)
