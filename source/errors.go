package source

import "errors"

var (
	// ErrNonPositiveRequest is delivered to a subscriber that requested zero
	// or negative demand.
	ErrNonPositiveRequest = errors.New("non-positive demand requested")

	// ErrAlreadySubscribed is delivered to a second subscriber of a
	// single-subscriber source.
	ErrAlreadySubscribed = errors.New("source already has a subscriber")
)
