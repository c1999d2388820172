// Package queue provides the FIFO buffers used by the group-by operator.
package queue

import "sync"

const minCapacity = 8

// Ring is a growable FIFO ring buffer with an optional capacity limit.
//
// A limit of 0 means the buffer grows without bound (doubling), trading
// memory for liveness. A positive limit makes Offer reject elements once the
// buffer is full; the operator treats that rejection as a fatal overflow.
//
// Ring is safe for one producer and one consumer operating concurrently
// without external locking. Serializing the drain loop itself is the
// caller's responsibility (the "at most one active drain" guard).
type Ring[T any] struct {
	mu     sync.Mutex
	buf    []T
	head   int
	count  int
	limit  int
	closed bool
}

// New creates a ring buffer.
//
// Parameters:
//   - limit: Maximum number of buffered elements, 0 for unbounded growth
//
// Returns:
//   - *Ring[T]: An empty ring buffer
func New[T any](limit int) *Ring[T] {
	initial := minCapacity
	if limit > 0 && limit < initial {
		initial = limit
	}

	return &Ring[T]{
		buf:   make([]T, initial),
		limit: limit,
	}
}

// Offer appends v to the tail of the buffer.
//
// Returns:
//   - bool: false if the buffer is closed or at its capacity limit, true otherwise
func (r *Ring[T]) Offer(v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	if r.limit > 0 && r.count == r.limit {
		return false
	}

	if r.count == len(r.buf) {
		r.grow()
	}

	r.buf[(r.head+r.count)%len(r.buf)] = v
	r.count++

	return true
}

// Poll removes and returns the element at the head of the buffer.
//
// Returns:
//   - T: The removed element, or the zero value when empty
//   - bool: false when the buffer is empty
func (r *Ring[T]) Poll() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	if r.count == 0 {
		return zero, false
	}

	v := r.buf[r.head]
	r.buf[r.head] = zero // release the slot for GC
	r.head = (r.head + 1) % len(r.buf)
	r.count--

	return v, true
}

// IsEmpty reports whether the buffer holds no elements.
func (r *Ring[T]) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.count == 0
}

// Len returns the current number of buffered elements.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.count
}

// Clear discards all buffered elements.
//
// Returns:
//   - int: How many elements were discarded; callers use this to replenish
//     upstream credit for values that will never be delivered
func (r *Ring[T]) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	discarded := r.count

	var zero T
	for i := 0; i < r.count; i++ {
		r.buf[(r.head+i)%len(r.buf)] = zero
	}
	r.head = 0
	r.count = 0

	return discarded
}

// Close discards all buffered elements and permanently rejects further
// offers. Closing wins the race between a producer offering and a consumer
// cancelling: an Offer that loses observes the closed state.
//
// Returns:
//   - int: How many elements were discarded
func (r *Ring[T]) Close() int {
	r.mu.Lock()
	discarded := r.count
	var zero T
	for i := 0; i < r.count; i++ {
		r.buf[(r.head+i)%len(r.buf)] = zero
	}
	r.head = 0
	r.count = 0
	r.closed = true
	r.mu.Unlock()

	return discarded
}

// Closed reports whether the buffer has been closed.
func (r *Ring[T]) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

// grow doubles the backing slice, respecting the capacity limit.
// Caller must hold r.mu.
func (r *Ring[T]) grow() {
	next := len(r.buf) * 2
	if r.limit > 0 && next > r.limit {
		next = r.limit
	}

	buf := make([]T, next)
	for i := 0; i < r.count; i++ {
		buf[i] = r.buf[(r.head+i)%len(r.buf)]
	}

	r.buf = buf
	r.head = 0
}
