package groupstream

// Stats is a point-in-time snapshot of one group-by subscription.
//
// Fields are sampled independently without a global lock, so a snapshot
// taken while the operator is running may be internally skewed. It is meant
// for diagnostics and tests, not for control decisions.
type Stats struct {
	// ActiveGroups is the number of live (non-terminal, non-cancelled) groups.
	ActiveGroups int

	// PendingGroups is the number of newly created groups not yet delivered
	// to the group-level consumer.
	PendingGroups int

	// RequestedGroups is the consumer's outstanding demand for new-group
	// notifications.
	RequestedGroups int64

	// Prefetch is the configured upstream credit watermark.
	Prefetch int64

	// Done reports whether upstream completed normally.
	Done bool

	// Cancelled reports whether the group-level consumer cancelled.
	Cancelled bool

	// Err is the latched terminal error, if any.
	Err error
}

// Introspector exposes diagnostic snapshots of a running group-by
// subscription. The Subscription passed to the group-level consumer's
// OnSubscribe implements it:
//
//	func (s *mySubscriber) OnSubscribe(sub groupstream.Subscription) {
//	    if in, ok := sub.(groupstream.Introspector); ok {
//	        stats := in.Stats()
//	        _ = stats
//	    }
//	    sub.Request(groupstream.Unbounded)
//	}
type Introspector interface {
	Stats() Stats
}

// Stats returns a non-blocking snapshot of the subscription state.
func (c *coordinator[T, K, V]) Stats() Stats {
	var err error
	if f := c.errSlot.Load(); f != nil {
		err = f.err
	}

	return Stats{
		ActiveGroups:    c.groups.Size(),
		PendingGroups:   c.newGroups.Len(),
		RequestedGroups: c.requested.Load(),
		Prefetch:        c.op.cfg.Prefetch,
		Done:            c.done.Load(),
		Cancelled:       c.cancelled.Load(),
		Err:             err,
	}
}
