package simtime

import "sync/atomic"

// SequenceAllocator hands out the monotonically increasing creation-order
// numbers used to break timestamp ties between Events (spec: "Global
// monotonic event creation id"). The allocator is owned by exactly one
// EventLoop; callers never construct Events directly.
//
// Unlike a random allocator handing out identifiers that must never repeat
// across a long-lived process (see the BFD discriminator allocator this
// type is modeled on), ours must be a strict total order, so a single
// atomic counter serves the purpose without needing a collision-avoidance
// loop or a release path.
type SequenceAllocator struct {
	next atomic.Uint64
}

// NewSequenceAllocator creates an allocator starting at sequence zero.
func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{}
}

// Next returns the next unique sequence number.
func (s *SequenceAllocator) Next() uint64 {
	return s.next.Add(1) - 1
}
