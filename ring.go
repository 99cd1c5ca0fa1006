// Package ringbuffer provides bounded, lock-free ring buffers for moving
// fixed-size elements between producer and consumer goroutines without
// locks, blocking, or allocation after construction. Capacity is fixed at
// creation and must be a power of two; cursors grow unbounded and wrap at
// uint64 width, masked into the slot range only when storage is accessed,
// so occupancy is a plain wrapping subtraction and full never collides
// with empty.
//
// A push against a full ring and a read against an empty ring both report
// a count of zero elements moved. That is the normal outcome of racing
// with a full or empty ring, not an error.
package ringbuffer

import "sync/atomic"

// Core algorithm by Dmitry Vyukov
// https://www.1024cores.net/home/lock-free-algorithms/queues/bounded-mpmc-queue

// Ring is the operation set shared by every buffer variant.
type Ring[T any] interface {
	// PushOne inserts one element.
	// Returns the number of elements accepted (0 or 1).
	PushOne(v T) int
	// ReadOne removes one element.
	// The value is meaningful only when the returned count is 1.
	ReadOne() (T, int)
	// Push inserts elements from vals in order until the ring fills.
	// Returns the number accepted, which may be less than len(vals).
	Push(vals []T) int
	// Read fills dst in order until the ring drains.
	// Returns the number read, which may be less than len(dst).
	Read(dst []T) int
	// Len reports current occupancy. The value is a snapshot and may be
	// stale by the time the caller acts on it.
	Len() uint64
	// Capacity returns the fixed ring capacity.
	Capacity() uint64
}

var (
	_ Ring[int] = (*MPMC[int])(nil)
	_ Ring[int] = (*MPSC[int])(nil)
	_ Ring[int] = (*SPSC[int])(nil)
	_ Ring[int] = (*Counted[int])(nil)
)

type slot[T any] struct {
	seq atomic.Uint64 // sequence number (controls visibility and slot ownership)
	val T             // actual value stored in this slot
}
