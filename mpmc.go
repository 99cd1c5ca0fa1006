package ringbuffer

import (
	"runtime"
	"sync/atomic"
)

// MPMC is a bounded lock-free ring buffer safe for any number of
// concurrent producer and consumer goroutines. A full ring rejects the
// push (count 0) rather than overwriting: overwrite would corrupt a slot
// another consumer may be draining at that moment.
type MPMC[T any] struct {
	// Optional padding to avoid false sharing between hot fields.
	_        [64]byte
	mask     uint64
	capacity uint64
	slots    []slot[T]
	_        [64]byte
	enqueue  atomic.Uint64 // logical write cursor (producers)
	_        [64]byte
	dequeue  atomic.Uint64 // logical read cursor (consumers)
	_        [64]byte
}

const goschedEvery = 64 // reduce runtime.Gosched() frequency in hot loops

// NewMPMC creates a bounded MPMC ring buffer.
// 'capacity' must be a power of two (1<<k).
func NewMPMC[T any](capacity uint64) *MPMC[T] {
	if capacity == 0 || (capacity&(capacity-1)) != 0 {
		panic("capacity must be power of 2 and > 0")
	}

	slots := make([]slot[T], capacity)
	for i := uint64(0); i < capacity; i++ {
		// initial sequence for each slot matches its index
		slots[i].seq.Store(i)
	}

	return &MPMC[T]{
		mask:     capacity - 1,
		capacity: capacity,
		slots:    slots,
	}
}

// PushOne inserts one element.
// Returns the number of elements accepted: 0 when the ring is full
// (nothing is written, nothing is overwritten), 1 otherwise.
// Safe to call concurrently from many producer goroutines.
func (q *MPMC[T]) PushOne(v T) int {
	var spins uint32
	for {
		pos := q.enqueue.Load()
		s := &q.slots[pos&q.mask]

		seq := s.seq.Load()
		diff := int64(seq) - int64(pos)

		if diff == 0 {
			// Slot is free for this position, try to claim it.
			if q.enqueue.CompareAndSwap(pos, pos+1) {
				// We won this slot.
				s.val = v
				// Publish the value: seq = pos+1.
				// The slot store above is ordered before this store, so a
				// consumer observing the new sequence also observes v.
				s.seq.Store(pos + 1)
				return 1
			}
			spins++
			if spins%goschedEvery == 0 {
				runtime.Gosched()
			}
		} else if diff < 0 {
			// diff < 0 => consumer has not yet freed this slot.
			// Ring is full for this producer.
			return 0
		} else {
			// diff > 0 => this slot still belongs to a previous cycle.
			// Just retry with a new pos.
			spins++
			if spins%goschedEvery == 0 {
				runtime.Gosched()
			}
		}
	}
}

// ReadOne removes the oldest element.
// Returns (zero, 0) when the ring is empty; the value is meaningful only
// when the returned count is 1.
// Safe to call concurrently from many consumer goroutines.
func (q *MPMC[T]) ReadOne() (T, int) {
	var zero T
	var spins uint32
	for {
		pos := q.dequeue.Load()
		s := &q.slots[pos&q.mask]

		seq := s.seq.Load()
		diff := int64(seq) - int64(pos+1)

		if diff == 0 {
			// Element is ready for this position, try to claim it.
			if !q.dequeue.CompareAndSwap(pos, pos+1) {
				// Another consumer won this slot, retry.
				// The slot is read only after our own claim succeeds,
				// never before: a pre-claim read could return a value
				// concurrently taken by the winner.
				spins++
				if spins%goschedEvery == 0 {
					runtime.Gosched()
				}
				continue
			}

			// We successfully claimed this slot.
			v := s.val
			// Free the slot for the next cycle:
			// next time this physical slot is used at pos+capacity.
			s.seq.Store(pos + q.capacity)

			return v, 1
		}

		if diff < 0 {
			// Ring is logically empty (head is ahead of producers).
			return zero, 0
		}

		// diff > 0 => producer is not done yet or intermediate state.
		// Yield to let producers/other consumers make progress.
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// Push inserts elements from vals in order until the ring fills.
// Returns the number accepted, which may be less than len(vals) if the
// ring fills mid-operation.
func (q *MPMC[T]) Push(vals []T) int {
	for i, v := range vals {
		if q.PushOne(v) == 0 {
			return i
		}
	}
	return len(vals)
}

// Read fills dst in order until the ring drains.
// Returns the number read, which may be less than len(dst).
func (q *MPMC[T]) Read(dst []T) int {
	for i := range dst {
		v, n := q.ReadOne()
		if n == 0 {
			return i
		}
		dst[i] = v
	}
	return len(dst)
}

// Len reports the number of buffered elements as a wrapping cursor
// subtraction. Under concurrent traffic the result is a snapshot.
func (q *MPMC[T]) Len() uint64 {
	return q.enqueue.Load() - q.dequeue.Load()
}

// Empty reports whether the ring holds no elements.
func (q *MPMC[T]) Empty() bool {
	return q.enqueue.Load() == q.dequeue.Load()
}

// Full reports whether occupancy has reached capacity.
func (q *MPMC[T]) Full() bool {
	return q.Len() == q.capacity
}

// Capacity returns the fixed ring capacity.
func (q *MPMC[T]) Capacity() uint64 {
	return q.capacity
}
