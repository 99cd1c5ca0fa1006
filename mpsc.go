package ringbuffer

import (
	"sync/atomic"
)

// MPSC is a bounded lock-free ring buffer for many producers and exactly
// one consumer goroutine. The consumer owns the read cursor outright, so
// the read side never needs a compare-and-swap.
type MPSC[T any] struct {
	// Optional padding to avoid false sharing between hot fields.
	_        [64]byte
	mask     uint64
	capacity uint64
	slots    []slot[T]
	_        [64]byte
	enqueue  atomic.Uint64 // logical write cursor, updated by multiple producers
	_        [64]byte
	dequeue  atomic.Uint64 // logical read cursor, advanced only by the single consumer
	_        [64]byte
}

// NewMPSC creates a bounded MPSC ring buffer.
// 'capacity' must be a power of two (1<<k).
func NewMPSC[T any](capacity uint64) *MPSC[T] {
	if capacity == 0 || (capacity&(capacity-1)) != 0 {
		panic("capacity must be power of 2 and > 0")
	}

	slots := make([]slot[T], capacity)
	for i := uint64(0); i < capacity; i++ {
		// initial sequence value per slot
		slots[i].seq.Store(i)
	}

	return &MPSC[T]{
		mask:     capacity - 1,
		capacity: capacity,
		slots:    slots,
	}
}

// PushOne inserts one element.
// Returns the number of elements accepted: 0 when the ring is full,
// 1 otherwise.
// Safe to call concurrently from many producer goroutines.
func (q *MPSC[T]) PushOne(v T) int {
	for {
		pos := q.enqueue.Load()
		s := &q.slots[pos&q.mask]

		seq := s.seq.Load()
		diff := int64(seq) - int64(pos)

		if diff == 0 {
			// slot is free for this position, try to claim it
			if q.enqueue.CompareAndSwap(pos, pos+1) {
				// we won the slot
				s.val = v
				// publish the value: seq = pos+1
				s.seq.Store(pos + 1)
				return 1
			}
			// contention, retry
		} else if diff < 0 {
			// slot has not been freed by the consumer yet
			// => ring is full
			return 0
		} else {
			// diff > 0 => this slot still belongs to a previous cycle
			// retry (pos is likely to change)
		}
	}
}

// ReadOne removes the oldest element.
// Returns (zero, 0) when the ring is empty.
// IMPORTANT: must be called from a single consumer goroutine.
func (q *MPSC[T]) ReadOne() (T, int) {
	pos := q.dequeue.Load()
	s := &q.slots[pos&q.mask]

	seq := s.seq.Load()
	diff := int64(seq) - int64(pos+1)

	var zero T

	if diff == 0 {
		// element ready; no CAS needed, this goroutine is the only writer
		// of the read cursor
		q.dequeue.Store(pos + 1)

		v := s.val
		// free the slot for the next cycle:
		// next time this physical slot is used at pos+capacity
		s.seq.Store(pos + q.capacity)

		return v, 1
	}

	if diff < 0 {
		// ring is logically empty (consumer is ahead of producers)
		return zero, 0
	}

	// diff > 0 => producer is not done yet or in intermediate state
	return zero, 0
}

// Push inserts elements from vals in order until the ring fills.
// Returns the number accepted.
func (q *MPSC[T]) Push(vals []T) int {
	for i, v := range vals {
		if q.PushOne(v) == 0 {
			return i
		}
	}
	return len(vals)
}

// Read fills dst in order until the ring drains.
// Returns the number read.
// IMPORTANT: must be called from a single consumer goroutine.
func (q *MPSC[T]) Read(dst []T) int {
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
func (q *MPSC[T]) Len() uint64 {
	return q.enqueue.Load() - q.dequeue.Load()
}

// Empty reports whether the ring holds no elements.
func (q *MPSC[T]) Empty() bool {
	return q.enqueue.Load() == q.dequeue.Load()
}

// Full reports whether occupancy has reached capacity.
func (q *MPSC[T]) Full() bool {
	return q.Len() == q.capacity
}

// Capacity returns the fixed ring capacity.
func (q *MPSC[T]) Capacity() uint64 {
	return q.capacity
}
