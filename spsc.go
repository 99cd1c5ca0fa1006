package ringbuffer

import (
	"sync/atomic"
)

// SPSC is a bounded wait-free ring buffer for exactly one producer and
// one consumer goroutine. Neither side ever retries: each owns its cursor
// outright and publishes it with a plain atomic store, so a push or read
// completes in a constant number of steps.
//
// Each side also keeps a cached copy of the other cursor and refreshes it
// only when the ring looks full (producer) or empty (consumer), sparing
// the hot path a cross-core load.
type SPSC[T any] struct {
	_        [64]byte
	mask     uint64
	capacity uint64
	buf      []T
	_        [64]byte
	enqueue  atomic.Uint64 // write cursor, advanced only by the producer
	cachedRd uint64        // producer-local copy of dequeue
	_        [64]byte
	dequeue  atomic.Uint64 // read cursor, advanced only by the consumer
	cachedWr uint64        // consumer-local copy of enqueue
	_        [64]byte
}

// NewSPSC creates a bounded SPSC ring buffer.
// 'capacity' must be a power of two (1<<k).
func NewSPSC[T any](capacity uint64) *SPSC[T] {
	if capacity == 0 || (capacity&(capacity-1)) != 0 {
		panic("capacity must be power of 2 and > 0")
	}

	return &SPSC[T]{
		mask:     capacity - 1,
		capacity: capacity,
		buf:      make([]T, capacity),
	}
}

// PushOne inserts one element.
// Returns the number of elements accepted: 0 when the ring is full,
// 1 otherwise.
// IMPORTANT: must be called from a single producer goroutine.
func (q *SPSC[T]) PushOne(v T) int {
	pos := q.enqueue.Load()

	// The cached read cursor only ever lags the real one, so a distance
	// below capacity is trustworthy without refreshing.
	if pos-q.cachedRd >= q.capacity {
		q.cachedRd = q.dequeue.Load()
		if pos-q.cachedRd >= q.capacity {
			return 0
		}
	}

	q.buf[pos&q.mask] = v
	// publish: the slot store above is ordered before the cursor update
	q.enqueue.Store(pos + 1)
	return 1
}

// ReadOne removes the oldest element.
// Returns (zero, 0) when the ring is empty.
// IMPORTANT: must be called from a single consumer goroutine.
func (q *SPSC[T]) ReadOne() (T, int) {
	var zero T
	pos := q.dequeue.Load()

	if pos == q.cachedWr {
		q.cachedWr = q.enqueue.Load()
		if pos == q.cachedWr {
			return zero, 0
		}
	}

	v := q.buf[pos&q.mask]
	q.dequeue.Store(pos + 1)
	return v, 1
}

// Push inserts elements from vals in order until the ring fills.
// Returns the number accepted.
// IMPORTANT: must be called from a single producer goroutine.
func (q *SPSC[T]) Push(vals []T) int {
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
func (q *SPSC[T]) Read(dst []T) int {
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
func (q *SPSC[T]) Len() uint64 {
	return q.enqueue.Load() - q.dequeue.Load()
}

// Empty reports whether the ring holds no elements.
func (q *SPSC[T]) Empty() bool {
	return q.enqueue.Load() == q.dequeue.Load()
}

// Full reports whether occupancy has reached capacity.
func (q *SPSC[T]) Full() bool {
	return q.Len() == q.capacity
}

// Capacity returns the fixed ring capacity.
func (q *SPSC[T]) Capacity() uint64 {
	return q.capacity
}
