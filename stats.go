package ringbuffer

import (
	"runtime"
	"sync/atomic"
)

// Counted is an MPMC ring buffer that additionally keeps per-outcome
// counters: how often calls arrived, how often they hit a full or empty
// ring, and how often they had to retry on contention or an intermediate
// slot state. Counter updates sit on the operation path, so Counted
// trades a little throughput for visibility; use MPMC when the numbers
// are not needed.
type Counted[T any] struct {
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

	pushAttempts uint64
	pushFull     uint64
	pushRetries  uint64

	readAttempts uint64
	readEmpty    uint64
	readRetries  uint64
}

// Counters is a snapshot of a Counted ring's operation outcomes.
type Counters struct {
	PushAttempts uint64 // PushOne calls
	PushFull     uint64 // pushes rejected because the ring was full
	PushRetries  uint64 // push loop iterations lost to contention

	ReadAttempts uint64 // ReadOne calls
	ReadEmpty    uint64 // reads that found the ring empty
	ReadRetries  uint64 // read loop iterations lost to contention
}

// NewCounted creates a bounded instrumented MPMC ring buffer.
// 'capacity' must be a power of two (1<<k).
func NewCounted[T any](capacity uint64) *Counted[T] {
	if capacity == 0 || (capacity&(capacity-1)) != 0 {
		panic("capacity must be power of 2 and > 0")
	}

	slots := make([]slot[T], capacity)
	for i := uint64(0); i < capacity; i++ {
		// initial sequence value per slot
		slots[i].seq.Store(i)
	}

	return &Counted[T]{
		mask:     capacity - 1,
		capacity: capacity,
		slots:    slots,
	}
}

// Stats retrieves the current counter snapshot.
func (q *Counted[T]) Stats() Counters {
	return Counters{
		PushAttempts: atomic.LoadUint64(&q.pushAttempts),
		PushFull:     atomic.LoadUint64(&q.pushFull),
		PushRetries:  atomic.LoadUint64(&q.pushRetries),
		ReadAttempts: atomic.LoadUint64(&q.readAttempts),
		ReadEmpty:    atomic.LoadUint64(&q.readEmpty),
		ReadRetries:  atomic.LoadUint64(&q.readRetries),
	}
}

// PushOne inserts one element, counting the outcome.
// Returns the number of elements accepted (0 or 1).
// Safe to call concurrently from many producer goroutines.
func (q *Counted[T]) PushOne(v T) int {
	atomic.AddUint64(&q.pushAttempts, 1)
	var spins uint32
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
			atomic.AddUint64(&q.pushRetries, 1)
			spins++
			if spins%goschedEvery == 0 {
				runtime.Gosched()
			}
		} else if diff < 0 {
			atomic.AddUint64(&q.pushFull, 1)
			// slot has not been freed by the consumer yet
			// => ring is full
			return 0
		} else {
			atomic.AddUint64(&q.pushRetries, 1)
			// diff > 0 => this slot still belongs to a previous cycle.
			// Just retry with a new pos.
			spins++
			if spins%goschedEvery == 0 {
				runtime.Gosched()
			}
		}
	}
}

// ReadOne removes the oldest element, counting the outcome.
// Returns (zero, 0) when the ring is empty.
// Safe to call concurrently from many consumer goroutines.
func (q *Counted[T]) ReadOne() (T, int) {
	atomic.AddUint64(&q.readAttempts, 1)
	var zero T
	var spins uint32
	for {
		pos := q.dequeue.Load()
		s := &q.slots[pos&q.mask]

		seq := s.seq.Load()
		diff := int64(seq) - int64(pos+1)

		if diff == 0 {
			if !q.dequeue.CompareAndSwap(pos, pos+1) {
				// another consumer won this slot, retry
				atomic.AddUint64(&q.readRetries, 1)
				spins++
				if spins%goschedEvery == 0 {
					runtime.Gosched()
				}
				continue
			}

			v := s.val
			// free the slot for the next cycle
			s.seq.Store(pos + q.capacity)

			return v, 1
		}

		if diff < 0 {
			atomic.AddUint64(&q.readEmpty, 1)
			// ring is logically empty (head is ahead of producers)
			return zero, 0
		}

		atomic.AddUint64(&q.readRetries, 1)
		// diff > 0 => producer is not done yet or in intermediate state
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

// Push inserts elements from vals in order until the ring fills.
// Returns the number accepted.
func (q *Counted[T]) Push(vals []T) int {
	for i, v := range vals {
		if q.PushOne(v) == 0 {
			return i
		}
	}
	return len(vals)
}

// Read fills dst in order until the ring drains.
// Returns the number read.
func (q *Counted[T]) Read(dst []T) int {
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
func (q *Counted[T]) Len() uint64 {
	return q.enqueue.Load() - q.dequeue.Load()
}

// Empty reports whether the ring holds no elements.
func (q *Counted[T]) Empty() bool {
	return q.enqueue.Load() == q.dequeue.Load()
}

// Full reports whether occupancy has reached capacity.
func (q *Counted[T]) Full() bool {
	return q.Len() == q.capacity
}

// Capacity returns the fixed ring capacity.
func (q *Counted[T]) Capacity() uint64 {
	return q.capacity
}
