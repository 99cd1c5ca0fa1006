package ringbuffer

// SlotPool is a fixed-size slab whose free slot indices circulate through
// an MPMC ring: Put claims a free slot and stores into it, Release hands
// the slot back. The slab itself is allocated once and never resized.
type SlotPool[T any] struct {
	free *MPMC[int]
	data []T
}

// NewSlotPool creates a pool with every slot initially free.
// 'capacity' must be a power of two (1<<k).
func NewSlotPool[T any](capacity uint64) *SlotPool[T] {
	if capacity == 0 || (capacity&(capacity-1)) != 0 {
		panic("capacity must be power of 2 and > 0")
	}

	p := &SlotPool[T]{
		free: NewMPMC[int](capacity),
		data: make([]T, capacity),
	}

	for i := 0; i < int(capacity); i++ {
		if p.free.PushOne(i) != 1 {
			panic("unreached")
		}
	}

	return p
}

// Put stores v in a free slot and returns its position.
// Returns (0, false) when every slot is taken.
// May be called concurrently from many goroutines.
func (p *SlotPool[T]) Put(v T) (int, bool) {
	pos, n := p.free.ReadOne()
	if n == 0 {
		return 0, false
	}
	p.data[pos] = v
	return pos, true
}

// Get retrieves the element at the specified position.
// Can be called simultaneously from many goroutines (read-only) for a
// position that has not been released.
func (p *SlotPool[T]) Get(pos int) T {
	return p.data[pos]
}

// Release returns a slot to the free list.
// Note: Release for one position should be called once.
func (p *SlotPool[T]) Release(pos int) {
	if p.free.PushOne(pos) != 1 {
		panic("unreached")
	}
}

// Capacity returns the fixed number of slots.
func (p *SlotPool[T]) Capacity() uint64 {
	return p.free.Capacity()
}
