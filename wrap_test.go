package ringbuffer

import "testing"

// The cursors are allowed to overflow the uint64 itself; occupancy and
// sequence arithmetic must stay correct through the wrap. These tests
// pre-age a fresh ring so its cursors sit just below the overflow point,
// then drive traffic across zero.

// ageMPMC rewinds q so both cursors start at 'start'.
// 'start' must be a multiple of the capacity so each slot's sequence
// keeps matching the cursor that will claim it.
func ageMPMC[T any](q *MPMC[T], start uint64) {
	for i := uint64(0); i < q.capacity; i++ {
		q.slots[i].seq.Store(start + i)
	}
	q.enqueue.Store(start)
	q.dequeue.Store(start)
}

func TestMPMCCursorOverflow(t *testing.T) {
	const capacity = 64
	start := ^uint64(0) - 8*capacity + 1 // 8 capacities short of wrapping

	q := NewMPMC[int](capacity)
	ageMPMC(q, start)

	next := 0
	want := 0
	// 16 capacities of traffic: the cursors pass zero halfway through.
	for r := 0; r < 16; r++ {
		for i := 0; i < capacity; i++ {
			if q.PushOne(next) != 1 {
				t.Fatalf("push %d rejected (ring unexpectedly full)", next)
			}
			next++
		}
		if got := q.Len(); got != capacity {
			t.Fatalf("round %d: expected occupancy %d, got %d", r, capacity, got)
		}
		if q.PushOne(-1) != 0 {
			t.Fatalf("round %d: expected overflow rejection at full ring", r)
		}
		for i := 0; i < capacity; i++ {
			v, n := q.ReadOne()
			if n != 1 {
				t.Fatalf("read %d failed (ring unexpectedly empty)", want)
			}
			if v != want {
				t.Fatalf("expected %d, got %d (FIFO violated across cursor wrap)", want, v)
			}
			want++
		}
		if !q.Empty() {
			t.Fatalf("round %d: expected empty ring, occupancy %d", r, q.Len())
		}
	}

	// Both cursors must have passed the wrap point.
	if end := q.enqueue.Load(); end != start+16*capacity {
		t.Fatalf("expected write cursor %d, got %d", start+16*capacity, end)
	}
}

func TestMPSCCursorOverflow(t *testing.T) {
	const capacity = 32
	start := ^uint64(0) - 4*capacity + 1

	q := NewMPSC[int](capacity)
	for i := uint64(0); i < capacity; i++ {
		q.slots[i].seq.Store(start + i)
	}
	q.enqueue.Store(start)
	q.dequeue.Store(start)

	for v := 0; v < 8*capacity; v++ {
		if q.PushOne(v) != 1 {
			t.Fatalf("push %d rejected (ring unexpectedly full)", v)
		}
		got, n := q.ReadOne()
		if n != 1 {
			t.Fatalf("read %d failed (ring unexpectedly empty)", v)
		}
		if got != v {
			t.Fatalf("expected %d, got %d (FIFO violated across cursor wrap)", v, got)
		}
	}
}

func TestSPSCCursorOverflow(t *testing.T) {
	const capacity = 32
	start := ^uint64(0) - 4*capacity + 1

	q := NewSPSC[int](capacity)
	q.enqueue.Store(start)
	q.dequeue.Store(start)
	q.cachedRd = start
	q.cachedWr = start

	next := 0
	want := 0
	for r := 0; r < 8; r++ {
		for i := 0; i < capacity; i++ {
			if q.PushOne(next) != 1 {
				t.Fatalf("push %d rejected (ring unexpectedly full)", next)
			}
			next++
		}
		if q.PushOne(-1) != 0 {
			t.Fatalf("round %d: expected overflow rejection at full ring", r)
		}
		for i := 0; i < capacity; i++ {
			v, n := q.ReadOne()
			if n != 1 {
				t.Fatalf("read %d failed (ring unexpectedly empty)", want)
			}
			if v != want {
				t.Fatalf("expected %d, got %d (FIFO violated across cursor wrap)", want, v)
			}
			want++
		}
	}
}
