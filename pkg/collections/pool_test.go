package collections

import (
	"testing"
)

func TestSlicePool(t *testing.T) {
	pool := NewSlicePool[int](256)

	// Get a slice
	s := pool.Get()
	if s == nil {
		t.Fatal("Get returned nil")
	}
	if cap(*s) < 256 {
		t.Errorf("Expected capacity >= 256, got %d", cap(*s))
	}

	// Use the slice
	*s = append(*s, 1, 2, 3)
	if len(*s) != 3 {
		t.Errorf("Expected length 3, got %d", len(*s))
	}

	// Put it back
	pool.Put(s)

	// Get again (should be cleared)
	s2 := pool.Get()
	if len(*s2) != 0 {
		t.Errorf("Expected length 0 after Put, got %d", len(*s2))
	}
}

func TestRingBuffer(t *testing.T) {
	r := NewRingBuffer[int](3)

	if !r.IsEmpty() {
		t.Error("New ring buffer should be empty")
	}

	// Push items
	if !r.Push(1) {
		t.Error("Push should succeed")
	}
	if !r.Push(2) {
		t.Error("Push should succeed")
	}
	if !r.Push(3) {
		t.Error("Push should succeed")
	}

	if !r.IsFull() {
		t.Error("Ring buffer should be full")
	}

	// Push to full buffer should fail
	if r.Push(4) {
		t.Error("Push to full buffer should fail")
	}

	// Pop
	v, ok := r.Pop()
	if !ok || v != 1 {
		t.Errorf("Expected 1, got %d", v)
	}

	// Now we can push again
	if !r.Push(4) {
		t.Error("Push should succeed after Pop")
	}

	// Pop remaining
	v, _ = r.Pop()
	if v != 2 {
		t.Errorf("Expected 2, got %d", v)
	}
	v, _ = r.Pop()
	if v != 3 {
		t.Errorf("Expected 3, got %d", v)
	}
	v, _ = r.Pop()
	if v != 4 {
		t.Errorf("Expected 4, got %d", v)
	}

	if !r.IsEmpty() {
		t.Error("Ring buffer should be empty")
	}
}

func TestRingBuffer_Wrap(t *testing.T) {
	r := NewRingBuffer[int](3)

	// Fill and empty multiple times to test wrap-around
	for round := 0; round < 5; round++ {
		r.Push(1)
		r.Push(2)
		r.Push(3)

		v, _ := r.Pop()
		if v != 1 {
			t.Errorf("Round %d: Expected 1, got %d", round, v)
		}
		v, _ = r.Pop()
		if v != 2 {
			t.Errorf("Round %d: Expected 2, got %d", round, v)
		}
		v, _ = r.Pop()
		if v != 3 {
			t.Errorf("Round %d: Expected 3, got %d", round, v)
		}
	}
}

func TestRingBuffer_PushEvict(t *testing.T) {
	r := NewRingBuffer[int](2)

	if _, evicted := r.PushEvict(1); evicted {
		t.Error("PushEvict on a non-full buffer should not evict")
	}
	if _, evicted := r.PushEvict(2); evicted {
		t.Error("PushEvict on a non-full buffer should not evict")
	}

	evicted, ok := r.PushEvict(3)
	if !ok || evicted != 1 {
		t.Errorf("Expected eviction of 1, got %d (ok=%v)", evicted, ok)
	}

	snap := r.Snapshot()
	if len(snap) != 2 || snap[0] != 2 || snap[1] != 3 {
		t.Errorf("Expected snapshot [2 3], got %v", snap)
	}
}

func BenchmarkRingBuffer_PushPop(b *testing.B) {
	r := NewRingBuffer[int](1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Push(i)
		r.Pop()
	}
}
