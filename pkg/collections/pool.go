// Package collections provides small generic data structures shared by the
// builder's scratch allocations and the service layer's in-memory caches.
package collections

import (
	"sync"
)

// ============================================================================
// SlicePool - reduce per-build scratch allocation overhead
// ============================================================================

// SlicePool is a generic pool for slices of any type. The builder uses one
// to reuse its worker-boundary scratch buffers across repeated Build calls
// instead of allocating them fresh per call.
type SlicePool[T any] struct {
	pool       sync.Pool
	initialCap int
}

// NewSlicePool creates a new slice pool with the given initial capacity.
func NewSlicePool[T any](initialCap int) *SlicePool[T] {
	if initialCap <= 0 {
		initialCap = 256
	}
	return &SlicePool[T]{
		initialCap: initialCap,
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]T, 0, initialCap)
				return &s
			},
		},
	}
}

// Get gets a slice from the pool.
func (p *SlicePool[T]) Get() *[]T {
	return p.pool.Get().(*[]T)
}

// Put returns a slice to the pool after clearing it.
func (p *SlicePool[T]) Put(s *[]T) {
	*s = (*s)[:0]
	p.pool.Put(s)
}

// ============================================================================
// RingBuffer - fixed-size circular buffer
// ============================================================================

// RingBuffer is a fixed-size circular buffer. The service layer uses one to
// keep the most recent completed build runs in memory for quick inspection,
// evicting the oldest entry once it is full.
type RingBuffer[T any] struct {
	data  []T
	head  int
	tail  int
	count int
	cap   int
}

// NewRingBuffer creates a new ring buffer with the given capacity.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	return &RingBuffer[T]{
		data: make([]T, capacity),
		cap:  capacity,
	}
}

// Push adds a value to the buffer. Returns false if buffer is full.
func (r *RingBuffer[T]) Push(v T) bool {
	if r.count == r.cap {
		return false
	}
	r.data[r.tail] = v
	r.tail = (r.tail + 1) % r.cap
	r.count++
	return true
}

// Pop removes and returns the oldest value. Returns false if buffer is empty.
func (r *RingBuffer[T]) Pop() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	v := r.data[r.head]
	r.head = (r.head + 1) % r.cap
	r.count--
	return v, true
}

// Peek returns the oldest value without removing it.
func (r *RingBuffer[T]) Peek() (T, bool) {
	if r.count == 0 {
		var zero T
		return zero, false
	}
	return r.data[r.head], true
}

// IsFull returns true if the buffer is full.
func (r *RingBuffer[T]) IsFull() bool {
	return r.count == r.cap
}

// IsEmpty returns true if the buffer is empty.
func (r *RingBuffer[T]) IsEmpty() bool {
	return r.count == 0
}

// Len returns the number of items in the buffer.
func (r *RingBuffer[T]) Len() int {
	return r.count
}

// Cap returns the capacity of the buffer.
func (r *RingBuffer[T]) Cap() int {
	return r.cap
}

// Clear clears the buffer.
func (r *RingBuffer[T]) Clear() {
	r.head = 0
	r.tail = 0
	r.count = 0
}

// PushEvict adds v to the buffer, evicting and returning the oldest value
// first if the buffer is already full. The returned bool reports whether an
// eviction occurred.
func (r *RingBuffer[T]) PushEvict(v T) (T, bool) {
	if r.count < r.cap {
		r.Push(v)
		var zero T
		return zero, false
	}
	evicted, _ := r.Pop()
	r.Push(v)
	return evicted, true
}

// Snapshot returns the buffer's contents in oldest-to-newest order.
func (r *RingBuffer[T]) Snapshot() []T {
	out := make([]T, 0, r.count)
	for i := 0; i < r.count; i++ {
		out = append(out, r.data[(r.head+i)%r.cap])
	}
	return out
}
