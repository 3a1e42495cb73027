// Package rb provides a lock-free spsc generic ring buffer.
package rb

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// SPSC is a lock-free single producer/single consumer ring buffer.
// The capacity is kept exact, it is not rounded to a power of 2:
// a buffer created with capacity C holds at most C items.
type SPSC[T any] struct {
	head atomic.Uint64

	_ cpu.CacheLinePad

	tail atomic.Uint64

	_ cpu.CacheLinePad

	capacity uint64
	buffer   []T
}

// NewSPSC returns a new lock-free spsc ring buffer.
func NewSPSC[T any](capacity uint64) *SPSC[T] {
	return &SPSC[T]{
		capacity: capacity,
		buffer:   make([]T, capacity),
	}
}

// Push adds the item to the buffer.
// It returns false if the buffer is full.
func (b *SPSC[T]) Push(item T) bool {
	head := b.head.Load()
	tail := b.tail.Load()

	// Check if buffer is full
	if head-tail >= b.capacity {
		return false
	}

	b.buffer[head%b.capacity] = item
	b.head.Add(1)

	return true
}

// Pop removes and returns the oldest item in the buffer.
// It returns false if the buffer is empty.
func (b *SPSC[T]) Pop() (T, bool) {
	var zero T

	head := b.head.Load()
	tail := b.tail.Load()

	// Check if buffer is empty
	if head == tail {
		return zero, false
	}

	item := b.buffer[tail%b.capacity]
	b.tail.Add(1)

	return item, true
}

// Peek returns the oldest item in the buffer without removing it.
// It returns false if the buffer is empty.
// Only the consumer may call Peek.
func (b *SPSC[T]) Peek() (T, bool) {
	var zero T

	head := b.head.Load()
	tail := b.tail.Load()

	if head == tail {
		return zero, false
	}

	return b.buffer[tail%b.capacity], true
}

// Len returns the number of items in the buffer.
func (b *SPSC[T]) Len() uint64 {
	tail := b.tail.Load()
	head := b.head.Load()

	return head - tail
}

// Cap returns the capacity of the buffer.
func (b *SPSC[T]) Cap() uint64 {
	return b.capacity
}
