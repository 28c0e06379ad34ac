/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: queue.go
Description: Priority queue for enumeration candidates. Binary heap ordered by a
caller supplied comparison, giving O(log n) insertion and removal. One queue
exists per non-terminal and is only touched by the enumerating goroutine.
*/

package search

import (
	"time"
)

// PriorityQueue is a binary heap of elements ordered by before
type PriorityQueue[T any] struct {
	heap   []T               // Binary heap array
	before func(a, b T) bool // true when a must be dequeued before b

	// Performance tracking
	insertions int64
	removals   int64
	lastAccess time.Time
}

// NewPriorityQueue creates a new priority queue instance
func NewPriorityQueue[T any](before func(a, b T) bool) *PriorityQueue[T] {
	return &PriorityQueue[T]{
		heap:   make([]T, 0, 16),
		before: before,
	}
}

// Put adds an element, restoring the heap property
func (pq *PriorityQueue[T]) Put(item T) {
	pq.heap = append(pq.heap, item)
	pq.insertions++
	pq.lastAccess = time.Now()

	pq.bubbleUp(len(pq.heap) - 1)
}

// Get removes and returns the element with the highest priority
func (pq *PriorityQueue[T]) Get() (T, bool) {
	var zero T
	if len(pq.heap) == 0 {
		return zero, false
	}

	root := pq.heap[0]
	pq.removals++
	pq.lastAccess = time.Now()

	last := len(pq.heap) - 1
	pq.heap[0] = pq.heap[last]
	pq.heap[last] = zero
	pq.heap = pq.heap[:last]

	if len(pq.heap) > 0 {
		pq.bubbleDown(0)
	}

	return root, true
}

// Peek returns the highest priority element without removing it
func (pq *PriorityQueue[T]) Peek() (T, bool) {
	var zero T
	if len(pq.heap) == 0 {
		return zero, false
	}
	return pq.heap[0], true
}

// Size returns the current number of elements
func (pq *PriorityQueue[T]) Size() int {
	return len(pq.heap)
}

// IsEmpty returns true if the queue is empty
func (pq *PriorityQueue[T]) IsEmpty() bool {
	return len(pq.heap) == 0
}

// Clear removes all elements
func (pq *PriorityQueue[T]) Clear() {
	clear(pq.heap)
	pq.heap = pq.heap[:0]
}

// GetStats returns queue performance statistics
func (pq *PriorityQueue[T]) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"size":        len(pq.heap),
		"capacity":    cap(pq.heap),
		"insertions":  pq.insertions,
		"removals":    pq.removals,
		"last_access": pq.lastAccess,
	}
}

// bubbleUp moves an element up the heap to maintain heap property
func (pq *PriorityQueue[T]) bubbleUp(index int) {
	for index > 0 {
		parent := (index - 1) / 2

		if pq.before(pq.heap[index], pq.heap[parent]) {
			pq.heap[index], pq.heap[parent] = pq.heap[parent], pq.heap[index]
			index = parent
		} else {
			break
		}
	}
}

// bubbleDown moves an element down the heap to maintain heap property
func (pq *PriorityQueue[T]) bubbleDown(index int) {
	size := len(pq.heap)
	for {
		left := 2*index + 1
		right := 2*index + 2
		first := index

		if left < size && pq.before(pq.heap[left], pq.heap[first]) {
			first = left
		}
		if right < size && pq.before(pq.heap[right], pq.heap[first]) {
			first = right
		}

		if first != index {
			pq.heap[index], pq.heap[first] = pq.heap[first], pq.heap[index]
			index = first
		} else {
			break
		}
	}
}

// ValidateHeap checks if the heap property is maintained
// Useful for debugging and testing
func (pq *PriorityQueue[T]) ValidateHeap() bool {
	size := len(pq.heap)
	for i := 0; i < size; i++ {
		left := 2*i + 1
		right := 2*i + 2

		if left < size && pq.before(pq.heap[left], pq.heap[i]) {
			return false
		}
		if right < size && pq.before(pq.heap[right], pq.heap[i]) {
			return false
		}
	}
	return true
}
