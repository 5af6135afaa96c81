// Package queue provides the bounded priority queues used by brute-force
// top-k selection.
package queue

import "container/heap"

// Compile time check to ensure PriorityQueue satisfies the heap interface.
var _ heap.Interface = (*PriorityQueue)(nil)

// PriorityQueueItem represents an item in the priority queue.
type PriorityQueueItem struct {
	Position uint32  // Position is the index slot of the item.
	Distance float32 // Distance is the priority of the item in the queue.
}

// PriorityQueue implements heap.Interface and holds PriorityQueueItems.
//
// Ties on Distance are broken by Position so that repeated searches over
// the same data produce identical orderings.
type PriorityQueue struct {
	isMaxHeap bool
	items     []PriorityQueueItem
}

// NewMin initializes a new priority queue with minimum priority.
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{
		isMaxHeap: false,
		items:     make([]PriorityQueueItem, 0, capacity),
	}
}

// NewMax initializes a new priority queue with maximum priority.
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{
		isMaxHeap: true,
		items:     make([]PriorityQueueItem, 0, capacity),
	}
}

// Len returns the number of elements in the priority queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Less reports whether the element with index i should sort before the
// element with index j. For a max-heap the "largest" item is the one with
// the greatest distance, with distance ties resolved by the greater
// position, so that popping always evicts the deterministic worst item.
func (pq *PriorityQueue) Less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if pq.isMaxHeap {
		if a.Distance != b.Distance {
			return a.Distance > b.Distance
		}
		return a.Position > b.Position
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Position < b.Position
}

// Swap swaps the elements with indexes i and j.
func (pq *PriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

// Push adds x to the priority queue.
func (pq *PriorityQueue) Push(x any) {
	item := x.(PriorityQueueItem)
	pq.items = append(pq.items, item)
}

// Pop removes and returns the top element from the priority queue.
func (pq *PriorityQueue) Pop() any {
	n := len(pq.items)
	if n == 0 {
		return PriorityQueueItem{}
	}

	item := pq.items[n-1]
	pq.items[n-1] = PriorityQueueItem{}
	pq.items = pq.items[:n-1]

	return item
}

// Top returns the top element of the priority queue without removing it.
func (pq *PriorityQueue) Top() any {
	if len(pq.items) == 0 {
		return PriorityQueueItem{}
	}
	return pq.items[0]
}

// Reset clears the priority queue for reuse.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}
