package queue

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue(t *testing.T) {
	t.Run("MaxHeapEviction", func(t *testing.T) {
		pq := NewMax(3)
		heap.Init(pq)

		heap.Push(pq, PriorityQueueItem{Position: 0, Distance: 1.0})
		heap.Push(pq, PriorityQueueItem{Position: 1, Distance: 3.0})
		heap.Push(pq, PriorityQueueItem{Position: 2, Distance: 2.0})

		top := pq.Top().(PriorityQueueItem)
		assert.Equal(t, uint32(1), top.Position)

		item := heap.Pop(pq).(PriorityQueueItem)
		assert.Equal(t, float32(3.0), item.Distance)
	})

	t.Run("TieBreakByPosition", func(t *testing.T) {
		// Equal distances: the max-heap must surface the greater position
		// first so the smaller position survives eviction.
		pq := NewMax(4)
		heap.Init(pq)

		heap.Push(pq, PriorityQueueItem{Position: 7, Distance: 1.0})
		heap.Push(pq, PriorityQueueItem{Position: 2, Distance: 1.0})
		heap.Push(pq, PriorityQueueItem{Position: 5, Distance: 1.0})

		item := heap.Pop(pq).(PriorityQueueItem)
		assert.Equal(t, uint32(7), item.Position)
		item = heap.Pop(pq).(PriorityQueueItem)
		assert.Equal(t, uint32(5), item.Position)
		item = heap.Pop(pq).(PriorityQueueItem)
		assert.Equal(t, uint32(2), item.Position)
	})

	t.Run("MinHeapOrder", func(t *testing.T) {
		pq := NewMin(3)
		heap.Init(pq)

		heap.Push(pq, PriorityQueueItem{Position: 0, Distance: 2.0})
		heap.Push(pq, PriorityQueueItem{Position: 1, Distance: 0.5})

		item := heap.Pop(pq).(PriorityQueueItem)
		assert.Equal(t, float32(0.5), item.Distance)
	})

	t.Run("EmptyPop", func(t *testing.T) {
		pq := NewMax(1)
		require.Equal(t, 0, pq.Len())
		assert.Equal(t, PriorityQueueItem{}, pq.Pop())
	})
}
