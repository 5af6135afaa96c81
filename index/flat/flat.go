// Package flat provides an append-only flat index for exact vector search.
//
// Search is a brute-force O(N*D) scan over every stored vector. That is a
// deliberate choice: results are exact, and at the catalog sizes this index
// is built for (tens to low thousands of vectors) a scan beats any
// approximate structure on simplicity and recall.
package flat

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/visearch/distance"
	"github.com/hupe1980/visearch/index"
	"github.com/hupe1980/visearch/internal/queue"
)

// indexState holds the immutable state of the index for lock-free reads.
// Stored vectors are never mutated after append, so a shallow copy of the
// outer slice is a safe snapshot.
type indexState struct {
	vectors [][]float32
}

// Flat represents an append-only flat index for exact vector search.
// It uses a copy-on-write pattern for lock-free concurrent reads.
//
// Positions are allocated in insertion order, starting at 0, and are never
// reused or compacted; the index has no delete operation.
type Flat struct {
	state     atomic.Value // holds *indexState for lock-free reads
	writeMu   sync.Mutex   // Serializes writes only
	dimension int          // Fixed at construction
}

// New creates a new flat index with the given fixed dimension.
func New(dimension int) (*Flat, error) {
	if dimension <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: dimension}
	}

	f := &Flat{dimension: dimension}
	f.state.Store(&indexState{vectors: make([][]float32, 0)})

	return f, nil
}

// FromVectors creates a flat index pre-populated with the given vectors, in
// order. Used when restoring from a snapshot; the vectors are copied.
func FromVectors(dimension int, vectors [][]float32) (*Flat, error) {
	f, err := New(dimension)
	if err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, &index.ErrDimensionMismatch{Expected: dimension, Actual: len(v)}
		}
		vecs[i] = make([]float32, dimension)
		copy(vecs[i], v)
	}

	f.state.Store(&indexState{vectors: vecs})

	return f, nil
}

// Snapshot returns a point-in-time view of the index. The view shares the
// current immutable state, so it is O(1) and never sees later appends.
func (f *Flat) Snapshot() *Flat {
	snap := &Flat{dimension: f.dimension}
	snap.state.Store(f.getState())

	return snap
}

// getState returns the current immutable state (lock-free read).
func (f *Flat) getState() *indexState {
	return f.state.Load().(*indexState)
}

// Dimension returns the fixed vector dimension of the index.
func (f *Flat) Dimension() int {
	return f.dimension
}

// Count returns the number of stored vectors.
func (f *Flat) Count() int {
	return len(f.getState().vectors)
}

// Add appends a vector and returns its position.
//
// The vector is copied, so callers may reuse the input slice. A dimension
// mismatch leaves the index unchanged.
func (f *Flat) Add(ctx context.Context, v []float32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if len(v) == 0 {
		return 0, index.ErrEmptyVector
	}

	if len(v) != f.dimension {
		return 0, &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(v)}
	}

	vec := make([]float32, len(v))
	copy(vec, v)

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	oldState := f.getState()
	newVectors := make([][]float32, len(oldState.vectors), len(oldState.vectors)+1)
	copy(newVectors, oldState.vectors)

	position := uint32(len(newVectors))
	newVectors = append(newVectors, vec)

	f.state.Store(&indexState{vectors: newVectors})

	return position, nil
}

// VectorAt returns the vector stored at the given position.
// The returned slice aliases internal memory and must not be modified.
func (f *Flat) VectorAt(position uint32) ([]float32, error) {
	st := f.getState()
	if int(position) >= len(st.vectors) {
		return nil, &index.ErrPositionOutOfRange{Position: position, Count: len(st.vectors)}
	}
	return st.vectors[position], nil
}

// DistanceAll computes the exact L2 distance from query to every stored
// vector. The result is indexed by position.
func (f *Flat) DistanceAll(ctx context.Context, query []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(query) != f.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(query)}
	}

	st := f.getState()
	distances := make([]float32, len(st.vectors))
	for i, vec := range st.vectors {
		distances[i] = distance.L2(query, vec)
	}

	return distances, nil
}

// Search returns the min(k, Count()) positions closest to query, ordered by
// ascending L2 distance with ties broken by ascending position.
//
// The optional filter restricts candidates to positions it accepts.
// An empty index yields an empty result, not an error.
func (f *Flat) Search(ctx context.Context, query []float32, k int, filter func(position uint32) bool) ([]index.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	st := f.getState()
	if len(st.vectors) == 0 {
		return nil, nil
	}

	if len(query) != f.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(query)}
	}

	actualK := k
	if actualK > len(st.vectors) {
		actualK = len(st.vectors)
	}

	topCandidates := queue.NewMax(actualK)
	heap.Init(topCandidates)

	for i, vec := range st.vectors {
		position := uint32(i)
		if filter != nil && !filter(position) {
			continue
		}

		dist := distance.L2(query, vec)

		if topCandidates.Len() < actualK {
			heap.Push(topCandidates, queue.PriorityQueueItem{Position: position, Distance: dist})
			continue
		}

		largest := topCandidates.Top().(queue.PriorityQueueItem)
		if dist < largest.Distance {
			heap.Pop(topCandidates)
			heap.Push(topCandidates, queue.PriorityQueueItem{Position: position, Distance: dist})
		}
	}

	results := make([]index.SearchResult, topCandidates.Len())
	for i := topCandidates.Len() - 1; i >= 0; i-- {
		item := heap.Pop(topCandidates).(queue.PriorityQueueItem)
		results[i] = index.SearchResult{Position: item.Position, Distance: item.Distance}
	}

	return results, nil
}
