// Package index provides shared types and errors for vector indexes.
package index

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrEmptyVector is returned when an empty vector is passed to an index.
	ErrEmptyVector = errors.New("empty vector")
)

// ErrDimensionMismatch is returned when a vector or query does not match
// the fixed dimension of an index.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

// Error returns the error message for an invalid dimension.
func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrPositionOutOfRange is returned when a position is outside the stored range.
type ErrPositionOutOfRange struct {
	Position uint32
	Count    int
}

// Error returns the error message for an out-of-range position.
func (e *ErrPositionOutOfRange) Error() string {
	return fmt.Sprintf("position %d out of range (count %d)", e.Position, e.Count)
}

// SearchResult represents a single ranked result from an index search.
type SearchResult struct {
	// Position is the insertion-order slot of the result vector.
	Position uint32

	// Distance is the L2 distance between the query vector and the result vector.
	Distance float32
}
