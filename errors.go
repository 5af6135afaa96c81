package visearch

import (
	"errors"
	"fmt"

	"github.com/hupe1980/visearch/index"
	"github.com/hupe1980/visearch/persistence"
)

var (
	// ErrInvalidTopK is returned when a search requests a non-positive
	// result count.
	ErrInvalidTopK = errors.New("top_k must be positive")

	// ErrInvalidThreshold is returned when a search threshold is outside
	// [0, 1].
	ErrInvalidThreshold = errors.New("threshold must be in [0, 1]")

	// ErrEmptyProductID is returned when a product is added with an empty id.
	ErrEmptyProductID = errors.New("product id must not be empty")

	// ErrSnapshotNotFound is returned by Load when no snapshot exists in the
	// configured storage.
	ErrSnapshotNotFound = persistence.ErrSnapshotNotFound

	// ErrSnapshotCorrupt is returned by Load when the stored snapshot fails
	// integrity verification.
	ErrSnapshotCorrupt = persistence.ErrSnapshotCorrupt

	// ErrNoSnapshotStorage is returned by Save/Load when the store was built
	// without snapshot storage.
	ErrNoSnapshotStorage = errors.New("no snapshot storage configured")
)

// ErrDimensionMismatch indicates an embedding whose length does not match the
// store's configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// translateError normalizes errors from inner packages into the package's
// public error types.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var id *index.ErrInvalidDimension
	if errors.As(err, &id) {
		return &ErrInvalidDimension{Dimension: id.Dimension, cause: err}
	}
	if errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidTopK, err)
	}

	return err
}
