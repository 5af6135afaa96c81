// Package metadata associates product records with vector index positions.
//
// A Store keeps two coupled structures: the ordered list of product ids
// (position i holds the id of the vector at index position i) and a map
// from product id to its descriptive metadata. The list and the vector
// index must always have the same length; the Store guards this by only
// accepting records at the next free position.
//
// String-valued metadata fields are additionally indexed in a Roaring
// Bitmap inverted index to support equality filtering during search.
package metadata

import (
	"fmt"
	"sync"
)

// Metadata holds arbitrary descriptive fields for a product
// (e.g. name, price, image_url).
type Metadata map[string]any

// ErrPositionOutOfRange is returned when a position is outside the recorded range.
type ErrPositionOutOfRange struct {
	Position uint32
	Count    int
}

// Error returns the error message for an out-of-range position.
func (e *ErrPositionOutOfRange) Error() string {
	return fmt.Sprintf("position %d out of range (count %d)", e.Position, e.Count)
}

// ErrPositionConflict is returned when a record does not extend the id list
// at its next free position. Seeing it means the caller broke the
// index/metadata coupling; it is a defect, not a recoverable condition.
type ErrPositionConflict struct {
	Position uint32
	Expected uint32
}

// Error returns the error message for a position conflict.
func (e *ErrPositionConflict) Error() string {
	return fmt.Sprintf("position %d does not extend id list (expected %d)", e.Position, e.Expected)
}

// Store maps vector index positions to product ids and product ids to
// their metadata. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	ids      []string            // position -> product id
	rows     []Metadata          // position -> metadata as recorded (nil if none)
	docs     map[string]Metadata // product id -> metadata (last write wins)
	inverted *invertedIndex      // field=value -> positions
}

// NewStore creates an empty metadata store.
func NewStore() *Store {
	return &Store{
		ids:      make([]string, 0),
		rows:     make([]Metadata, 0),
		docs:     make(map[string]Metadata),
		inverted: newInvertedIndex(),
	}
}

// Record associates position with productID and productID with md.
//
// position must be the next free slot (Count()); anything else returns
// ErrPositionConflict and leaves the store unchanged. Empty or nil md
// stores no fields; lookups for the id then report no metadata.
//
// Re-recording an existing productID at a new position keeps both
// positions searchable; the id's metadata is replaced by the last write.
func (s *Store) Record(position uint32, productID string, md Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(position) != len(s.ids) {
		return &ErrPositionConflict{Position: position, Expected: uint32(len(s.ids))}
	}

	if len(md) == 0 {
		md = nil
	}

	s.ids = append(s.ids, productID)
	s.rows = append(s.rows, md)
	if md != nil {
		s.docs[productID] = md
	}
	s.inverted.index(position, md)

	return nil
}

// ProductIDAt returns the product id recorded at position.
func (s *Store) ProductIDAt(position uint32) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(position) >= len(s.ids) {
		return "", &ErrPositionOutOfRange{Position: position, Count: len(s.ids)}
	}
	return s.ids[position], nil
}

// MetadataFor returns the metadata recorded for productID, or nil if the
// id has no metadata.
func (s *Store) MetadataFor(productID string) Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.docs[productID]
}

// Count returns the number of recorded positions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ids)
}

// FilterFunc returns a position predicate for the given filter set, built
// from the inverted index. A nil or empty filter set returns nil,
// meaning "accept all positions".
func (s *Store) FilterFunc(fs *FilterSet) func(position uint32) bool {
	if fs == nil || len(fs.terms) == 0 {
		return nil
	}

	s.mu.RLock()
	bm := s.inverted.match(fs)
	s.mu.RUnlock()

	return bm.Contains
}

// Snapshot returns copies of the ordered id list and the per-position
// metadata rows for serialization. Rows are position-aligned with ids, so
// a store rebuilt from them reproduces the live store exactly, including
// positions whose id was later re-recorded with different metadata. The
// metadata maps themselves are shared; callers must treat them as
// read-only.
func (s *Store) Snapshot() ([]string, []Metadata) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.ids))
	copy(ids, s.ids)

	rows := make([]Metadata, len(s.rows))
	copy(rows, s.rows)

	return ids, rows
}

// FromSnapshot rebuilds a store from a previously captured snapshot by
// replaying each position's record, so the metadata map and the inverted
// index come out identical to the live store the snapshot was taken from.
// Missing trailing rows are treated as positions without metadata.
func FromSnapshot(ids []string, rows []Metadata) *Store {
	s := NewStore()

	for i, id := range ids {
		var md Metadata
		if i < len(rows) {
			md = rows[i]
		}
		if len(md) == 0 {
			md = nil
		}

		s.ids = append(s.ids, id)
		s.rows = append(s.rows, md)
		if md != nil {
			s.docs[id] = md
		}
		s.inverted.index(uint32(i), md)
	}

	return s
}
