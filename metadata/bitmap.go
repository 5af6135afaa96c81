package metadata

import "github.com/RoaringBitmap/roaring/v2"

// Bitmap is a set of index positions backed by a Roaring Bitmap.
type Bitmap struct {
	rb *roaring.Bitmap
}

// NewBitmap creates a new empty bitmap.
func NewBitmap() *Bitmap {
	return &Bitmap{rb: roaring.New()}
}

// Add adds a position to the bitmap.
func (b *Bitmap) Add(position uint32) {
	b.rb.Add(position)
}

// Contains checks if a position is in the bitmap.
func (b *Bitmap) Contains(position uint32) bool {
	return b.rb.Contains(position)
}

// IsEmpty returns true if the bitmap is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Cardinality returns the number of positions in the bitmap.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{rb: b.rb.Clone()}
}

// And intersects the bitmap with other in place.
func (b *Bitmap) And(other *Bitmap) {
	b.rb.And(other.rb)
}

// invertedIndex maps field=value terms to the positions whose metadata
// carries that value. Only string-valued fields are indexed; other kinds
// are searchable through results but not filterable.
type invertedIndex struct {
	terms map[string]*Bitmap
}

func newInvertedIndex() *invertedIndex {
	return &invertedIndex{terms: make(map[string]*Bitmap)}
}

func termKey(field, value string) string {
	// NUL never appears in field names or values that survive JSON
	// round-trips, so it is a safe separator.
	return field + "\x00" + value
}

func (ix *invertedIndex) index(position uint32, md Metadata) {
	for field, v := range md {
		value, ok := v.(string)
		if !ok {
			continue
		}
		key := termKey(field, value)
		bm, ok := ix.terms[key]
		if !ok {
			bm = NewBitmap()
			ix.terms[key] = bm
		}
		bm.Add(position)
	}
}

// match returns the intersection of the bitmaps for every term in fs.
// Terms with no indexed positions yield an empty result.
func (ix *invertedIndex) match(fs *FilterSet) *Bitmap {
	var result *Bitmap
	for _, term := range fs.terms {
		bm, ok := ix.terms[termKey(term.Field, term.Value)]
		if !ok {
			return NewBitmap()
		}
		if result == nil {
			result = bm.Clone()
			continue
		}
		result.And(bm)
	}
	if result == nil {
		return NewBitmap()
	}
	return result
}
