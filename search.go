package visearch

import (
	"math"

	"github.com/hupe1980/visearch/metadata"
)

// Default search parameters used by DefaultSearchOptions.
const (
	DefaultTopK      = 5
	DefaultThreshold = 0.7
)

// Match is a single search result.
type Match struct {
	// ProductID is the id the product was added with.
	ProductID string

	// Similarity is in (0, 1]; 1 means an exact embedding match.
	Similarity float64

	// Metadata is the product's metadata, nil if none was recorded.
	Metadata metadata.Metadata
}

// SearchOptions controls a Search call.
//
// The zero value is not valid; start from DefaultSearchOptions and override
// fields as needed.
type SearchOptions struct {
	// TopK is the maximum number of matches to return. Must be positive.
	TopK int

	// Threshold is the minimum similarity a match must reach, in [0, 1].
	// Matches below the threshold are dropped after ranking, so a high
	// threshold can return fewer than TopK matches.
	Threshold float64

	// Filter restricts candidates to products whose metadata matches every
	// filter in the set. Nil means no filtering.
	Filter *metadata.FilterSet
}

// DefaultSearchOptions returns the standard search parameters.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		TopK:      DefaultTopK,
		Threshold: DefaultThreshold,
	}
}

// Similarity converts an L2 distance to a similarity score in (0, 1].
//
// The mapping is exp(-distance): identical embeddings score 1, and the score
// decays monotonically with distance, so distance ordering and similarity
// ordering always agree.
func Similarity(distance float32) float64 {
	return math.Exp(-float64(distance))
}
