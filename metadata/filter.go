package metadata

// Filter is a single field=value equality condition on string metadata.
type Filter struct {
	Field string
	Value string
}

// Eq creates an equality filter for a string metadata field.
func Eq(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// FilterSet is a conjunction of filters: every term must match (AND logic).
type FilterSet struct {
	terms []Filter
}

// NewFilterSet creates a filter set from the given filters.
func NewFilterSet(filters ...Filter) *FilterSet {
	return &FilterSet{terms: filters}
}

// Terms returns the filters in the set.
func (fs *FilterSet) Terms() []Filter {
	return fs.terms
}
