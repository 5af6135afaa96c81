// Package distance provides vector distance calculations.
//
// # Supported Metrics
//
//   - SquaredL2: Squared Euclidean distance (ranking-equivalent to L2)
//   - L2: Euclidean distance (used for similarity transforms)
//   - Dot: Dot product (inner product)
//
// # Usage
//
//	dist := distance.L2(a, b)
//	sim := distance.Dot(a, b)
//	normalized, ok := distance.NormalizeL2Copy(vec)
package distance
