// Package persistence saves and restores store snapshots through a blob store.
//
// A snapshot is a pair of blobs plus a manifest. The index blob holds the raw
// vector data in a compact binary layout, the metadata blob holds the product
// catalog serialized with the configured codec. The manifest (named CURRENT)
// records the blob names, per-blob checksums, and entry counts, and is always
// committed last: readers that open CURRENT see either the previous complete
// snapshot or the new complete snapshot, never a mix.
package persistence
