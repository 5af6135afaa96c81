package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// WritableBlob is a handle to a blob being written. The blob becomes
// visible to readers only when Close returns successfully; an abandoned
// handle leaves no partial blob behind.
type WritableBlob interface {
	io.Writer
	io.Closer
}

// BlobStore is an abstraction for durable snapshot storage.
//
// The contract every implementation must honor: a blob is either fully
// visible or absent. Create/Close and Put are the commit points; readers
// never observe half-written content.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Create starts writing a new blob. The write is committed by Close.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a small blob atomically in one call.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
