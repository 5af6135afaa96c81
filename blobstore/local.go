package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/visearch/internal/mmap"
)

// LocalStore implements BlobStore on the local file system.
//
// Writes go to a temp file in the same directory and are committed with an
// atomic rename, so a crash mid-write leaves the previous blob (if any)
// intact. Reads are mmap-backed for zero-copy access.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory,
// creating it if necessary.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, name)
}

// Open opens a blob for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := mmap.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &mappedBlob{r: bytes.NewReader(m.Bytes()), m: m}, nil
}

// Create starts writing a new blob, committed atomically on Close.
func (s *LocalStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.root, name+".tmp-*")
	if err != nil {
		return nil, err
	}

	return &localWritableBlob{f: tmp, target: s.path(name)}, nil
}

// Put writes a small blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	blob, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := blob.Write(data); err != nil {
		_ = blob.Close()
		return err
	}
	return blob.Close()
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns the names of all blobs matching the prefix.
// Uncommitted temp files are excluded.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, ".tmp-") {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// mappedBlob serves reads from a memory mapping and unmaps on Close.
type mappedBlob struct {
	r *bytes.Reader
	m *mmap.Mapping
}

func (b *mappedBlob) Read(p []byte) (int, error) {
	return b.r.Read(p)
}

func (b *mappedBlob) Close() error {
	return b.m.Close()
}

// localWritableBlob buffers writes in a temp file; Close syncs and renames.
type localWritableBlob struct {
	f      *os.File
	target string
	failed bool
}

func (b *localWritableBlob) Write(p []byte) (int, error) {
	n, err := b.f.Write(p)
	if err != nil {
		b.failed = true
	}
	return n, err
}

func (b *localWritableBlob) Close() error {
	if b.failed {
		_ = b.f.Close()
		_ = os.Remove(b.f.Name())
		return nil
	}

	if err := b.f.Sync(); err != nil {
		_ = b.f.Close()
		_ = os.Remove(b.f.Name())
		return err
	}
	if err := b.f.Close(); err != nil {
		_ = os.Remove(b.f.Name())
		return err
	}
	if err := os.Rename(b.f.Name(), b.target); err != nil {
		_ = os.Remove(b.f.Name())
		return err
	}

	// Best-effort: fsync the directory so the rename itself is durable.
	if d, err := os.Open(filepath.Dir(b.target)); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	return nil
}
