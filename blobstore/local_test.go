package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()

	t.Run("PutOpenRoundTrip", func(t *testing.T) {
		s, err := NewLocalStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, s.Put(ctx, "index-1.bin", []byte("payload")))

		r, err := s.Open(ctx, "index-1.bin")
		require.NoError(t, err)
		defer r.Close()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("OpenMissing", func(t *testing.T) {
		s, err := NewLocalStore(t.TempDir())
		require.NoError(t, err)

		_, err = s.Open(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateCommitsOnClose", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewLocalStore(dir)
		require.NoError(t, err)

		blob, err := s.Create(ctx, "snap.bin")
		require.NoError(t, err)
		_, err = blob.Write([]byte("half"))
		require.NoError(t, err)

		// Not visible before Close.
		_, err = s.Open(ctx, "snap.bin")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = blob.Write([]byte("-done"))
		require.NoError(t, err)
		require.NoError(t, blob.Close())

		r, err := s.Open(ctx, "snap.bin")
		require.NoError(t, err)
		defer r.Close()
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, []byte("half-done"), data)

		// No temp files left behind.
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("PutOverwritesAtomically", func(t *testing.T) {
		s, err := NewLocalStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, s.Put(ctx, "CURRENT", []byte("v1")))
		require.NoError(t, s.Put(ctx, "CURRENT", []byte("v2")))

		r, err := s.Open(ctx, "CURRENT")
		require.NoError(t, err)
		defer r.Close()
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), data)
	})

	t.Run("DeleteMissingIsNoError", func(t *testing.T) {
		s, err := NewLocalStore(t.TempDir())
		require.NoError(t, err)

		assert.NoError(t, s.Delete(ctx, "nope"))
	})

	t.Run("ListByPrefix", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewLocalStore(dir)
		require.NoError(t, err)

		require.NoError(t, s.Put(ctx, "index-1.bin", []byte("a")))
		require.NoError(t, s.Put(ctx, "index-2.bin", []byte("b")))
		require.NoError(t, s.Put(ctx, "meta-1.bin", []byte("c")))

		// Stray temp files must not be listed.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index-3.bin.tmp-123"), []byte("x"), 0o644))

		names, err := s.List(ctx, "index-")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"index-1.bin", "index-2.bin"}, names)
	})

	t.Run("NestedRootCreated", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "a", "b")
		_, err := NewLocalStore(root)
		require.NoError(t, err)

		_, err = os.Stat(root)
		assert.NoError(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		s := NewMemoryStore()

		blob, err := s.Create(ctx, "x")
		require.NoError(t, err)
		_, err = blob.Write([]byte("hello"))
		require.NoError(t, err)
		require.NoError(t, blob.Close())

		r, err := s.Open(ctx, "x")
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
	})

	t.Run("OpenMissing", func(t *testing.T) {
		s := NewMemoryStore()
		_, err := s.Open(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteAndList", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Put(ctx, "a-1", nil))
		require.NoError(t, s.Put(ctx, "a-2", nil))
		require.NoError(t, s.Put(ctx, "b-1", nil))
		require.NoError(t, s.Delete(ctx, "a-2"))

		names, err := s.List(ctx, "a-")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a-1"}, names)
	})
}
