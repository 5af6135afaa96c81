package persistence

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/visearch/blobstore"
	"github.com/hupe1980/visearch/codec"
	"github.com/hupe1980/visearch/index/flat"
	"github.com/hupe1980/visearch/metadata"
)

func buildFixture(t *testing.T) (*flat.Flat, *metadata.Store) {
	t.Helper()

	idx, err := flat.New(4)
	require.NoError(t, err)

	meta := metadata.NewStore()

	ctx := context.Background()
	vectors := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
	ids := []string{"shoe-red", "shoe-blue", "bag-black"}

	for i, vec := range vectors {
		pos, err := idx.Add(ctx, vec)
		require.NoError(t, err)
		require.NoError(t, meta.Record(pos, ids[i], metadata.Metadata{"category": "footwear"}))
	}

	return idx, meta
}

func readBlobBytes(t *testing.T, store blobstore.BlobStore, name string) []byte {
	t.Helper()

	rc, err := store.Open(context.Background(), name)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	return data
}

func TestManagerRoundTrip(t *testing.T) {
	ctx := context.Background()

	stores := map[string]func(t *testing.T) blobstore.BlobStore{
		"memory": func(t *testing.T) blobstore.BlobStore { return blobstore.NewMemoryStore() },
		"local": func(t *testing.T) blobstore.BlobStore {
			store, err := blobstore.NewLocalStore(t.TempDir())
			require.NoError(t, err)
			return store
		},
	}

	compressions := []string{CompressionNone, CompressionZstd, CompressionLZ4}

	for storeName, newStore := range stores {
		for _, compression := range compressions {
			t.Run(storeName+"/"+compression, func(t *testing.T) {
				store := newStore(t)

				mgr, err := New(store, WithCompression(compression))
				require.NoError(t, err)

				idx, meta := buildFixture(t)

				version, err := mgr.Save(ctx, idx, meta)
				require.NoError(t, err)
				require.Equal(t, uint64(1), version)

				loadedIdx, loadedMeta, err := mgr.Load(ctx)
				require.NoError(t, err)

				require.Equal(t, idx.Count(), loadedIdx.Count())
				require.Equal(t, idx.Dimension(), loadedIdx.Dimension())

				for pos := 0; pos < idx.Count(); pos++ {
					want, err := idx.VectorAt(uint32(pos))
					require.NoError(t, err)
					got, err := loadedIdx.VectorAt(uint32(pos))
					require.NoError(t, err)
					assert.Equal(t, want, got)

					wantID, err := meta.ProductIDAt(uint32(pos))
					require.NoError(t, err)
					gotID, err := loadedMeta.ProductIDAt(uint32(pos))
					require.NoError(t, err)
					assert.Equal(t, wantID, gotID)
				}

				assert.Equal(t, "footwear", loadedMeta.MetadataFor("shoe-red")["category"])
			})
		}
	}
}

func TestManagerLoadMissing(t *testing.T) {
	mgr, err := New(blobstore.NewMemoryStore())
	require.NoError(t, err)

	_, _, err = mgr.Load(context.Background())
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestManagerVersioning(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	mgr, err := New(store)
	require.NoError(t, err)

	_, err = mgr.Version(ctx)
	require.ErrorIs(t, err, ErrSnapshotNotFound)

	idx, meta := buildFixture(t)

	for want := uint64(1); want <= 3; want++ {
		version, err := mgr.Save(ctx, idx, meta)
		require.NoError(t, err)
		require.Equal(t, want, version)
	}

	version, err := mgr.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), version)

	// Superseded blobs are cleaned up after each commit.
	names, err := store.List(ctx, "index-")
	require.NoError(t, err)
	require.Equal(t, []string{"index-000003.bin"}, names)
}

func TestManagerSaveCountMismatch(t *testing.T) {
	ctx := context.Background()

	mgr, err := New(blobstore.NewMemoryStore())
	require.NoError(t, err)

	idx, err := flat.New(4)
	require.NoError(t, err)
	_, err = idx.Add(ctx, []float32{1, 2, 3, 4})
	require.NoError(t, err)

	_, err = mgr.Save(ctx, idx, metadata.NewStore())
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of sync")
}

func TestManagerCorruption(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Manager, blobstore.BlobStore) {
		store := blobstore.NewMemoryStore()
		mgr, err := New(store)
		require.NoError(t, err)

		idx, meta := buildFixture(t)
		_, err = mgr.Save(ctx, idx, meta)
		require.NoError(t, err)

		return mgr, store
	}

	t.Run("flipped byte in index blob", func(t *testing.T) {
		mgr, store := setup(t)

		data := readBlobBytes(t, store, "index-000001.bin")
		data[len(data)/2] ^= 0xFF
		require.NoError(t, store.Put(ctx, "index-000001.bin", data))

		_, _, err := mgr.Load(ctx)
		require.ErrorIs(t, err, ErrSnapshotCorrupt)
	})

	t.Run("truncated metadata blob", func(t *testing.T) {
		mgr, store := setup(t)

		data := readBlobBytes(t, store, "meta-000001.bin")
		require.NoError(t, store.Put(ctx, "meta-000001.bin", data[:len(data)/2]))

		_, _, err := mgr.Load(ctx)
		require.ErrorIs(t, err, ErrSnapshotCorrupt)
	})

	t.Run("missing index blob", func(t *testing.T) {
		mgr, store := setup(t)

		require.NoError(t, store.Delete(ctx, "index-000001.bin"))

		_, _, err := mgr.Load(ctx)
		require.ErrorIs(t, err, ErrSnapshotCorrupt)
	})

	t.Run("manifest count mismatch", func(t *testing.T) {
		mgr, store := setup(t)

		data := readBlobBytes(t, store, ManifestName)

		var manifest Manifest
		require.NoError(t, (codec.JSON{}).Unmarshal(data, &manifest))
		manifest.Count = 99

		tampered, err := codec.JSON{}.Marshal(&manifest)
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, ManifestName, tampered))

		_, _, err = mgr.Load(ctx)
		require.ErrorIs(t, err, ErrSnapshotCorrupt)
	})

	t.Run("garbage manifest", func(t *testing.T) {
		mgr, store := setup(t)

		require.NoError(t, store.Put(ctx, ManifestName, []byte("not json")))

		_, _, err := mgr.Load(ctx)
		require.ErrorIs(t, err, ErrSnapshotCorrupt)
	})
}
