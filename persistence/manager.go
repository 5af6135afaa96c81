package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/visearch/blobstore"
	"github.com/hupe1980/visearch/codec"
	"github.com/hupe1980/visearch/index/flat"
	"github.com/hupe1980/visearch/metadata"
)

// Options configures a Manager.
type Options struct {
	// Codec serializes the metadata blob. Defaults to codec.Default.
	Codec codec.Codec

	// Compression is applied to both blobs. Defaults to CompressionNone.
	Compression string
}

// Manager saves and restores paired snapshots through a blob store.
//
// Every Save produces a fresh pair of versioned blobs and then commits the
// manifest; the blob store's Put of ManifestName is the linearization point.
// Blobs from the superseded snapshot are deleted best-effort after a
// successful commit.
type Manager struct {
	blobs       blobstore.BlobStore
	codec       codec.Codec
	compression string
}

// New creates a snapshot manager on top of the given blob store.
func New(blobs blobstore.BlobStore, optFns ...func(o *Options)) (*Manager, error) {
	opts := Options{
		Codec:       codec.Default,
		Compression: CompressionNone,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	switch opts.Compression {
	case CompressionNone, CompressionZstd, CompressionLZ4:
	default:
		return nil, fmt.Errorf("persistence: unknown compression %q", opts.Compression)
	}

	return &Manager{
		blobs:       blobs,
		codec:       opts.Codec,
		compression: opts.Compression,
	}, nil
}

// WithCodec sets the codec used for the metadata blob.
func WithCodec(c codec.Codec) func(o *Options) {
	return func(o *Options) {
		o.Codec = c
	}
}

// WithCompression sets the compression applied to snapshot blobs.
func WithCompression(name string) func(o *Options) {
	return func(o *Options) {
		o.Compression = name
	}
}

// metadataSnapshot is the serialized form of the metadata store: the
// ordered product id list plus the position-aligned metadata rows.
type metadataSnapshot struct {
	IDs  []string            `json:"ids"`
	Rows []metadata.Metadata `json:"rows"`
}

// countingWriter tracks the number of bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// Save writes a new snapshot of the index and metadata pair and commits it.
//
// Both blobs are uploaded concurrently; the manifest is committed only after
// both uploads succeed, so a failure at any point leaves the previous
// snapshot intact and current.
func (m *Manager) Save(ctx context.Context, idx *flat.Flat, meta *metadata.Store) (uint64, error) {
	if idx.Count() != meta.Count() {
		return 0, fmt.Errorf("persistence: index/metadata out of sync: %d vectors, %d entries", idx.Count(), meta.Count())
	}

	prev, err := m.currentManifest(ctx)
	if err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		return 0, err
	}

	var version uint64 = 1
	if prev != nil {
		version = prev.Version + 1
	}

	manifest := &Manifest{
		FormatVersion: FormatVersion,
		Version:       version,
		Codec:         m.codec.Name(),
		Compression:   m.compression,
		Dimension:     idx.Dimension(),
		Count:         idx.Count(),
	}

	ids, rows := meta.Snapshot()
	metaPayload, err := m.codec.Marshal(&metadataSnapshot{IDs: ids, Rows: rows})
	if err != nil {
		return 0, fmt.Errorf("persistence: marshal metadata: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		info, err := m.writeBlob(gctx, indexBlobName(version), func(w io.Writer) error {
			return encodeIndex(w, idx)
		})
		if err != nil {
			return fmt.Errorf("persistence: write index blob: %w", err)
		}
		manifest.Index = info
		return nil
	})

	g.Go(func() error {
		info, err := m.writeBlob(gctx, metadataBlobName(version), func(w io.Writer) error {
			_, err := w.Write(metaPayload)
			return err
		})
		if err != nil {
			return fmt.Errorf("persistence: write metadata blob: %w", err)
		}
		manifest.Metadata = info
		return nil
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}

	manifestData, err := codec.JSON{}.Marshal(manifest)
	if err != nil {
		return 0, fmt.Errorf("persistence: marshal manifest: %w", err)
	}

	if err := m.blobs.Put(ctx, ManifestName, manifestData); err != nil {
		return 0, fmt.Errorf("persistence: commit manifest: %w", err)
	}

	// The old snapshot is unreachable once the manifest is committed.
	// Deletion is best-effort; orphaned blobs only waste space.
	if prev != nil {
		_ = m.blobs.Delete(ctx, prev.Index.Name)
		_ = m.blobs.Delete(ctx, prev.Metadata.Name)
	}

	return version, nil
}

// writeBlob streams payload through compression into a new blob and returns
// its info. The checksum covers the stored (compressed) bytes.
func (m *Manager) writeBlob(ctx context.Context, name string, payload func(w io.Writer) error) (BlobInfo, error) {
	blob, err := m.blobs.Create(ctx, name)
	if err != nil {
		return BlobInfo{}, err
	}

	counter := &countingWriter{w: blob}
	checksum := NewChecksumWriter(counter)

	cw, err := compressWriter(m.compression, checksum)
	if err != nil {
		_ = blob.Close()
		return BlobInfo{}, err
	}

	if err := payload(cw); err != nil {
		_ = cw.Close()
		_ = blob.Close()
		return BlobInfo{}, err
	}

	if err := cw.Close(); err != nil {
		_ = blob.Close()
		return BlobInfo{}, err
	}

	if err := blob.Close(); err != nil {
		return BlobInfo{}, err
	}

	return BlobInfo{
		Name:     name,
		Checksum: checksum.Sum(),
		Size:     counter.n,
	}, nil
}

// Load restores the most recently committed snapshot.
//
// It returns ErrSnapshotNotFound when no snapshot has ever been committed,
// and ErrSnapshotCorrupt when the committed snapshot fails verification.
func (m *Manager) Load(ctx context.Context) (*flat.Flat, *metadata.Store, error) {
	manifest, err := m.currentManifest(ctx)
	if err != nil {
		return nil, nil, err
	}

	if manifest.FormatVersion != FormatVersion {
		return nil, nil, corruptf(nil, "unsupported manifest format version %d", manifest.FormatVersion)
	}

	c, ok := codec.ByName(manifest.Codec)
	if !ok {
		return nil, nil, corruptf(nil, "unknown codec %q", manifest.Codec)
	}

	indexData, err := m.readBlob(ctx, manifest.Index, manifest.Compression)
	if err != nil {
		return nil, nil, err
	}

	idx, err := decodeIndex(bytes.NewReader(indexData))
	if err != nil {
		return nil, nil, err
	}

	metaData, err := m.readBlob(ctx, manifest.Metadata, manifest.Compression)
	if err != nil {
		return nil, nil, err
	}

	var snap metadataSnapshot
	if err := c.Unmarshal(metaData, &snap); err != nil {
		return nil, nil, corruptf(err, "unmarshal metadata blob")
	}

	if idx.Count() != manifest.Count {
		return nil, nil, corruptf(nil, "index has %d vectors, manifest says %d", idx.Count(), manifest.Count)
	}
	if len(snap.IDs) != manifest.Count {
		return nil, nil, corruptf(nil, "metadata has %d entries, manifest says %d", len(snap.IDs), manifest.Count)
	}
	if idx.Dimension() != manifest.Dimension {
		return nil, nil, corruptf(nil, "index dimension %d, manifest says %d", idx.Dimension(), manifest.Dimension)
	}

	return idx, metadata.FromSnapshot(snap.IDs, snap.Rows), nil
}

// Version returns the version of the current snapshot, or ErrSnapshotNotFound.
func (m *Manager) Version(ctx context.Context) (uint64, error) {
	manifest, err := m.currentManifest(ctx)
	if err != nil {
		return 0, err
	}
	return manifest.Version, nil
}

// currentManifest reads and parses the committed manifest.
func (m *Manager) currentManifest(ctx context.Context) (*Manifest, error) {
	rc, err := m.blobs.Open(ctx, ManifestName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("persistence: open manifest: %w", err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("persistence: read manifest: %w", err)
	}

	var manifest Manifest
	if err := (codec.JSON{}).Unmarshal(data, &manifest); err != nil {
		return nil, corruptf(err, "unmarshal manifest")
	}

	return &manifest, nil
}

// readBlob reads a snapshot blob fully, verifies its checksum against the
// manifest, and returns the decompressed payload.
func (m *Manager) readBlob(ctx context.Context, info BlobInfo, compression string) ([]byte, error) {
	rc, err := m.blobs.Open(ctx, info.Name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, corruptf(err, "blob %s missing", info.Name)
		}
		return nil, fmt.Errorf("persistence: open blob %s: %w", info.Name, err)
	}
	defer func() { _ = rc.Close() }()

	checksum := NewChecksumReader(rc)
	stored, err := io.ReadAll(checksum)
	if err != nil {
		return nil, corruptf(err, "read blob %s", info.Name)
	}

	if err := checksum.Verify(info.Checksum); err != nil {
		return nil, corruptf(err, "blob %s", info.Name)
	}

	dr, err := compressReader(compression, bytes.NewReader(stored))
	if err != nil {
		return nil, corruptf(err, "blob %s", info.Name)
	}
	defer func() { _ = dr.Close() }()

	payload, err := io.ReadAll(dr)
	if err != nil {
		return nil, corruptf(err, "decompress blob %s", info.Name)
	}

	return payload, nil
}
