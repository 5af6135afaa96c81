package persistence

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies visearch index blobs (ASCII: "VIS1").
	MagicNumber = 0x56495331
	// FormatVersion is the current snapshot format version.
	FormatVersion = 1

	// ManifestName is the blob that points at the current snapshot.
	ManifestName = "CURRENT"
)

var (
	// ErrSnapshotNotFound is returned by Load when no snapshot has been
	// committed to the blob store yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotCorrupt is returned by Load when a committed snapshot fails
	// verification and cannot be trusted.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

// CorruptError wraps the detail of a failed snapshot verification. It matches
// ErrSnapshotCorrupt via errors.Is.
type CorruptError struct {
	Detail string
	Cause  error
}

func (e *CorruptError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("snapshot corrupt: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("snapshot corrupt: %s", e.Detail)
}

func (e *CorruptError) Is(target error) bool { return target == ErrSnapshotCorrupt }

func (e *CorruptError) Unwrap() error { return e.Cause }

func corruptf(cause error, format string, args ...any) error {
	return &CorruptError{Detail: fmt.Sprintf(format, args...), Cause: cause}
}

// BlobInfo describes one blob of a snapshot.
type BlobInfo struct {
	Name     string `json:"name"`
	Checksum uint32 `json:"checksum"` // CRC32 (IEEE) of the stored bytes
	Size     int64  `json:"size"`
}

// Manifest is the snapshot manifest committed under ManifestName.
//
// Version increases by one per snapshot and doubles as the blob name suffix,
// so blobs from different snapshots never collide.
type Manifest struct {
	FormatVersion int      `json:"format_version"`
	Version       uint64   `json:"version"`
	Codec         string   `json:"codec"`
	Compression   string   `json:"compression"`
	Dimension     int      `json:"dimension"`
	Count         int      `json:"count"`
	Index         BlobInfo `json:"index"`
	Metadata      BlobInfo `json:"metadata"`
}

func indexBlobName(version uint64) string {
	return fmt.Sprintf("index-%06d.bin", version)
}

func metadataBlobName(version uint64) string {
	return fmt.Sprintf("meta-%06d.bin", version)
}
