package visearch

import (
	"log/slog"

	"github.com/hupe1980/visearch/blobstore"
	"github.com/hupe1980/visearch/codec"
	"github.com/hupe1980/visearch/persistence"
)

type options struct {
	codec            codec.Codec
	compression      string
	snapshotStorage  blobstore.BlobStore
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Store constructor behavior.
type Option func(*options)

// WithCodec configures the codec used for metadata snapshot sections.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression applied to snapshot blobs.
// Accepted values are persistence.CompressionNone, CompressionZstd and
// CompressionLZ4.
func WithCompression(name string) Option {
	return func(o *options) {
		o.compression = name
	}
}

// WithSnapshotStorage configures where Save/Load persist the store.
//
// Any blobstore.BlobStore works: blobstore.NewLocalStore for a directory on
// disk, blobstore.NewMemoryStore for tests, or the minio/s3 stores for
// object storage.
func WithSnapshotStorage(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.snapshotStorage = store
	}
}

// WithSnapshotDir is a convenience wrapper configuring local directory
// snapshot storage. It panics if the directory cannot be created; use
// blobstore.NewLocalStore with WithSnapshotStorage to handle the error.
func WithSnapshotDir(dir string) Option {
	return func(o *options) {
		store, err := blobstore.NewLocalStore(dir)
		if err != nil {
			panic(err)
		}
		o.snapshotStorage = store
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      persistence.CompressionNone,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
