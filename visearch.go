package visearch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/visearch/index/flat"
	"github.com/hupe1980/visearch/metadata"
	"github.com/hupe1980/visearch/persistence"
)

// Metadata is re-exported for convenience so callers don't need to import
// the metadata package for the common case.
type Metadata = metadata.Metadata

// Store is an embedded product similarity store.
//
// The vector index and the product metadata always describe the same set of
// products: every mutation updates both under a single write lock, and Load
// swaps both in one step. Reads take the read lock, so searches run
// concurrently with each other but never interleave with a mutation.
type Store struct {
	mu      sync.RWMutex
	idx     *flat.Flat
	meta    *metadata.Store
	persist *persistence.Manager

	dimension int
	logger    *Logger
	metrics   MetricsCollector
}

// New creates an empty store for embeddings of the given dimension.
func New(dimension int, optFns ...Option) (*Store, error) {
	opts := applyOptions(optFns)

	idx, err := flat.New(dimension)
	if err != nil {
		return nil, translateError(err)
	}

	s := &Store{
		idx:       idx,
		meta:      metadata.NewStore(),
		dimension: dimension,
		logger:    opts.logger,
		metrics:   opts.metricsCollector,
	}

	if opts.snapshotStorage != nil {
		mgr, err := persistence.New(opts.snapshotStorage,
			persistence.WithCodec(opts.codec),
			persistence.WithCompression(opts.compression),
		)
		if err != nil {
			return nil, err
		}
		s.persist = mgr
	}

	return s, nil
}

// Dimension returns the configured embedding dimension.
func (s *Store) Dimension() int {
	return s.dimension
}

// Size returns the number of stored products. Products added more than once
// are counted once per add.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.idx.Count()
}

// AddProduct stores a product embedding with optional metadata and returns
// its position.
//
// Adding the same product id again stores a second searchable embedding;
// metadata lookups for that id return the most recently added metadata.
// On any error the store is left unchanged.
func (s *Store) AddProduct(ctx context.Context, productID string, embedding []float32, md Metadata) (uint32, error) {
	start := time.Now()

	position, err := s.addProduct(ctx, productID, embedding, md)

	s.metrics.RecordAdd(time.Since(start), err)
	s.logger.LogAdd(ctx, productID, len(embedding), err)

	return position, err
}

func (s *Store) addProduct(ctx context.Context, productID string, embedding []float32, md Metadata) (uint32, error) {
	if productID == "" {
		return 0, ErrEmptyProductID
	}
	if len(embedding) != s.dimension {
		return 0, &ErrDimensionMismatch{Expected: s.dimension, Actual: len(embedding)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	position, err := s.idx.Add(ctx, embedding)
	if err != nil {
		return 0, translateError(err)
	}

	if err := s.meta.Record(position, productID, md); err != nil {
		// Add succeeded but Record failed; this only happens when the two
		// structures disagree about the next position, which a single write
		// lock rules out. Surface it loudly rather than limp on.
		return 0, fmt.Errorf("visearch: metadata out of sync with index: %w", err)
	}

	return position, nil
}

// Search returns up to opts.TopK products ranked by descending similarity to
// the query embedding, dropping matches below opts.Threshold.
//
// Ties in similarity are broken by insertion order, earliest first, so equal
// inputs always produce equal output. Searching an empty store returns no
// matches and no error.
func (s *Store) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	start := time.Now()

	matches, err := s.search(ctx, query, opts)

	s.metrics.RecordSearch(opts.TopK, time.Since(start), err)
	s.logger.LogSearch(ctx, opts.TopK, opts.Threshold, len(matches), err)

	return matches, err
}

func (s *Store) search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if opts.TopK <= 0 {
		return nil, ErrInvalidTopK
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, ErrInvalidThreshold
	}
	if len(query) != s.dimension {
		return nil, &ErrDimensionMismatch{Expected: s.dimension, Actual: len(query)}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := s.meta.FilterFunc(opts.Filter)

	results, err := s.idx.Search(ctx, query, opts.TopK, filter)
	if err != nil {
		return nil, translateError(err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		similarity := Similarity(r.Distance)
		if similarity < opts.Threshold {
			// Results arrive in ascending distance order, so everything
			// after the first miss is below the threshold too.
			break
		}

		productID, err := s.meta.ProductIDAt(r.Position)
		if err != nil {
			return nil, fmt.Errorf("visearch: metadata out of sync with index: %w", err)
		}

		matches = append(matches, Match{
			ProductID:  productID,
			Similarity: similarity,
			Metadata:   s.meta.MetadataFor(productID),
		})
	}

	return matches, nil
}

// Save persists the current state as a new snapshot.
//
// The snapshot captures the index and metadata as one consistent pair: both
// are frozen under the read lock, so a concurrent AddProduct lands entirely
// before or entirely after the snapshot, never inside it. Serialization and
// upload then run on the frozen pair without blocking writers.
func (s *Store) Save(ctx context.Context) error {
	if s.persist == nil {
		return ErrNoSnapshotStorage
	}

	start := time.Now()

	s.mu.RLock()
	idx := s.idx.Snapshot()
	ids, rows := s.meta.Snapshot()
	s.mu.RUnlock()

	meta := metadata.FromSnapshot(ids, rows)

	version, err := s.persist.Save(ctx, idx, meta)

	s.metrics.RecordSave(time.Since(start), err)
	s.logger.LogSave(ctx, version, idx.Count(), err)

	return err
}

// Load replaces the store's state with the most recent snapshot.
//
// Returns ErrSnapshotNotFound when no snapshot has been saved yet; the store
// is left unchanged in every error case.
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return ErrNoSnapshotStorage
	}

	start := time.Now()

	err := s.load(ctx)

	s.metrics.RecordLoad(time.Since(start), err)
	s.logger.LogLoad(ctx, s.Size(), err)

	return err
}

func (s *Store) load(ctx context.Context) error {
	idx, meta, err := s.persist.Load(ctx)
	if err != nil {
		return err
	}

	if idx.Dimension() != s.dimension {
		return &ErrDimensionMismatch{Expected: s.dimension, Actual: idx.Dimension()}
	}

	s.mu.Lock()
	s.idx = idx
	s.meta = meta
	s.mu.Unlock()

	return nil
}

// SnapshotVersion returns the version of the latest committed snapshot.
func (s *Store) SnapshotVersion(ctx context.Context) (uint64, error) {
	if s.persist == nil {
		return 0, ErrNoSnapshotStorage
	}
	return s.persist.Version(ctx)
}
