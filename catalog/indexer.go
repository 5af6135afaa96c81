package catalog

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/visearch"
)

// Extractor turns a raw product image into an embedding vector.
//
// Implementations typically front a feature extraction model or an external
// embedding service. Extract must be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]float32, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, image []byte) ([]float32, error)

func (f ExtractorFunc) Extract(ctx context.Context, image []byte) ([]float32, error) {
	return f(ctx, image)
}

// IndexerOptions configures an Indexer.
type IndexerOptions struct {
	// Concurrency bounds the number of products processed in parallel.
	Concurrency int

	// RateLimit caps extraction calls per second; rate.Inf disables the cap.
	RateLimit rate.Limit

	// Burst is the rate limiter burst size.
	Burst int
}

// Indexer extracts embeddings for catalog products and adds them to a store.
type Indexer struct {
	store     *visearch.Store
	extractor Extractor
	limiter   *rate.Limiter
	workers   int
}

// NewIndexer creates an indexer writing into the given store.
func NewIndexer(store *visearch.Store, extractor Extractor, optFns ...func(o *IndexerOptions)) *Indexer {
	opts := IndexerOptions{
		Concurrency: 4,
		RateLimit:   rate.Inf,
		Burst:       1,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	return &Indexer{
		store:     store,
		extractor: extractor,
		limiter:   rate.NewLimiter(opts.RateLimit, opts.Burst),
		workers:   opts.Concurrency,
	}
}

// WithConcurrency sets the number of products processed in parallel.
func WithConcurrency(n int) func(o *IndexerOptions) {
	return func(o *IndexerOptions) {
		o.Concurrency = n
	}
}

// WithRateLimit caps extraction calls per second.
func WithRateLimit(limit rate.Limit, burst int) func(o *IndexerOptions) {
	return func(o *IndexerOptions) {
		o.RateLimit = limit
		o.Burst = burst
	}
}

// IndexAll extracts and stores every product, processing up to the
// configured concurrency in parallel.
//
// The first failure cancels the remaining work and is returned; products
// already added stay in the store. Returns the number of products indexed.
func (ix *Indexer) IndexAll(ctx context.Context, products []Product) (int, error) {
	var indexed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)

	for _, p := range products {
		g.Go(func() error {
			if err := ix.indexOne(gctx, p); err != nil {
				return fmt.Errorf("catalog: product %s: %w", p.ID, err)
			}
			indexed.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(indexed.Load()), err
	}

	return int(indexed.Load()), nil
}

func (ix *Indexer) indexOne(ctx context.Context, p Product) error {
	if err := ix.limiter.Wait(ctx); err != nil {
		return err
	}

	image, err := os.ReadFile(p.ImagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	embedding, err := ix.extractor.Extract(ctx, image)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	if _, err := ix.store.AddProduct(ctx, p.ID, embedding, p.Metadata()); err != nil {
		return err
	}

	return nil
}
