package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/hupe1980/visearch/catalog"
	"github.com/hupe1980/visearch/codec"
)

var indexCmd = &cobra.Command{
	Use:   "index [catalog.yaml]",
	Short: "Batch-load a product catalog into the store",
	Long: `Load a YAML product catalog, extract an embedding per product, and
save a new snapshot.

Each product's image_path must point at a precomputed embedding file: a
JSON array of floats matching the store's dimension, e.g. the output of an
offline feature extraction pipeline.

Example:
  visearch index catalog.yaml --concurrency 8 --rate-limit 100`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().IntP("concurrency", "c", 4, "Number of products processed in parallel")
	indexCmd.Flags().Float64P("rate-limit", "r", 0, "Max extractions per second (0 = unlimited)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	rateLimit, _ := cmd.Flags().GetFloat64("rate-limit")

	products, err := catalog.LoadFile(args[0])
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}

	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(rateLimit)
	}

	indexer := catalog.NewIndexer(store, embeddingFileExtractor{},
		catalog.WithConcurrency(concurrency),
		catalog.WithRateLimit(limit, 1),
	)

	indexed, err := indexer.IndexAll(cmd.Context(), products)
	if err != nil {
		return fmt.Errorf("indexed %d of %d products: %w", indexed, len(products), err)
	}

	if err := store.Save(cmd.Context()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	fmt.Printf("Indexed %d products (%d total in store)\n", indexed, store.Size())

	return nil
}

// embeddingFileExtractor reads precomputed embeddings: the "image" bytes are
// a JSON array of floats.
type embeddingFileExtractor struct{}

func (embeddingFileExtractor) Extract(_ context.Context, image []byte) ([]float32, error) {
	var embedding []float32
	if err := codec.Default.Unmarshal(image, &embedding); err != nil {
		return nil, fmt.Errorf("parse embedding file: %w", err)
	}
	return embedding, nil
}
