// Package visearch is an embedded similarity store for product image
// embeddings.
//
// Products are added as (id, embedding, metadata) triples and queried by
// embedding: Search returns the most similar products with a similarity score
// in (0, 1], derived from exact L2 distance. The store keeps everything in
// memory and persists on demand through a pluggable blob store (local
// filesystem, in-memory, MinIO, or S3 with a DynamoDB commit table).
//
// Basic usage:
//
//	store, err := visearch.New(512)
//	if err != nil { ... }
//
//	_, err = store.AddProduct(ctx, "sku-123", embedding, visearch.Metadata{
//	    "category": "sneakers",
//	})
//
//	matches, err := store.Search(ctx, queryEmbedding, visearch.SearchOptions{
//	    TopK:      5,
//	    Threshold: 0.7,
//	})
package visearch
