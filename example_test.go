package visearch_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/visearch"
	"github.com/hupe1980/visearch/blobstore"
)

func Example() {
	ctx := context.Background()

	store, err := visearch.New(4)
	if err != nil {
		log.Fatal(err)
	}

	products := map[string][]float32{
		"sneaker":  {1, 0, 0, 0},
		"boot":     {0.9, 0.1, 0, 0},
		"backpack": {0, 0, 1, 0},
	}
	for id, embedding := range products {
		if _, err := store.AddProduct(ctx, id, embedding, visearch.Metadata{"id": id}); err != nil {
			log.Fatal(err)
		}
	}

	matches, err := store.Search(ctx, []float32{1, 0, 0, 0}, visearch.SearchOptions{
		TopK:      1,
		Threshold: 0.9,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(matches[0].ProductID)
	// Output: sneaker
}

func Example_snapshot() {
	ctx := context.Background()

	blobs := blobstore.NewMemoryStore()

	store, err := visearch.New(4, visearch.WithSnapshotStorage(blobs))
	if err != nil {
		log.Fatal(err)
	}

	if _, err := store.AddProduct(ctx, "sneaker", []float32{1, 0, 0, 0}, nil); err != nil {
		log.Fatal(err)
	}
	if err := store.Save(ctx); err != nil {
		log.Fatal(err)
	}

	restored, err := visearch.New(4, visearch.WithSnapshotStorage(blobs))
	if err != nil {
		log.Fatal(err)
	}
	if err := restored.Load(ctx); err != nil {
		log.Fatal(err)
	}

	fmt.Println(restored.Size())
	// Output: 1
}
