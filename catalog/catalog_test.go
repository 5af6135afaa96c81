package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/visearch"
)

func TestParse(t *testing.T) {
	t.Run("valid catalog", func(t *testing.T) {
		products, err := Parse([]byte(`
products:
  - id: sneaker
    name: Road Runner
    category: footwear
    price: 89.99
    image_path: images/sneaker.png
  - id: backpack
    category: bags
    image_path: images/backpack.png
    image_url: https://cdn.example.com/backpack.png
`))
		require.NoError(t, err)
		require.Len(t, products, 2)
		require.Equal(t, "sneaker", products[0].ID)
		require.Equal(t, 89.99, products[0].Price)

		md := products[1].Metadata()
		assert.Equal(t, "bags", md["category"])
		assert.Equal(t, "https://cdn.example.com/backpack.png", md["image_url"])
		assert.NotContains(t, md, "name")
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := Parse([]byte("products:\n  - image_path: x.png\n"))
		require.ErrorContains(t, err, "id is required")
	})

	t.Run("missing image path", func(t *testing.T) {
		_, err := Parse([]byte("products:\n  - id: sneaker\n"))
		require.ErrorContains(t, err, "image_path is required")
	})

	t.Run("empty catalog", func(t *testing.T) {
		_, err := Parse([]byte("products: []\n"))
		require.ErrorContains(t, err, "no products")
	})

	t.Run("not yaml", func(t *testing.T) {
		_, err := Parse([]byte("{{"))
		require.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - id: sneaker\n    image_path: x.png\n"), 0o644))

	products, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, products, 1)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

// writeCatalogImages creates n fake image files and returns matching products.
func writeCatalogImages(t *testing.T, n int) []Product {
	t.Helper()

	dir := t.TempDir()
	products := make([]Product, n)
	for i := range products {
		path := filepath.Join(dir, fmt.Sprintf("img-%d.png", i))
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0o644))
		products[i] = Product{
			ID:        fmt.Sprintf("sku-%d", i),
			Category:  "test",
			ImagePath: path,
		}
	}
	return products
}

func TestIndexerIndexAll(t *testing.T) {
	ctx := context.Background()

	// Embeds the first image byte into a fixed-dimension vector.
	extractor := ExtractorFunc(func(_ context.Context, image []byte) ([]float32, error) {
		return []float32{float32(image[0]), 0, 0, 0}, nil
	})

	t.Run("indexes every product", func(t *testing.T) {
		store, err := visearch.New(4)
		require.NoError(t, err)

		products := writeCatalogImages(t, 10)

		indexed, err := NewIndexer(store, extractor, WithConcurrency(4)).IndexAll(ctx, products)
		require.NoError(t, err)
		require.Equal(t, 10, indexed)
		require.Equal(t, 10, store.Size())

		matches, err := store.Search(ctx, []float32{3, 0, 0, 0}, visearch.SearchOptions{TopK: 1, Threshold: 0.9})
		require.NoError(t, err)
		require.Len(t, matches, 1)
		require.Equal(t, "sku-3", matches[0].ProductID)
	})

	t.Run("extraction failure aborts", func(t *testing.T) {
		store, err := visearch.New(4)
		require.NoError(t, err)

		wantErr := errors.New("backend unavailable")
		var calls atomic.Int64
		failing := ExtractorFunc(func(_ context.Context, _ []byte) ([]float32, error) {
			if calls.Add(1) == 3 {
				return nil, wantErr
			}
			return []float32{1, 0, 0, 0}, nil
		})

		products := writeCatalogImages(t, 10)

		_, err = NewIndexer(store, failing, WithConcurrency(1)).IndexAll(ctx, products)
		require.ErrorIs(t, err, wantErr)
		require.ErrorContains(t, err, "sku-2")
	})

	t.Run("dimension mismatch from extractor surfaces", func(t *testing.T) {
		store, err := visearch.New(8)
		require.NoError(t, err)

		products := writeCatalogImages(t, 1)

		_, err = NewIndexer(store, extractor).IndexAll(ctx, products)

		var dm *visearch.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
	})

	t.Run("missing image file", func(t *testing.T) {
		store, err := visearch.New(4)
		require.NoError(t, err)

		products := []Product{{ID: "ghost", ImagePath: filepath.Join(t.TempDir(), "nope.png")}}

		_, err = NewIndexer(store, extractor).IndexAll(ctx, products)
		require.ErrorContains(t, err, "read image")
	})
}
