// Package catalog batch-loads product catalogs into a visearch store.
//
// A catalog is a YAML list of products pointing at image files. Feature
// extraction is pluggable through the Extractor interface; the package
// itself never decodes images.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/visearch/metadata"
)

// Product is one catalog entry.
type Product struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Category  string  `yaml:"category"`
	Price     float64 `yaml:"price"`
	ImagePath string  `yaml:"image_path"`
	ImageURL  string  `yaml:"image_url"`
}

// Metadata returns the product's attributes as store metadata.
// Empty fields are omitted.
func (p Product) Metadata() metadata.Metadata {
	md := metadata.Metadata{}
	if p.Name != "" {
		md["name"] = p.Name
	}
	if p.Category != "" {
		md["category"] = p.Category
	}
	if p.Price != 0 {
		md["price"] = p.Price
	}
	if p.ImageURL != "" {
		md["image_url"] = p.ImageURL
	}
	return md
}

func (p Product) validate() error {
	if p.ID == "" {
		return errors.New("product id is required")
	}
	if p.ImagePath == "" {
		return fmt.Errorf("product %s: image_path is required", p.ID)
	}
	return nil
}

// catalogFile is the on-disk YAML layout.
type catalogFile struct {
	Products []Product `yaml:"products"`
}

// LoadFile reads and validates a YAML product catalog.
func LoadFile(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses a YAML product catalog.
func Parse(data []byte) ([]Product, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}

	if len(file.Products) == 0 {
		return nil, errors.New("catalog: no products")
	}

	for i, p := range file.Products {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("catalog: entry %d: %w", i, err)
		}
	}

	return file.Products, nil
}
