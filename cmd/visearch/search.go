package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/visearch"
	"github.com/hupe1980/visearch/codec"
	"github.com/hupe1980/visearch/metadata"
)

// Flag clamping bounds. Out-of-range flags are clamped rather than rejected
// so scripted callers get best-effort results instead of failures.
const (
	maxTopK = 20
	minTopK = 1
)

var searchCmd = &cobra.Command{
	Use:   "search [embedding.json]",
	Short: "Find products similar to a query embedding",
	Long: `Search the store with a query embedding read from a JSON file (an
array of floats matching the store's dimension).

Examples:
  visearch search query.json
  visearch search query.json --top-k 10 --threshold 0.5
  visearch search query.json --filter category=footwear`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("top-k", "k", visearch.DefaultTopK, "Max number of matches to return (clamped to [1,20])")
	searchCmd.Flags().Float64P("threshold", "t", visearch.DefaultThreshold, "Minimum similarity (clamped to [0,1])")
	searchCmd.Flags().StringArrayP("filter", "f", nil, "Metadata filter as field=value, repeatable (AND)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	topK, _ := cmd.Flags().GetInt("top-k")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	filterArgs, _ := cmd.Flags().GetStringArray("filter")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}

	var query []float32
	if err := codec.Default.Unmarshal(data, &query); err != nil {
		return fmt.Errorf("parse query embedding: %w", err)
	}

	filter, err := parseFilters(filterArgs)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}

	matches, err := store.Search(cmd.Context(), query, visearch.SearchOptions{
		TopK:      clampInt(topK, minTopK, maxTopK),
		Threshold: clampFloat(threshold, 0, 1),
		Filter:    filter,
	})
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		fmt.Println("No matches")
		return nil
	}

	for i, m := range matches {
		fmt.Printf("[%d] %s (similarity %.4f)\n", i+1, m.ProductID, m.Similarity)
		if name, ok := m.Metadata["name"].(string); ok {
			fmt.Printf("    name: %s\n", name)
		}
		if category, ok := m.Metadata["category"].(string); ok {
			fmt.Printf("    category: %s\n", category)
		}
	}

	return nil
}

func parseFilters(args []string) (*metadata.FilterSet, error) {
	if len(args) == 0 {
		return nil, nil
	}

	filters := make([]metadata.Filter, 0, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q, want field=value", arg)
		}
		filters = append(filters, metadata.Eq(field, value))
	}

	return metadata.NewFilterSet(filters...), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
