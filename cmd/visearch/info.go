package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/visearch"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show store size, dimension and snapshot version",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	store, err := openStore(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Data dir:  %s\n", viper.GetString("data_dir"))
	fmt.Printf("Dimension: %d\n", store.Dimension())
	fmt.Printf("Products:  %d\n", store.Size())

	version, err := store.SnapshotVersion(cmd.Context())
	switch {
	case errors.Is(err, visearch.ErrSnapshotNotFound):
		fmt.Println("Snapshot:  none")
	case err != nil:
		return err
	default:
		fmt.Printf("Snapshot:  v%d\n", version)
	}

	return nil
}
