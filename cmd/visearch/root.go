package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/visearch"
	"github.com/hupe1980/visearch/blobstore"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "visearch",
	Short: "visearch - product image similarity search",
	Long: `visearch maintains a local store of product image embeddings and
answers similarity queries against it.

Embeddings are produced outside of visearch; the index command loads a
product catalog whose image_path entries point at precomputed embedding
files (JSON arrays of floats). Snapshots are written to a local data
directory and survive restarts.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.visearch.yaml)")
	rootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "directory for snapshot storage")
	rootCmd.PersistentFlags().Int("dimension", 1280, "embedding dimension of the store")
	rootCmd.PersistentFlags().String("compression", "none", "snapshot compression (none, zstd, lz4)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("dimension", rootCmd.PersistentFlags().Lookup("dimension"))
	_ = viper.BindPFlag("compression", rootCmd.PersistentFlags().Lookup("compression"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".visearch")
	}

	viper.SetEnvPrefix("VISEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".visearch"
	}
	return home + "/.visearch/data"
}

func logLevel() slog.Level {
	switch viper.GetString("log_level") {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// openStore builds the store from config and restores the latest snapshot.
// A missing snapshot means a fresh store; a corrupt one is a hard error.
func openStore(ctx context.Context) (*visearch.Store, error) {
	blobs, err := blobstore.NewLocalStore(viper.GetString("data_dir"))
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}

	store, err := visearch.New(viper.GetInt("dimension"),
		visearch.WithSnapshotStorage(blobs),
		visearch.WithCompression(viper.GetString("compression")),
		visearch.WithLogger(visearch.NewTextLogger(logLevel())),
	)
	if err != nil {
		return nil, err
	}

	if err := store.Load(ctx); err != nil {
		if errors.Is(err, visearch.ErrSnapshotNotFound) {
			return store, nil
		}
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	return store, nil
}
