package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/resumeqa/internal/app"
)

var (
	indexName  string
	indexForce bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
}

var indexEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the vector index if it does not exist and wait until it is ready",
	Args:  cobra.NoArgs,
	RunE:  runIndexEnsure,
}

var indexDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the vector index and every resume stored in it",
	Args:  cobra.NoArgs,
	RunE:  runIndexDrop,
}

func init() {
	indexEnsureCmd.Flags().StringVarP(&indexName, "index", "i", "", "index name (default from config)")
	indexDropCmd.Flags().StringVarP(&indexName, "index", "i", "", "index name (default from config)")
	indexDropCmd.Flags().BoolVar(&indexForce, "force", false, "confirm deletion")
	indexCmd.AddCommand(indexEnsureCmd, indexDropCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexEnsure(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	name := firstNonEmpty(indexName, cfg.VectorStore.Index)
	if err := a.Index().EnsureIndex(cmd.Context(), name, cfg.Embedding.Dimensions); err != nil {
		return fmt.Errorf("ensure index %s: %w", name, err)
	}
	fmt.Fprintf(os.Stdout, "Index %s ready on %s (dim=%d, metric=%s)\n",
		name, a.Index().Tool(), cfg.Embedding.Dimensions, a.Index().Metric())
	return nil
}

func runIndexDrop(cmd *cobra.Command, _ []string) error {
	if !indexForce {
		return errors.New("refusing to drop the index without --force")
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	name := firstNonEmpty(indexName, cfg.VectorStore.Index)
	if err := a.Index().DropIndex(cmd.Context(), name); err != nil {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	fmt.Fprintf(os.Stdout, "Index %s dropped from %s\n", name, a.Index().Tool())
	return nil
}
