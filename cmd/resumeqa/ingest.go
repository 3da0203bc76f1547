package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/resumeqa/internal/app"
	"github.com/kailas-cloud/resumeqa/internal/repository/checkpoint"
	ingestuc "github.com/kailas-cloud/resumeqa/internal/usecase/ingest"
)

var (
	ingestSource     string
	ingestIndex      string
	ingestBatch      int
	ingestResume     bool
	ingestCheckpoint string
	ingestPipeline   bool
	ingestDryRun     bool
	ingestRPS        float64
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed resumes from CSV or Parquet files and upsert them into the index",
	Long: `Read every row of the source (a file path or a glob such as "data/**/*.csv"),
embed the resume text in batches and upsert the vectors with their category into
the vector index. Rows get ids row_0, row_1, ... in read order unless the source
has an id column.

Examples:
  resumeqa ingest --source data/Resume.csv
  resumeqa ingest --source "data/*.parquet" --index resumes-index --batch 100
  resumeqa ingest --source data/Resume.csv --resume`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "", "source file or glob (required)")
	ingestCmd.Flags().StringVarP(&ingestIndex, "index", "i", "", "target index (default from config)")
	ingestCmd.Flags().IntVarP(&ingestBatch, "batch", "b", 0, "records per batch (default from config)")
	ingestCmd.Flags().BoolVar(&ingestResume, "resume", false, "continue after the last committed batch")
	ingestCmd.Flags().StringVar(&ingestCheckpoint, "checkpoint", "", "checkpoint file (default from config)")
	ingestCmd.Flags().BoolVar(&ingestPipeline, "pipeline", false, "embed the next batch while the current one is upserted")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "load and batch only, no external calls")
	ingestCmd.Flags().Float64Var(&ingestRPS, "rps", -1, "embedding requests per second, 0 = unlimited (default from config)")
	_ = ingestCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := ingestuc.Options{
		Source:     ingestSource,
		Index:      firstNonEmpty(ingestIndex, cfg.VectorStore.Index),
		BatchSize:  cfg.Ingest.BatchSize,
		Dimensions: cfg.Embedding.Dimensions,
		Resume:     ingestResume,
		Pipeline:   ingestPipeline || cfg.Ingest.Pipeline,
		DryRun:     ingestDryRun,
	}
	if ingestBatch > 0 {
		opts.BatchSize = ingestBatch
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.Ingest()

	cpPath := firstNonEmpty(ingestCheckpoint, cfg.Ingest.CheckpointPath)
	if err := os.MkdirAll(filepath.Dir(cpPath), 0o750); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	cp, err := checkpoint.Open(cpPath)
	if err != nil {
		return err //nolint:wrapcheck // path is in the message
	}
	defer func() { _ = cp.Close() }()
	svc = svc.WithCheckpoint(cp)

	rps := cfg.Ingest.RequestsPerSecond
	if ingestRPS >= 0 {
		rps = ingestRPS
	}
	if rps > 0 {
		svc = svc.WithLimiter(rate.NewLimiter(rate.Limit(rps), max(cfg.Ingest.Burst, 1)))
	}

	report, err := svc.Run(ctx, opts, newBarProgress(os.Stderr, "Ingesting"))
	if err != nil {
		logger.Error("Ingestion failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "\ncommitted %d batches (%d records) before the failure; rerun with --resume to continue\n",
			report.Batches, report.Records)
		return err
	}

	fmt.Fprintf(os.Stdout, "\nIngestion complete:\n")
	fmt.Fprintf(os.Stdout, "  Index:           %s\n", opts.Index)
	fmt.Fprintf(os.Stdout, "  Batches:         %d\n", report.Batches)
	fmt.Fprintf(os.Stdout, "  Records:         %d\n", report.Records)
	fmt.Fprintf(os.Stdout, "  Skipped rows:    %d\n", report.Skipped)
	if report.Resumed > 0 {
		fmt.Fprintf(os.Stdout, "  Resumed records: %d\n", report.Resumed)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
