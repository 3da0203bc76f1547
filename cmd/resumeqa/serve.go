package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/app"
	chiTransport "github.com/kailas-cloud/resumeqa/internal/transport/chi"
	"github.com/kailas-cloud/resumeqa/internal/version"
)

var serveEnsureIndex bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP query API",
	Long: `Serve POST /v1/query, POST /v1/retrieve, GET /v1/categories, GET /health
and GET /metrics until SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveEnsureIndex, "ensure-index", false, "create the vector index on startup if missing")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting resumeqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_store", cfg.VectorStore.Driver),
	)

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveEnsureIndex {
		if err := a.Index().EnsureIndex(ctx, cfg.VectorStore.Index, cfg.Embedding.Dimensions); err != nil {
			return fmt.Errorf("ensure index %s: %w", cfg.VectorStore.Index, err)
		}
	}

	retriever, err := a.Retrieval()
	if err != nil {
		return err
	}
	server := chiTransport.NewServer(retriever, a.Answer(), a.Health(), logger).
		WithMaxTopK(cfg.Retrieval.MaxTopK).
		WithUsage(a.Usage())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
