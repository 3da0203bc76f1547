package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumeqa/internal/config"
	logpkg "github.com/kailas-cloud/resumeqa/internal/logger"
)

var (
	cfgFile  string
	envName  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "resumeqa",
	Short: "Question answering over a resume corpus",
	Long: `resumeqa classifies a question into one of 24 job categories, retrieves the
closest resumes of that category from a vector index and asks a chat model to
answer with [ID: <id>] citations.

Example usage:
  resumeqa ingest --source data/Resume.csv      # Embed and index resumes
  resumeqa ask "Who has Python experience?"     # One-off query
  resumeqa serve                                # HTTP API`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "environment name (default from ENV, then \"local\")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

// setup loads configuration, builds the process logger and attaches it to
// the command context so repositories log through it.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	env := envName
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logpkg.New(env, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), logger))
	return cfg, logger, nil
}
