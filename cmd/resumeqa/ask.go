package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/resumeqa/internal/app"
)

var (
	askTopK int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question from the command line",
	Long: `Run classification, retrieval and answer synthesis for a single question and
print the category, the trace, the retrieved resumes and the cited answer.

Examples:
  resumeqa ask "Which candidates have Python experience?"
  resumeqa ask "Who managed a finance team?" --top-k 10 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of resumes to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	retriever, err := a.Retrieval()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	res, err := retriever.Retrieve(ctx, query, askTopK)
	if err != nil {
		return fmt.Errorf("retrieve: %w", err)
	}
	ans, err := a.Answer().Answer(ctx, query, res)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	rep := newReport(query, res, ans)
	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep) //nolint:wrapcheck // stdout
	}
	fmt.Fprintln(os.Stdout, renderReport(rep))
	return nil
}
