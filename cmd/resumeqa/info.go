package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/resumeqa/internal/domain/category"
	"github.com/kailas-cloud/resumeqa/internal/version"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the job categories the classifier can return",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		printCategories(os.Stdout)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Fprintln(os.Stdout, version.String())
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(versionCmd)
}

func printCategories(w io.Writer) {
	for _, c := range category.All() {
		fmt.Fprintln(w, c)
	}
}
