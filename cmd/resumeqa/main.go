// Command resumeqa answers questions about a resume corpus: it ingests resumes
// into a vector index, serves the query API and runs one-off queries.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
