package main

import (
	"fmt"

	"github.com/fianchetto-labs/habits"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <username>",
	Short: "Discover mistake habits for a user",
	Long: `Run the full habit discovery pipeline over a user's stored mistakes.

Mistakes are clustered by positional context, each cluster is explained
by its discriminative features, and the prior analysis is atomically
replaced with the new results.

Example:
  habits analyze hikaru
  habits analyze hikaru --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	client, err := habits.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer func() { _ = client.Close() }()

	username := args[0]

	var summary *habits.Summary
	err = runWithSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Analyzing mistakes for %s", username), func() error {
		var runErr error
		summary, runErr = client.Analyze(cmd.Context(), username)
		return runErr
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	return outputSummary(cmd, summary)
}
