package main

import (
	"fmt"

	"github.com/fianchetto-labs/habits"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List a user's discovered habits",
	Long: `Display the habits identified by the most recent analysis.

Example:
  habits list hikaru
  habits list hikaru --json`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := habits.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer func() { _ = client.Close() }()

	list, err := client.Habits(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("list habits: %w", err)
	}

	return outputHabits(cmd, list)
}
