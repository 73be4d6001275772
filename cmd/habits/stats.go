package main

import (
	"fmt"

	"github.com/fianchetto-labs/habits"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	Long: `Display statistics about the local habits store.

Example:
  habits stats
  habits stats --json`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	client, err := habits.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer func() { _ = client.Close() }()

	stats, err := client.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, stats)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Local Store Statistics")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "Users:          %d\n", stats.Users)
	fmt.Fprintf(out, "Games:          %d\n", stats.Games)
	fmt.Fprintf(out, "Mistakes:       %d\n", stats.Mistakes)
	fmt.Fprintf(out, "Habits:         %d\n", stats.Habits)
	fmt.Fprintf(out, "Schema version: %s\n", stats.SchemaVersion)
	return nil
}
