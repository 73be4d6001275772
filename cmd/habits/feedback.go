package main

import (
	"fmt"

	"github.com/fianchetto-labs/habits"
	"github.com/spf13/cobra"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <habit-id>",
	Short: "Show coaching feedback for a habit",
	Long: `Display the synthesized coaching feedback for one habit, including
the trigger features and the prime example mistake.

Habit ids come from the list command.

Example:
  habits feedback 01J8ZQ5X0M3N9P2R4T6V8W0Y2A
  habits feedback 01J8ZQ5X0M3N9P2R4T6V8W0Y2A --json`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	client, err := habits.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer func() { _ = client.Close() }()

	fb, err := client.FeedbackFor(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get feedback: %w", err)
	}

	return outputFeedback(cmd, fb)
}
