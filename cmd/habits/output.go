package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fianchetto-labs/habits"
	"github.com/spf13/cobra"
)

// outputAsJSON writes any value as formatted JSON to the command's stdout.
func outputAsJSON(cmd *cobra.Command, v interface{}) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError prints an error to stderr.
func outputError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", err)
}

// outputSummary prints an analysis summary in the configured format.
func outputSummary(cmd *cobra.Command, summary *habits.Summary) error {
	if outputJSON {
		return outputAsJSON(cmd, summary)
	}

	out := cmd.OutOrStdout()
	if summary.TotalMistakes < habits.MinRecordsForAnalysis {
		printWarning(out, "Not enough mistakes to analyze (%d found, need %d). Prior analysis left untouched.",
			summary.TotalMistakes, habits.MinRecordsForAnalysis)
		return nil
	}

	if summary.HabitsCreated == 0 {
		printInfo(out, "No recurring patterns found in %d mistakes.", summary.TotalMistakes)
	} else {
		printSuccess(out, "Identified %d habit(s) from %d mistakes.", summary.HabitsCreated, summary.TotalMistakes)
	}
	printMuted(out, "  clusters found: %d   noise: %d   skipped: %d",
		summary.ClustersFound, summary.NoiseRecords, summary.SkippedClusters)
	return nil
}

// outputHabits prints a habit list in the configured format.
func outputHabits(cmd *cobra.Command, list []habits.Habit) error {
	if outputJSON {
		if list == nil {
			list = []habits.Habit{}
		}
		return outputAsJSON(cmd, list)
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No habits identified yet. Run `habits analyze` first.")
		return nil
	}

	fmt.Fprintf(out, "Found %d habit(s):\n\n", len(list))
	for i, h := range list {
		printLabel(out, h.Name)
		fmt.Fprintf(out, " (%.0f%% confidence, %d mistakes)\n", h.Confidence*100, len(h.MistakeIDs))
		printMuted(out, "  id: %s   identified: %s", h.ID, h.DateIdentified.Format("2006-01-02"))
		if h.Description != "" {
			fmt.Fprintf(out, "  %s\n", h.Description)
		}
		if i < len(list)-1 {
			fmt.Fprintln(out)
		}
	}
	return nil
}

// outputFeedback prints synthesized feedback, rendering the emphasis
// markup when stdout is a terminal.
func outputFeedback(cmd *cobra.Command, fb *habits.Feedback) error {
	if outputJSON {
		return outputAsJSON(cmd, fb)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderMarkdown(fb.Text))
	if len(fb.Triggers) > 0 {
		names := make([]string, len(fb.Triggers))
		for i, t := range fb.Triggers {
			names[i] = t.Feature
		}
		printMuted(out, "\ntriggers: %s", strings.Join(names, ", "))
	}
	if fb.PrimeExampleMistakeID != 0 {
		printMuted(out, "prime example mistake: #%d", fb.PrimeExampleMistakeID)
	}
	return nil
}
