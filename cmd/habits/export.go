package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fianchetto-labs/habits"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <username>",
	Short: "Export habits or mistakes as JSON",
	Long: `Write a user's habits and feedback as JSON, or with --mistakes the
raw annotated mistakes in a format the import command accepts.

Example:
  habits export hikaru -o habits.json
  habits export hikaru --mistakes > mistakes.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportOutput   string
	exportMistakes bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportMistakes, "mistakes", false, "Export mistakes instead of habits")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	client, err := habits.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer func() { _ = client.Close() }()

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if exportMistakes {
		err = client.ExportMistakes(cmd.Context(), args[0], w)
	} else {
		err = client.ExportHabits(cmd.Context(), args[0], w)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if exportOutput != "" {
		printSuccess(cmd.OutOrStdout(), "Exported to %s", exportOutput)
	}
	return nil
}
