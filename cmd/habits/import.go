package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fianchetto-labs/habits"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <username> <file>",
	Short: "Import annotated mistakes from a JSON export",
	Long: `Load annotated mistakes for a user from a JSON export file.

Games referenced by the mistakes are created on first sight and
deduplicated by source game id. Use "-" to read from stdin.

Example:
  habits import hikaru mistakes.json
  cat mistakes.json | habits import hikaru -`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	client, err := habits.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer func() { _ = client.Close() }()

	var r io.Reader
	if args[1] == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	result, err := client.ImportMistakes(cmd.Context(), args[0], r)
	if err != nil {
		return fmt.Errorf("import mistakes: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, result)
	}

	out := cmd.OutOrStdout()
	printSuccess(out, "Imported %d mistakes (%d new games).", result.Mistakes, result.GamesCreated)
	for _, msg := range result.Errors {
		printWarning(out, "skipped: %s", msg)
	}
	return nil
}
