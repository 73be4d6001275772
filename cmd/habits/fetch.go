package main

import (
	"fmt"

	"github.com/fianchetto-labs/habits"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <username>",
	Short: "Fetch games from chess.com",
	Long: `Download a user's games from the chess.com published-data API and
store them locally. Already-stored games are skipped.

The chess.com API requires an identifying User-Agent; set one via
--user-agent or the CHESSCOM_USER_AGENT environment variable.

Example:
  habits fetch hikaru --limit 100
  habits fetch hikaru --limit 0    # everything available`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var fetchLimit int

func init() {
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 50, "Maximum games to fetch (0 for all)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	client, err := habits.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer func() { _ = client.Close() }()

	username := args[0]

	var result *habits.FetchResult
	err = runWithSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Fetching games for %s", username), func() error {
		var fetchErr error
		result, fetchErr = client.FetchGames(cmd.Context(), username, fetchLimit)
		return fetchErr
	})
	if err != nil {
		return fmt.Errorf("fetch games: %w", err)
	}

	if outputJSON {
		return outputAsJSON(cmd, result)
	}

	out := cmd.OutOrStdout()
	printSuccess(out, "Fetched %d games (%d new).", result.Fetched, result.Created)
	return nil
}
