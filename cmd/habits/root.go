package main

import (
	"github.com/fianchetto-labs/habits"
	"github.com/spf13/cobra"
)

var (
	cfgDBPath    string
	cfgStore     string
	cfgUserAgent string
	cfgDebug     bool
	outputJSON   bool
)

var rootCmd = &cobra.Command{
	Use:   "habits",
	Short: "Habits - chess mistake pattern discovery CLI",
	Long: `Habits finds recurring mistake patterns in your chess games.

It clusters annotated mistakes by positional context, extracts the
features that trigger each pattern, and turns them into plain-language
coaching feedback.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDBPath, "db-path", "", "Path to local habits database (default: derived from store)")
	rootCmd.PersistentFlags().StringVar(&cfgStore, "store", "", "Store ID to operate against (default: \"default\")")
	rootCmd.PersistentFlags().StringVar(&cfgUserAgent, "user-agent", "", "User-Agent for chess.com API requests")
	rootCmd.PersistentFlags().BoolVar(&cfgDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
}

// loadConfig layers flags over environment variables over defaults.
func loadConfig() habits.Config {
	cfg := habits.ConfigFromEnv()

	if cfgDBPath != "" {
		cfg.LocalPath = cfgDBPath
	}
	if cfgStore != "" {
		cfg.Store = cfgStore
	}
	if cfgUserAgent != "" {
		cfg.UserAgent = cfgUserAgent
	}
	if cfgDebug {
		cfg.Debug = true
	}

	return cfg
}
