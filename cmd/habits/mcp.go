package main

import (
	"github.com/fianchetto-labs/habits"
	habitsmcp "github.com/fianchetto-labs/habits/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for coding agent integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio.

This allows coding agents to run habit analysis and browse results
directly.

Configuration in Claude Code (~/.claude/claude_desktop_config.json):

  {
    "mcpServers": {
      "habits": {
        "command": "habits",
        "args": ["mcp"],
        "env": {
          "HABITS_DB_PATH": "/path/to/habits.db"
        }
      }
    }
  }

Environment variables:
  HABITS_DB_PATH       Path to local SQLite database
  HABITS_STORE         Store ID (default: "default")
  CHESSCOM_USER_AGENT  User-Agent for chess.com API requests`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	// Client persists for the server lifetime
	client, err := habits.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	server := habitsmcp.NewServer(client)
	return server.Run()
}
