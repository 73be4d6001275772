// Package mcp exposes habit analysis over the Model Context Protocol
// so coding agents can run and browse analyses directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fianchetto-labs/habits"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with habits tools.
type Server struct {
	client    *habits.Client
	mcpServer *server.MCPServer
	session   *Session // short refs for habit ids surfaced this session
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server with habits tools registered.
func NewServer(client *habits.Client) *Server {
	s := &Server{
		client:  client,
		session: NewSession(),
	}

	s.mcpServer = server.NewMCPServer(
		"habits",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "habits_analyze", Description: "Run habit discovery over a user's stored chess mistakes, replacing the prior analysis"},
		{Name: "habits_list", Description: "List a user's discovered mistake habits with session references"},
		{Name: "habits_feedback", Description: "Get the coaching feedback and trigger features for one habit"},
		{Name: "habits_fetch", Description: "Fetch a user's recent games from chess.com into the local store"},
		{Name: "habits_stats", Description: "Get statistics about the local habits store"},
	}
}

// CallTool executes a tool by name with the given arguments.
// This is used for testing and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "habits_analyze":
		return s.handleAnalyze(ctx, args)
	case "habits_list":
		return s.handleList(ctx, args)
	case "habits_feedback":
		return s.handleFeedback(ctx, args)
	case "habits_fetch":
		return s.handleFetch(ctx, args)
	case "habits_stats":
		return s.handleStats(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("habits_analyze",
		mcp.WithDescription("Run habit discovery over a user's stored chess mistakes. Clusters mistakes by positional context, extracts trigger features, and atomically replaces the prior analysis. Needs at least 20 stored mistakes."),
		mcp.WithString("username",
			mcp.Description("Chess username whose mistakes to analyze"),
			mcp.Required(),
		),
	), s.mcpHandleAnalyze)

	s.mcpServer.AddTool(mcp.NewTool("habits_list",
		mcp.WithDescription("List a user's discovered mistake habits. Returns habits with session references (H1, H2, ...) usable with habits_feedback."),
		mcp.WithString("username",
			mcp.Description("Chess username whose habits to list"),
			mcp.Required(),
		),
	), s.mcpHandleList)

	s.mcpServer.AddTool(mcp.NewTool("habits_feedback",
		mcp.WithDescription("Get the coaching feedback for one habit: the synthesized explanation, trigger features, and the prime example mistake. Accepts session refs (H1, H2) from habits_list or raw habit ids."),
		mcp.WithString("habit",
			mcp.Description("Session ref (H1, H2, ...) or habit id"),
			mcp.Required(),
		),
	), s.mcpHandleFeedback)

	s.mcpServer.AddTool(mcp.NewTool("habits_fetch",
		mcp.WithDescription("Fetch a user's recent games from the chess.com archive API into the local store. Already-stored games are skipped."),
		mcp.WithString("username",
			mcp.Description("chess.com username to fetch games for"),
			mcp.Required(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum games to fetch (default: 50, 0 for all)"),
		),
	), s.mcpHandleFetch)

	s.mcpServer.AddTool(mcp.NewTool("habits_stats",
		mcp.WithDescription("Get statistics about the local habits store. Read-only."),
	), s.mcpHandleStats)
}

// MCP handlers that wrap internal handlers

func (s *Server) mcpHandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleAnalyze(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleList(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleFeedback(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleFetch(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleStats(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

// Internal handlers

func (s *Server) handleAnalyze(ctx context.Context, args map[string]any) (*ToolResult, error) {
	username, ok := args["username"].(string)
	if !ok || username == "" {
		return &ToolResult{Content: "username is required", IsError: true}, nil
	}

	summary, err := s.client.Analyze(ctx, username)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("analysis failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Content: formatSummary(summary)}, nil
}

func (s *Server) handleList(ctx context.Context, args map[string]any) (*ToolResult, error) {
	username, ok := args["username"].(string)
	if !ok || username == "" {
		return &ToolResult{Content: "username is required", IsError: true}, nil
	}

	list, err := s.client.Habits(ctx, username)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("list failed: %v", err), IsError: true}, nil
	}

	if len(list) == 0 {
		return &ToolResult{Content: "No habits identified yet. Run habits_analyze first."}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d habit(s):\n\n", len(list))
	for _, h := range list {
		ref := s.session.Track(h.ID)
		fmt.Fprintf(&b, "[%s] %s (%.0f%% confidence, %d mistakes)\n",
			ref, h.Name, h.Confidence*100, len(h.MistakeIDs))
		if h.Description != "" {
			fmt.Fprintf(&b, "    %s\n", h.Description)
		}
	}
	b.WriteString("\nUse habits_feedback with a session ref (H1, H2, ...) for details.")
	return &ToolResult{Content: b.String()}, nil
}

func (s *Server) handleFeedback(ctx context.Context, args map[string]any) (*ToolResult, error) {
	ref, ok := args["habit"].(string)
	if !ok || ref == "" {
		return &ToolResult{Content: "habit is required", IsError: true}, nil
	}

	habitID := ref
	if id, ok := s.session.Resolve(ref); ok {
		habitID = id
	}

	fb, err := s.client.FeedbackFor(ctx, habitID)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("feedback failed: %v", err), IsError: true}, nil
	}

	var b strings.Builder
	b.WriteString(fb.Text)
	if len(fb.Triggers) > 0 {
		b.WriteString("\n\nTriggers:")
		for _, t := range fb.Triggers {
			fmt.Fprintf(&b, "\n  %s (coefficient %.3f)", t.Feature, t.Coefficient)
		}
	}
	if fb.PrimeExampleMistakeID != 0 {
		fmt.Fprintf(&b, "\n\nPrime example mistake: #%d", fb.PrimeExampleMistakeID)
	}
	return &ToolResult{Content: b.String()}, nil
}

func (s *Server) handleFetch(ctx context.Context, args map[string]any) (*ToolResult, error) {
	username, ok := args["username"].(string)
	if !ok || username == "" {
		return &ToolResult{Content: "username is required", IsError: true}, nil
	}

	limit := 50
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	result, err := s.client.FetchGames(ctx, username, limit)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("fetch failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{
		Content: fmt.Sprintf("Fetched %d games (%d new).", result.Fetched, result.Created),
	}, nil
}

func (s *Server) handleStats(ctx context.Context, args map[string]any) (*ToolResult, error) {
	stats, err := s.client.Stats(ctx)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("stats failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{
		Content: fmt.Sprintf("Users: %d\nGames: %d\nMistakes: %d\nHabits: %d\nSchema version: %s",
			stats.Users, stats.Games, stats.Mistakes, stats.Habits, stats.SchemaVersion),
	}, nil
}

func formatSummary(summary *habits.Summary) string {
	if summary.TotalMistakes < habits.MinRecordsForAnalysis {
		return fmt.Sprintf("Not enough mistakes to analyze (%d found, need %d). Prior analysis left untouched.",
			summary.TotalMistakes, habits.MinRecordsForAnalysis)
	}

	var b strings.Builder
	if summary.HabitsCreated == 0 {
		fmt.Fprintf(&b, "No recurring patterns found in %d mistakes.", summary.TotalMistakes)
	} else {
		fmt.Fprintf(&b, "Identified %d habit(s) from %d mistakes.", summary.HabitsCreated, summary.TotalMistakes)
	}
	fmt.Fprintf(&b, "\nClusters found: %d, noise records: %d, skipped clusters: %d",
		summary.ClustersFound, summary.NoiseRecords, summary.SkippedClusters)
	return b.String()
}
