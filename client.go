package habits

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fianchetto-labs/habits/internal/chesscom"
)

// Client is the main interface for working with a habits store.
type Client struct {
	store   *Store
	config  Config
	archive *chesscom.Client
	debug   *DebugLogger
}

// New creates a habits client over a local store.
func New(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := NewStore(cfg.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	debug, err := NewDebugLogger(cfg.Debug, cfg.DebugLogPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("client: %w", err)
	}

	return &Client{
		store:   store,
		config:  cfg,
		archive: chesscom.NewClient(cfg.UserAgent).WithLogger(debug),
		debug:   debug,
	}, nil
}

// Close releases the underlying store and debug log.
func (c *Client) Close() error {
	err := c.store.Close()
	if cerr := c.debug.Close(); err == nil {
		err = cerr
	}
	return err
}

// Store exposes the underlying store for callers that need direct
// access, such as the MCP server.
func (c *Client) Store() *Store { return c.store }

// EnsureUser registers a chess username, returning its id.
func (c *Client) EnsureUser(ctx context.Context, username string) (int64, error) {
	return c.store.EnsureUser(ctx, username)
}

// Analyze runs the full habit discovery pipeline for a user: feature
// preprocessing, Gower dissimilarity, density clustering, trigger
// extraction and feedback synthesis, all inside one transaction that
// atomically replaces the user's prior analysis.
func (c *Client) Analyze(ctx context.Context, username string) (*Summary, error) {
	userID, err := c.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	pipeline := NewPipeline(DefaultSchema(), c.debug)
	return c.store.RunAnalysis(ctx, userID, func(tx AnalysisTx) (*Summary, error) {
		return pipeline.Run(ctx, tx, userID)
	})
}

// Habits returns the user's discovered habits.
func (c *Client) Habits(ctx context.Context, username string) ([]Habit, error) {
	userID, err := c.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return c.store.Habits(ctx, userID)
}

// FeedbackFor returns the synthesized feedback for one habit.
func (c *Client) FeedbackFor(ctx context.Context, habitID string) (*Feedback, error) {
	return c.store.FeedbackFor(ctx, habitID)
}

// ImportMistakes loads annotated mistakes for a user from an export
// file, creating the user if needed.
func (c *Client) ImportMistakes(ctx context.Context, username string, r io.Reader) (*ImportResult, error) {
	userID, err := c.store.EnsureUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return c.store.ImportMistakes(ctx, userID, r)
}

// ExportHabits writes the user's habits and feedback as JSON.
func (c *Client) ExportHabits(ctx context.Context, username string, w io.Writer) error {
	userID, err := c.store.UserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return c.store.ExportHabits(ctx, userID, username, w)
}

// ExportMistakes writes the user's mistakes as JSON in import format.
func (c *Client) ExportMistakes(ctx context.Context, username string, w io.Writer) error {
	userID, err := c.store.UserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return c.store.ExportMistakes(ctx, userID, w)
}

// FetchResult summarizes a game fetch.
type FetchResult struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
}

// FetchGames pulls recent games from the chess.com archive API and
// stores them, deduplicating against games already present. limit <= 0
// fetches everything available.
func (c *Client) FetchGames(ctx context.Context, username string, limit int) (*FetchResult, error) {
	userID, err := c.store.EnsureUser(ctx, username)
	if err != nil {
		return nil, err
	}

	c.debug.LogStage("fetch", "pulling archives for %s (limit %d)", username, limit)
	games, err := c.archive.RecentGames(ctx, username, limit)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{Fetched: len(games)}
	for _, g := range games {
		sourceID := g.UUID
		if sourceID == "" {
			// Old archives predate game uuids; fall back to the end
			// timestamp, which is unique enough per player.
			sourceID = strconv.FormatInt(g.EndTime, 10)
		}
		_, created, err := c.store.InsertGame(ctx, Game{
			UserID:       userID,
			Source:       "chess.com",
			SourceGameID: sourceID,
			GameURL:      g.URL,
			PGN:          g.PGN,
			GameDate:     g.EndedAt(),
		})
		if err != nil {
			return result, err
		}
		if created {
			result.Created++
		}
	}

	c.debug.LogStage("fetch", "stored %d new of %d fetched", result.Created, result.Fetched)
	return result, nil
}

// Stats returns statistics about the local store.
func (c *Client) Stats(ctx context.Context) (*StoreStats, error) {
	return c.store.Stats(ctx)
}
