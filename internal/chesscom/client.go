// Package chesscom fetches game archives from the chess.com published
// data API.
package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.chess.com/pub"

// Logger receives request traces when debug logging is enabled.
type Logger interface {
	LogRequest(method, url string)
	LogResponse(statusCode int, size int)
}

type nopLogger struct{}

func (nopLogger) LogRequest(string, string) {}
func (nopLogger) LogResponse(int, int)      {}

// Game is one finished game from a monthly archive.
type Game struct {
	URL       string `json:"url"`
	PGN       string `json:"pgn"`
	EndTime   int64  `json:"end_time"`
	TimeClass string `json:"time_class"`
	Rated     bool   `json:"rated"`
	UUID      string `json:"uuid"`
}

// EndedAt converts the archive's unix end timestamp.
func (g Game) EndedAt() time.Time {
	return time.Unix(g.EndTime, 0).UTC()
}

// APIError carries the HTTP status of a failed archive request.
type APIError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chesscom: %s failed (HTTP %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("chesscom: %s failed: %v", e.Operation, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Client talks to the chess.com published data API. Safe for
// concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     Logger
}

// NewClient creates an archive client. The chess.com API requires a
// contactable User-Agent; callers should pass one identifying their
// deployment.
func NewClient(userAgent string) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: nopLogger{},
	}
}

// WithHTTPClient sets a custom http.Client (for testing or custom timeouts).
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// WithBaseURL overrides the API base URL (for testing).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// WithLogger attaches a request trace logger.
func (c *Client) WithLogger(l Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// Archives returns the monthly archive URLs for a player, oldest first.
func (c *Client) Archives(ctx context.Context, username string) ([]string, error) {
	url := fmt.Sprintf("%s/player/%s/games/archives", c.baseURL, strings.ToLower(username))

	var payload struct {
		Archives []string `json:"archives"`
	}
	if err := c.getJSON(ctx, "list_archives", url, &payload); err != nil {
		return nil, err
	}
	return payload.Archives, nil
}

// ArchiveGames returns the games in one monthly archive.
func (c *Client) ArchiveGames(ctx context.Context, archiveURL string) ([]Game, error) {
	var payload struct {
		Games []Game `json:"games"`
	}
	if err := c.getJSON(ctx, "fetch_archive", archiveURL, &payload); err != nil {
		return nil, err
	}
	return payload.Games, nil
}

// RecentGames fetches games from the most recent archives until limit
// games are collected or the archives run out. Games come back newest
// first.
func (c *Client) RecentGames(ctx context.Context, username string, limit int) ([]Game, error) {
	archives, err := c.Archives(ctx, username)
	if err != nil {
		return nil, err
	}

	var games []Game
	for i := len(archives) - 1; i >= 0 && (limit <= 0 || len(games) < limit); i-- {
		monthly, err := c.ArchiveGames(ctx, archives[i])
		if err != nil {
			return nil, err
		}
		// Archives list games oldest first within a month.
		for j := len(monthly) - 1; j >= 0; j-- {
			games = append(games, monthly[j])
			if limit > 0 && len(games) >= limit {
				break
			}
		}
	}
	return games, nil
}

func (c *Client) getJSON(ctx context.Context, op, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &APIError{Operation: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.LogRequest(http.MethodGet, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Err: err}
	}
	c.logger.LogResponse(resp.StatusCode, len(body))

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", msg)}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
