package chesscom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newArchiveServer serves a two-month archive set, four games total,
// with chronological end times 100, 200, 300, 400.
func newArchiveServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/player/magnus/games/archives", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"archives": [%q, %q]}`,
			srv.URL+"/player/magnus/games/2025/04",
			srv.URL+"/player/magnus/games/2025/05")
	})
	mux.HandleFunc("/player/magnus/games/2025/04", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"games": [
			{"uuid": "g1", "end_time": 100, "pgn": "1. e4", "time_class": "blitz", "rated": true},
			{"uuid": "g2", "end_time": 200, "pgn": "1. d4", "time_class": "blitz", "rated": true}
		]}`)
	})
	mux.HandleFunc("/player/magnus/games/2025/05", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"games": [
			{"uuid": "g3", "end_time": 300, "pgn": "1. c4", "time_class": "rapid", "rated": false},
			{"uuid": "g4", "end_time": 400, "pgn": "1. Nf3", "time_class": "rapid", "rated": true}
		]}`)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestArchives(t *testing.T) {
	srv := newArchiveServer(t)
	client := NewClient("test-agent").WithBaseURL(srv.URL)

	archives, err := client.Archives(context.Background(), "magnus")
	if err != nil {
		t.Fatalf("Archives failed: %v", err)
	}
	if len(archives) != 2 {
		t.Fatalf("expected 2 archives, got %d", len(archives))
	}
}

func TestArchives_LowercasesUsername(t *testing.T) {
	srv := newArchiveServer(t)
	client := NewClient("test-agent").WithBaseURL(srv.URL)

	// chess.com archive URLs are case sensitive on the lowercased name.
	if _, err := client.Archives(context.Background(), "MAGNUS"); err != nil {
		t.Fatalf("Archives with mixed case failed: %v", err)
	}
}

func TestArchiveGames(t *testing.T) {
	srv := newArchiveServer(t)
	client := NewClient("test-agent").WithBaseURL(srv.URL)

	games, err := client.ArchiveGames(context.Background(), srv.URL+"/player/magnus/games/2025/04")
	if err != nil {
		t.Fatalf("ArchiveGames failed: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].UUID != "g1" || games[0].TimeClass != "blitz" || !games[0].Rated {
		t.Errorf("unexpected first game: %+v", games[0])
	}
	if games[0].EndedAt().Unix() != 100 {
		t.Errorf("EndedAt = %v", games[0].EndedAt())
	}
}

func TestRecentGames_NewestFirst(t *testing.T) {
	srv := newArchiveServer(t)
	client := NewClient("test-agent").WithBaseURL(srv.URL)

	games, err := client.RecentGames(context.Background(), "magnus", 0)
	if err != nil {
		t.Fatalf("RecentGames failed: %v", err)
	}
	if len(games) != 4 {
		t.Fatalf("expected 4 games, got %d", len(games))
	}
	want := []string{"g4", "g3", "g2", "g1"}
	for i, uuid := range want {
		if games[i].UUID != uuid {
			t.Errorf("game %d: expected %s, got %s", i, uuid, games[i].UUID)
		}
	}
}

func TestRecentGames_HonorsLimit(t *testing.T) {
	srv := newArchiveServer(t)
	client := NewClient("test-agent").WithBaseURL(srv.URL)

	games, err := client.RecentGames(context.Background(), "magnus", 3)
	if err != nil {
		t.Fatalf("RecentGames failed: %v", err)
	}
	if len(games) != 3 {
		t.Fatalf("expected 3 games, got %d", len(games))
	}
	if games[0].UUID != "g4" || games[2].UUID != "g2" {
		t.Errorf("unexpected window: %s .. %s", games[0].UUID, games[2].UUID)
	}
}

func TestClient_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"archives": []}`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient("habits-test (test@example.com)").WithBaseURL(srv.URL)
	if _, err := client.Archives(context.Background(), "magnus"); err != nil {
		t.Fatalf("Archives failed: %v", err)
	}
	if gotUA != "habits-test (test@example.com)" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code": 0, "message": "User not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := NewClient("test-agent").WithBaseURL(srv.URL)
	_, err := client.Archives(context.Background(), "nobody")
	if err == nil {
		t.Fatal("expected error for 404")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Operation != "list_archives" {
		t.Errorf("Operation = %q", apiErr.Operation)
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	t.Cleanup(srv.Close)

	client := NewClient("test-agent").WithBaseURL(srv.URL)
	_, err := client.Archives(context.Background(), "magnus")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := newArchiveServer(t)
	client := NewClient("test-agent").WithBaseURL(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Archives(ctx, "magnus")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type captureLogger struct {
	requests  []string
	responses []int
}

func (l *captureLogger) LogRequest(method, url string)    { l.requests = append(l.requests, url) }
func (l *captureLogger) LogResponse(statusCode, size int) { l.responses = append(l.responses, statusCode) }

func TestClient_LogsRequests(t *testing.T) {
	srv := newArchiveServer(t)
	logger := &captureLogger{}
	client := NewClient("test-agent").WithBaseURL(srv.URL).WithLogger(logger)

	if _, err := client.RecentGames(context.Background(), "magnus", 1); err != nil {
		t.Fatalf("RecentGames failed: %v", err)
	}
	// One archives listing plus one monthly fetch.
	if len(logger.requests) != 2 || len(logger.responses) != 2 {
		t.Errorf("expected 2 traced requests, got %d/%d", len(logger.requests), len(logger.responses))
	}
}
