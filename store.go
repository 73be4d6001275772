package habits

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fianchetto-labs/habits/internal/store/migrations"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Store manages the local SQLite habits database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string

	// activeRuns guards the clear-then-rebuild analysis against
	// concurrent execution for the same user.
	activeRuns map[int64]bool
}

// NewStore opens or creates a local habits store.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &Store{db: db, path: path, activeRuns: make(map[int64]bool)}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("store: run migrations: %w", err)
	}

	// Set schema version if not set
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)
	`, schemaVersion)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// EnsureUser returns the id for a chess username, creating the user on
// first sight.
func (s *Store) EnsureUser(ctx context.Context, username string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (chess_username, created_at) VALUES (?, ?)
	`, username, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("store: insert user: %w", err)
	}
	return s.userByUsername(ctx, username)
}

// UserByUsername resolves a chess username to its user id.
// Returns ErrUserNotFound for unknown usernames.
func (s *Store) UserByUsername(ctx context.Context, username string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	return s.userByUsername(ctx, username)
}

func (s *Store) userByUsername(ctx context.Context, username string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE chess_username = ?`, username,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("store: fetch user: %w", err)
	}
	return id, nil
}

// InsertGame stores a source game, deduplicating on
// (user, source, source game id). The second return reports whether the
// game was newly created.
func (s *Store) InsertGame(ctx context.Context, g Game) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO games (user_id, source, source_game_id, game_url, pgn_data, game_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		g.UserID,
		g.Source,
		g.SourceGameID,
		nullString(g.GameURL),
		g.PGN,
		g.GameDate.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, false, fmt.Errorf("store: insert game: %w", err)
	}

	rows, _ := res.RowsAffected()
	var id int64
	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM games WHERE user_id = ? AND source = ? AND source_game_id = ?
	`, g.UserID, g.Source, g.SourceGameID).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("store: fetch game id: %w", err)
	}
	return id, rows > 0, nil
}

// InsertMistakes stores a batch of annotated mistakes in one
// transaction.
func (s *Store) InsertMistakes(ctx context.Context, mistakes []MistakeRecord) error {
	if len(mistakes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range mistakes {
		id, err := insertMistakeTx(ctx, tx, &mistakes[i], now)
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
		mistakes[i].ID = id
	}

	return tx.Commit()
}

// FetchAllMistakes returns every mistake belonging to any game owned by
// the user, unfiltered by prior habit assignment.
func (s *Store) FetchAllMistakes(ctx context.Context, userID int64) ([]MistakeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return fetchAllMistakes(ctx, s.db, userID)
}

// Habits returns the user's habits with their linked mistake ids, in
// identification order.
func (s *Store) Habits(ctx context.Context, userID int64) ([]Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, cluster_label, habit_name, description, confidence, date_identified, date_remedied
		FROM habits WHERE user_id = ? ORDER BY date_identified, cluster_label
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: query habits: %w", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		var h Habit
		var desc, remedied sql.NullString
		var identified string
		if err := rows.Scan(&h.ID, &h.UserID, &h.ClusterLabel, &h.Name, &desc, &h.Confidence, &identified, &remedied); err != nil {
			return nil, fmt.Errorf("store: scan habit: %w", err)
		}
		h.Description = desc.String
		h.DateIdentified, _ = time.Parse(time.RFC3339, identified)
		if remedied.Valid {
			if t, err := time.Parse(time.RFC3339, remedied.String); err == nil {
				h.DateRemedied = &t
			}
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate habits: %w", err)
	}

	for i := range habits {
		ids, err := s.mistakeIDsForHabit(ctx, habits[i].ID)
		if err != nil {
			return nil, err
		}
		habits[i].MistakeIDs = ids
	}
	return habits, nil
}

func (s *Store) mistakeIDsForHabit(ctx context.Context, habitID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM mistakes WHERE habit_id = ? ORDER BY id`, habitID)
	if err != nil {
		return nil, fmt.Errorf("store: query habit mistakes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan mistake id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FeedbackFor returns the synthesized feedback for a habit.
// Returns ErrHabitNotFound when no feedback exists for the id.
func (s *Store) FeedbackFor(ctx context.Context, habitID string) (*Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.feedbackFor(ctx, habitID)
}

func (s *Store) feedbackFor(ctx context.Context, habitID string) (*Feedback, error) {
	var fb Feedback
	var triggersJSON, generated string
	var prime sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT habit_id, feedback_text, triggers_json, prime_example_mistake_id, generated_at
		FROM feedback WHERE habit_id = ?
	`, habitID).Scan(&fb.HabitID, &fb.Text, &triggersJSON, &prime, &generated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: fetch feedback: %w", err)
	}

	if err := json.Unmarshal([]byte(triggersJSON), &fb.Triggers); err != nil {
		return nil, fmt.Errorf("store: decode triggers: %w", err)
	}
	fb.PrimeExampleMistakeID = prime.Int64
	fb.GeneratedAt, _ = time.Parse(time.RFC3339, generated)
	return &fb, nil
}

// Stats returns statistics about the local store.
func (s *Store) Stats(ctx context.Context) (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	stats := &StoreStats{}
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM users`, &stats.Users},
		{`SELECT COUNT(*) FROM games`, &stats.Games},
		{`SELECT COUNT(*) FROM mistakes`, &stats.Mistakes},
		{`SELECT COUNT(*) FROM habits`, &stats.Habits},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("store: stats: %w", err)
		}
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = 'schema_version'`,
	).Scan(&stats.SchemaVersion); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	return stats, nil
}

// RunAnalysis executes fn against a single transaction spanning the
// whole analysis run: clearing prior results through writing all new
// habit, feedback and link records. If fn returns an error every write
// rolls back, leaving the user's prior analysis intact.
//
// Concurrent runs for the same user are refused with
// ErrAnalysisInProgress since clear-then-rebuild is unsafe under
// overlap.
func (s *Store) RunAnalysis(ctx context.Context, userID int64, fn func(tx AnalysisTx) (*Summary, error)) (*Summary, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	if s.activeRuns[userID] {
		s.mu.Unlock()
		return nil, ErrAnalysisInProgress
	}
	s.activeRuns[userID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.activeRuns, userID)
		s.mu.Unlock()
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin analysis transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	summary, err := fn(&analysisTx{tx: tx})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit analysis: %w", err)
	}
	return summary, nil
}

// analysisTx adapts one *sql.Tx to the pipeline's store contract.
type analysisTx struct {
	tx *sql.Tx
}

func (t *analysisTx) FetchAllMistakes(ctx context.Context, userID int64) ([]MistakeRecord, error) {
	return fetchAllMistakes(ctx, t.tx, userID)
}

func (t *analysisTx) ClearPriorAnalysis(ctx context.Context, userID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE mistakes SET habit_id = NULL
		WHERE game_id IN (SELECT id FROM games WHERE user_id = ?)
	`, userID)
	if err != nil {
		return fmt.Errorf("unlink mistakes: %w", err)
	}

	// Feedback rows go explicitly rather than relying on the cascade.
	_, err = t.tx.ExecContext(ctx, `
		DELETE FROM feedback WHERE habit_id IN (SELECT id FROM habits WHERE user_id = ?)
	`, userID)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `DELETE FROM habits WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete habits: %w", err)
	}
	return nil
}

func (t *analysisTx) CreateHabit(ctx context.Context, userID int64, clusterLabel int, name, description string, confidence float64) (string, error) {
	id := ulid.Make().String()
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO habits (id, user_id, cluster_label, habit_name, description, confidence, date_identified)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, userID, clusterLabel, name, nullString(description), confidence,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert habit: %w", err)
	}
	return id, nil
}

func (t *analysisTx) CreateFeedback(ctx context.Context, habitID, text string, triggers TriggerSet, primeExampleMistakeID int64) error {
	triggersJSON, err := json.Marshal(triggers)
	if err != nil {
		return fmt.Errorf("encode triggers: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO feedback (habit_id, feedback_text, triggers_json, prime_example_mistake_id, generated_at)
		VALUES (?, ?, ?, ?, ?)
	`, habitID, text, string(triggersJSON), primeExampleMistakeID,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func (t *analysisTx) LinkMistakes(ctx context.Context, habitID string, mistakeIDs []int64) error {
	for _, id := range mistakeIDs {
		if _, err := t.tx.ExecContext(ctx,
			`UPDATE mistakes SET habit_id = ? WHERE id = ?`, habitID, id); err != nil {
			return fmt.Errorf("link mistake %d: %w", id, err)
		}
	}
	return nil
}

// querier abstracts *sql.DB and *sql.Tx for shared read paths.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func fetchAllMistakes(ctx context.Context, q querier, userID int64) ([]MistakeRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			m.id, m.game_id, m.move_number, m.cpl, m.player_color, m.prior_fen, m.move_made, m.best_move,
			m.mistake_type, m.mistake_category, m.game_phase, m.material_balance, m.board_complexity,
			m.king_self_safety, m.king_opponent_status, m.castling_status_self, m.piece_moved,
			m.move_type, m.piece_was_attacked, m.piece_was_defended, m.piece_was_defending, m.piece_was_pinned
		FROM mistakes m
		WHERE m.game_id IN (SELECT id FROM games WHERE user_id = ?)
		ORDER BY m.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: query mistakes: %w", err)
	}
	defer rows.Close()

	var mistakes []MistakeRecord
	for rows.Next() {
		var m MistakeRecord
		var optional [15]sql.NullString
		if err := rows.Scan(
			&m.ID, &m.GameID, &m.MoveNumber, &m.CPL, &m.PlayerColor, &m.PriorFEN, &m.MoveMade,
			&optional[0], &optional[1], &optional[2], &optional[3], &optional[4], &optional[5],
			&optional[6], &optional[7], &optional[8], &optional[9], &optional[10], &optional[11],
			&optional[12], &optional[13], &optional[14],
		); err != nil {
			return nil, fmt.Errorf("store: scan mistake: %w", err)
		}
		m.BestMove = optional[0].String
		m.MistakeType = optional[1].String
		m.MistakeCategory = optional[2].String
		m.GamePhase = optional[3].String
		m.MaterialBalance = optional[4].String
		m.BoardComplexity = optional[5].String
		m.KingSelfSafety = optional[6].String
		m.KingOpponentStatus = optional[7].String
		m.CastlingStatusSelf = optional[8].String
		m.PieceMoved = optional[9].String
		m.MoveType = optional[10].String
		m.PieceWasAttacked = optional[11].String
		m.PieceWasDefended = optional[12].String
		m.PieceWasDefending = optional[13].String
		m.PieceWasPinned = optional[14].String
		mistakes = append(mistakes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate mistakes: %w", err)
	}
	return mistakes, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
