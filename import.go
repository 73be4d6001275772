package habits

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// ImportMistake is one annotated mistake in import format. The game
// reference fields let imports carry mistakes for games the store has
// not seen yet; games are created on first reference and deduplicated
// on (source, source game id).
type ImportMistake struct {
	MistakeRecord

	Source       string    `json:"source"`
	SourceGameID string    `json:"source_game_id"`
	GameURL      string    `json:"game_url,omitempty"`
	GameDate     time.Time `json:"game_date"`
	PGN          string    `json:"pgn,omitempty"`
}

// ImportResult summarizes an import operation.
type ImportResult struct {
	Mistakes     int      `json:"mistakes"`
	GamesCreated int      `json:"games_created"`
	Errors       []string `json:"errors,omitempty"`
}

// ImportMistakes imports annotated mistakes for a user from a JSON
// export file. The mistakes array streams through a decoder so large
// files never load fully into memory. The whole import runs in one
// transaction; any database error rolls it back.
//
// Note: this holds the store's write lock for the full duration, which
// blocks other operations until the import completes.
func (s *Store) ImportMistakes(ctx context.Context, userID int64, r io.Reader) (*ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	dec := json.NewDecoder(r)
	result := &ImportResult{}

	token, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read opening token: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected opening brace, got %v", token)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	var version string
	var sawMistakes bool
	for dec.More() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		token, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read field name: %w", err)
		}
		fieldName, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("expected field name, got %v", token)
		}

		switch fieldName {
		case "version":
			if err := dec.Decode(&version); err != nil {
				return nil, fmt.Errorf("decode version: %w", err)
			}
			if version != ExportVersion {
				return nil, fmt.Errorf("unsupported export version %q (expected %q)", version, ExportVersion)
			}

		case "mistakes":
			sawMistakes = true
			if err := importMistakeArray(ctx, tx, dec, userID, result); err != nil {
				return result, fmt.Errorf("import mistakes: %w", err)
			}

		default:
			// Skip unknown fields
			var discard any
			if err := dec.Decode(&discard); err != nil {
				return nil, fmt.Errorf("decode %s: %w", fieldName, err)
			}
		}
	}

	if version == "" {
		return nil, fmt.Errorf("missing version field in export file")
	}
	if !sawMistakes {
		return nil, fmt.Errorf("missing mistakes field in export file")
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return result, nil
}

func importMistakeArray(ctx context.Context, tx *sql.Tx, dec *json.Decoder, userID int64, result *ImportResult) error {
	token, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read array open: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("expected array, got %v", token)
	}

	// Games repeat across mistakes from the same game; cache resolved
	// ids per import.
	gameIDs := make(map[string]int64)
	now := time.Now().UTC().Format(time.RFC3339)

	for dec.More() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var entry ImportMistake
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("decode mistake: %w", err)
		}
		if err := validateImportMistake(&entry); err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		key := entry.Source + "\x00" + entry.SourceGameID
		gameID, ok := gameIDs[key]
		if !ok {
			gameID, ok, err = ensureGameTx(ctx, tx, userID, &entry, now)
			if err != nil {
				return err
			}
			if ok {
				result.GamesCreated++
			}
			gameIDs[key] = gameID
		}

		m := entry.MistakeRecord
		m.GameID = gameID
		if _, err := insertMistakeTx(ctx, tx, &m, now); err != nil {
			return err
		}
		result.Mistakes++
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read array close: %w", err)
	}
	return nil
}

func validateImportMistake(m *ImportMistake) error {
	if m.Source == "" || m.SourceGameID == "" {
		return &ValidationError{Field: "source_game_id", Message: "mistake missing game reference"}
	}
	if m.PlayerColor != "white" && m.PlayerColor != "black" {
		return &ValidationError{Field: "player_color", Message: fmt.Sprintf("must be white or black, got %q", m.PlayerColor)}
	}
	if m.PriorFEN == "" {
		return &ValidationError{Field: "prior_fen", Message: "required"}
	}
	if m.MoveMade == "" {
		return &ValidationError{Field: "move_made", Message: "required"}
	}
	return nil
}

func ensureGameTx(ctx context.Context, tx *sql.Tx, userID int64, entry *ImportMistake, now string) (int64, bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO games (user_id, source, source_game_id, game_url, pgn_data, game_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, entry.Source, entry.SourceGameID, nullString(entry.GameURL), entry.PGN,
		entry.GameDate.UTC().Format(time.RFC3339), now)
	if err != nil {
		return 0, false, fmt.Errorf("insert game: %w", err)
	}
	rows, _ := res.RowsAffected()

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM games WHERE user_id = ? AND source = ? AND source_game_id = ?
	`, userID, entry.Source, entry.SourceGameID).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("fetch game id: %w", err)
	}
	return id, rows > 0, nil
}

func insertMistakeTx(ctx context.Context, tx *sql.Tx, m *MistakeRecord, now string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO mistakes (
			game_id, move_number, cpl, player_color, prior_fen, move_made, best_move,
			mistake_type, mistake_category, game_phase, material_balance, board_complexity,
			king_self_safety, king_opponent_status, castling_status_self, piece_moved,
			move_type, piece_was_attacked, piece_was_defended, piece_was_defending,
			piece_was_pinned, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.GameID, m.MoveNumber, m.CPL, m.PlayerColor, m.PriorFEN, m.MoveMade,
		nullString(m.BestMove),
		nullString(m.MistakeType), nullString(m.MistakeCategory), nullString(m.GamePhase),
		nullString(m.MaterialBalance), nullString(m.BoardComplexity),
		nullString(m.KingSelfSafety), nullString(m.KingOpponentStatus),
		nullString(m.CastlingStatusSelf), nullString(m.PieceMoved), nullString(m.MoveType),
		nullString(m.PieceWasAttacked), nullString(m.PieceWasDefended),
		nullString(m.PieceWasDefending), nullString(m.PieceWasPinned),
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert mistake: %w", err)
	}
	return res.LastInsertId()
}
