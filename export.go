package habits

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0"

// ExportHabit is a habit entry in export format, with its feedback
// inlined.
type ExportHabit struct {
	Habit
	Feedback *Feedback `json:"feedback,omitempty"`
}

// ExportHabits streams a user's habits and feedback as JSON to the
// writer.
func (s *Store) ExportHabits(ctx context.Context, userID int64, username string, w io.Writer) error {
	habits, err := s.Habits(ctx, userID)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	header := fmt.Sprintf("{\n  \"version\": %q,\n  \"exported_at\": %q,\n  \"username\": %q,\n  \"habits\": [",
		ExportVersion, time.Now().UTC().Format(time.RFC3339), username)
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	enc := json.NewEncoder(w)
	for i := range habits {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entry := ExportHabit{Habit: habits[i]}
		fb, err := s.feedbackFor(ctx, habits[i].ID)
		if err != nil && !errors.Is(err, ErrHabitNotFound) {
			return err
		}
		entry.Feedback = fb

		sep := ",\n"
		if i == 0 {
			sep = "\n"
		}
		if _, err := io.WriteString(w, sep); err != nil {
			return fmt.Errorf("write separator: %w", err)
		}
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encode habit: %w", err)
		}
	}

	if _, err := io.WriteString(w, "]\n}\n"); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return nil
}

// ExportMistakes streams a user's mistakes as JSON in the import
// format, so an export from one store can load into another.
func (s *Store) ExportMistakes(ctx context.Context, userID int64, w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	mistakes, err := fetchAllMistakes(ctx, s.db, userID)
	if err != nil {
		return err
	}

	games, err := s.gameRefs(ctx, userID)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("{\n  \"version\": %q,\n  \"exported_at\": %q,\n  \"mistakes\": [",
		ExportVersion, time.Now().UTC().Format(time.RFC3339))
	if _, err := io.WriteString(w, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	enc := json.NewEncoder(w)
	for i := range mistakes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entry := ImportMistake{MistakeRecord: mistakes[i]}
		if ref, ok := games[mistakes[i].GameID]; ok {
			entry.Source = ref.Source
			entry.SourceGameID = ref.SourceGameID
			entry.GameURL = ref.GameURL
			entry.GameDate = ref.GameDate
		}
		entry.GameID = 0 // ids are store-local

		sep := ",\n"
		if i == 0 {
			sep = "\n"
		}
		if _, err := io.WriteString(w, sep); err != nil {
			return fmt.Errorf("write separator: %w", err)
		}
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encode mistake: %w", err)
		}
	}

	if _, err := io.WriteString(w, "]\n}\n"); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return nil
}

type gameRef struct {
	Source       string
	SourceGameID string
	GameURL      string
	GameDate     time.Time
}

func (s *Store) gameRefs(ctx context.Context, userID int64) (map[int64]gameRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, source_game_id, game_url, game_date FROM games WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: query games: %w", err)
	}
	defer rows.Close()

	refs := make(map[int64]gameRef)
	for rows.Next() {
		var id int64
		var ref gameRef
		var url, date sql.NullString
		if err := rows.Scan(&id, &ref.Source, &ref.SourceGameID, &url, &date); err != nil {
			return nil, fmt.Errorf("store: scan game: %w", err)
		}
		ref.GameURL = url.String
		if date.Valid {
			ref.GameDate, _ = time.Parse(time.RFC3339, date.String)
		}
		refs[id] = ref
	}
	return refs, rows.Err()
}
