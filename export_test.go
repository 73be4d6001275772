package habits

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestExportMistakes_RoundTripsThroughImport(t *testing.T) {
	source := newTestStore(t)
	ctx := context.Background()
	userID := seedMistakes(t, source, "magnus", []MistakeRecord{
		{
			MoveNumber: 12, CPL: 250, PlayerColor: "white",
			PriorFEN: "fen-a", MoveMade: "Nf3", BestMove: "d4",
			GamePhase: "Opening", MistakeType: "Blunder", PieceMoved: "KNIGHT",
		},
		{
			MoveNumber: 30, CPL: 90, PlayerColor: "black",
			PriorFEN: "fen-b", MoveMade: "Kd2",
		},
	})

	var buf bytes.Buffer
	if err := source.ExportMistakes(ctx, userID, &buf); err != nil {
		t.Fatalf("ExportMistakes failed: %v", err)
	}

	dest := newTestStore(t)
	destUser, err := dest.EnsureUser(ctx, "magnus")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	result, err := dest.ImportMistakes(ctx, destUser, &buf)
	if err != nil {
		t.Fatalf("ImportMistakes failed: %v", err)
	}
	if result.Mistakes != 2 || result.GamesCreated != 1 {
		t.Fatalf("unexpected import result: %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected import errors: %v", result.Errors)
	}

	got, err := dest.FetchAllMistakes(ctx, destUser)
	if err != nil {
		t.Fatalf("FetchAllMistakes failed: %v", err)
	}
	want, err := source.FetchAllMistakes(ctx, userID)
	if err != nil {
		t.Fatalf("FetchAllMistakes failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d mistakes after round trip, got %d", len(want), len(got))
	}
	for i := range want {
		w, g := want[i], got[i]
		// Ids are store-local; compare content.
		w.ID, g.ID = 0, 0
		w.GameID, g.GameID = 0, 0
		if w != g {
			t.Errorf("mistake %d changed in round trip:\n want %+v\n got  %+v", i, w, g)
		}
	}
}

func TestExportHabits_IncludesFeedback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	userID := seedMistakes(t, store, "magnus", clusterableRecords())

	summary, err := store.RunAnalysis(ctx, userID, func(tx AnalysisTx) (*Summary, error) {
		return NewPipeline(DefaultSchema(), nil).Run(ctx, tx, userID)
	})
	if err != nil {
		t.Fatalf("RunAnalysis failed: %v", err)
	}
	if summary.HabitsCreated == 0 {
		t.Fatal("analysis produced no habits")
	}

	var buf bytes.Buffer
	if err := store.ExportHabits(ctx, userID, "magnus", &buf); err != nil {
		t.Fatalf("ExportHabits failed: %v", err)
	}

	var export struct {
		Version    string        `json:"version"`
		ExportedAt string        `json:"exported_at"`
		Username   string        `json:"username"`
		Habits     []ExportHabit `json:"habits"`
	}
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("export is not valid JSON: %v\n%s", err, buf.String())
	}

	if export.Version != ExportVersion {
		t.Errorf("expected version %q, got %q", ExportVersion, export.Version)
	}
	if export.Username != "magnus" {
		t.Errorf("expected username magnus, got %q", export.Username)
	}
	if len(export.Habits) != summary.HabitsCreated {
		t.Fatalf("expected %d habits, got %d", summary.HabitsCreated, len(export.Habits))
	}
	for _, h := range export.Habits {
		if h.ID == "" || h.Name == "" {
			t.Errorf("exported habit missing fields: %+v", h.Habit)
		}
		if h.Feedback == nil {
			t.Errorf("habit %s exported without feedback", h.ID)
			continue
		}
		if h.Feedback.Text == "" || len(h.Feedback.Triggers) == 0 {
			t.Errorf("habit %s has incomplete feedback", h.ID)
		}
	}
}

func TestExportHabits_EmptyUserProducesValidJSON(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	userID, err := store.EnsureUser(ctx, "fresh")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}

	var buf bytes.Buffer
	if err := store.ExportHabits(ctx, userID, "fresh", &buf); err != nil {
		t.Fatalf("ExportHabits failed: %v", err)
	}

	var export struct {
		Habits []ExportHabit `json:"habits"`
	}
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("export is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(export.Habits) != 0 {
		t.Errorf("expected no habits, got %d", len(export.Habits))
	}
}
