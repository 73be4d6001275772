package habits

import (
	"strings"
	"testing"
)

func TestCompose_ContextAndAction(t *testing.T) {
	synth := NewSynthesizer(DefaultSchema())
	triggers := TriggerSet{
		{Feature: "game_phase_Opening", Coefficient: 0.9},
		{Feature: "piece_moved_KNIGHT", Coefficient: 0.7},
	}
	members := []MistakeRecord{
		{ID: 11, CPL: 120},
		{ID: 12, CPL: 340},
		{ID: 13, CPL: 200},
	}

	fb := synth.Compose(triggers, 0.85, members)

	if fb.HabitName != "In the opening: You move your knight" {
		t.Errorf("unexpected habit name %q", fb.HabitName)
	}
	want := "We've found a recurring pattern (85% confidence): **in the opening**, you tend to make mistakes when **you move your knight**."
	if fb.Text != want {
		t.Errorf("unexpected feedback text:\n got %q\nwant %q", fb.Text, want)
	}
	if fb.ConfidencePct != 85 {
		t.Errorf("confidence pct = %d, want 85", fb.ConfidencePct)
	}
	if fb.PrimeExampleMistakeID != 12 {
		t.Errorf("prime example = %d, want 12 (max cpl)", fb.PrimeExampleMistakeID)
	}
}

func TestCompose_ActionOnly(t *testing.T) {
	synth := NewSynthesizer(DefaultSchema())
	triggers := TriggerSet{{Feature: "piece_was_attacked_True", Coefficient: 0.5}}

	fb := synth.Compose(triggers, 0.7, nil)

	if fb.HabitName != "Your piece is under attack Mistakes" {
		t.Errorf("unexpected habit name %q", fb.HabitName)
	}
	if !strings.Contains(fb.Text, "You have a pattern of making mistakes when **your piece is under attack**") {
		t.Errorf("unexpected feedback text %q", fb.Text)
	}
}

func TestCompose_ContextOnly(t *testing.T) {
	synth := NewSynthesizer(DefaultSchema())
	triggers := TriggerSet{{Feature: "game_phase_Endgame", Coefficient: 0.4}}

	fb := synth.Compose(triggers, 0.6, nil)

	if fb.HabitName != "In the endgame Mistakes" {
		t.Errorf("unexpected habit name %q", fb.HabitName)
	}
	if !strings.Contains(fb.Text, "You have a pattern of making mistakes **in the endgame**") {
		t.Errorf("unexpected feedback text %q", fb.Text)
	}
}

func TestCompose_NoRecognizableTriggers(t *testing.T) {
	synth := NewSynthesizer(DefaultSchema())

	fb := synth.Compose(nil, 0.5, nil)

	if fb.HabitName != "General Pattern" {
		t.Errorf("unexpected habit name %q", fb.HabitName)
	}
	if !strings.Contains(fb.Text, "could not isolate a single clear trigger") {
		t.Errorf("unexpected feedback text %q", fb.Text)
	}
	if fb.PrimeExampleMistakeID != 0 {
		t.Errorf("prime example = %d, want 0 for no members", fb.PrimeExampleMistakeID)
	}
}

func TestCompose_UntranslatedFeatureFallsBack(t *testing.T) {
	synth := NewSynthesizer(DefaultSchema())
	triggers := TriggerSet{{Feature: "game_phase_Unusual", Coefficient: 0.3}}

	fb := synth.Compose(triggers, 0.5, nil)

	if !strings.Contains(fb.Text, "**game phase unusual**") {
		t.Errorf("expected derived phrase for untranslated feature, got %q", fb.Text)
	}
}

func TestCompose_TriggerOrderDecidesBuckets(t *testing.T) {
	// The first context match and first action match in trigger order
	// win, not the later stronger-named ones.
	synth := NewSynthesizer(DefaultSchema())
	triggers := TriggerSet{
		{Feature: "mistake_category_Hanging_Piece", Coefficient: 0.9},
		{Feature: "piece_moved_QUEEN", Coefficient: 0.8},
		{Feature: "game_phase_Middlegame", Coefficient: 0.7},
		{Feature: "game_phase_Opening", Coefficient: 0.6},
	}

	fb := synth.Compose(triggers, 0.8, nil)

	if !strings.Contains(fb.Text, "**in the middlegame**") {
		t.Errorf("expected first context trigger to win, got %q", fb.Text)
	}
	if !strings.Contains(fb.Text, "**a hanging piece**") {
		t.Errorf("expected first action trigger to win, got %q", fb.Text)
	}
}

func TestPrimeExample_TieKeepsEarliest(t *testing.T) {
	members := []MistakeRecord{
		{ID: 5, CPL: 300},
		{ID: 9, CPL: 300},
		{ID: 2, CPL: 100},
	}
	if got := primeExample(members); got != 5 {
		t.Errorf("primeExample = %d, want 5", got)
	}
}
