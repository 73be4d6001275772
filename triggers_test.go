package habits

import (
	"errors"
	"testing"
)

// triggerFixture builds a population where cluster 0 is perfectly
// separated by game phase and mistake type.
func triggerFixture() (records []MistakeRecord, labels []int) {
	for i := 0; i < 10; i++ {
		records = append(records, MistakeRecord{
			ID: int64(i + 1), CPL: 150, MoveNumber: 8,
			GamePhase: "Opening", MistakeType: "Blunder", PieceMoved: "KNIGHT",
		})
		labels = append(labels, 0)
	}
	phases := []string{"Middlegame", "Endgame"}
	types := []string{"Mistake", "Inaccuracy"}
	pieces := []string{"QUEEN", "ROOK", "PAWN"}
	for i := 0; i < 14; i++ {
		records = append(records, MistakeRecord{
			ID: int64(100 + i), CPL: float64(50 + i*10), MoveNumber: 20 + i,
			GamePhase:   phases[i%len(phases)],
			MistakeType: types[i%len(types)],
			PieceMoved:  pieces[i%len(pieces)],
		})
		labels = append(labels, -1)
	}
	return records, labels
}

func TestFindTriggers_SeparableCluster(t *testing.T) {
	records, labels := triggerFixture()
	pre := NewPreprocessor(DefaultSchema())
	enc, err := pre.FitEncoder(records)
	if err != nil {
		t.Fatalf("FitEncoder failed: %v", err)
	}

	trainer := NewTriggerTrainer(DefaultSchema())
	triggers, err := trainer.FindTriggers(enc, records, labels, 0)
	if err != nil {
		t.Fatalf("FindTriggers failed: %v", err)
	}
	if len(triggers) == 0 {
		t.Fatal("expected at least one trigger")
	}

	found := make(map[string]bool)
	for _, tr := range triggers {
		found[tr.Feature] = true
		if tr.Coefficient <= TriggerCoefficientThreshold {
			t.Errorf("trigger %s coefficient %v not strictly above threshold", tr.Feature, tr.Coefficient)
		}
	}
	if !found["game_phase_Opening"] {
		t.Errorf("expected game_phase_Opening among triggers, got %v", triggers)
	}
	if !found["mistake_type_Blunder"] {
		t.Errorf("expected mistake_type_Blunder among triggers, got %v", triggers)
	}
}

func TestFindTriggers_OrderedByCoefficient(t *testing.T) {
	records, labels := triggerFixture()
	pre := NewPreprocessor(DefaultSchema())
	enc, err := pre.FitEncoder(records)
	if err != nil {
		t.Fatalf("FitEncoder failed: %v", err)
	}

	trainer := NewTriggerTrainer(DefaultSchema())
	triggers, err := trainer.FindTriggers(enc, records, labels, 0)
	if err != nil {
		t.Fatalf("FindTriggers failed: %v", err)
	}

	for i := 1; i < len(triggers); i++ {
		prev, cur := triggers[i-1], triggers[i]
		if cur.Coefficient > prev.Coefficient {
			t.Errorf("triggers out of order at %d: %v before %v", i, prev, cur)
		}
		if cur.Coefficient == prev.Coefficient && cur.Feature < prev.Feature {
			t.Errorf("tie not broken lexicographically at %d: %v before %v", i, prev, cur)
		}
	}
}

func TestFindTriggers_Deterministic(t *testing.T) {
	records, labels := triggerFixture()
	pre := NewPreprocessor(DefaultSchema())
	enc, err := pre.FitEncoder(records)
	if err != nil {
		t.Fatalf("FitEncoder failed: %v", err)
	}

	trainer := NewTriggerTrainer(DefaultSchema())
	first, err := trainer.FindTriggers(enc, records, labels, 0)
	if err != nil {
		t.Fatalf("FindTriggers failed: %v", err)
	}
	second, err := trainer.FindTriggers(enc, records, labels, 0)
	if err != nil {
		t.Fatalf("FindTriggers failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("runs disagree: %d vs %d triggers", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("runs disagree at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestFindTriggers_EmptyControlSet(t *testing.T) {
	records, _ := triggerFixture()
	labels := make([]int, len(records))

	pre := NewPreprocessor(DefaultSchema())
	enc, err := pre.FitEncoder(records)
	if err != nil {
		t.Fatalf("FitEncoder failed: %v", err)
	}

	trainer := NewTriggerTrainer(DefaultSchema())
	if _, err := trainer.FindTriggers(enc, records, labels, 0); !errors.Is(err, ErrEmptyControlSet) {
		t.Errorf("expected ErrEmptyControlSet, got %v", err)
	}
}

func TestFindTriggers_NoMembers(t *testing.T) {
	records, labels := triggerFixture()
	pre := NewPreprocessor(DefaultSchema())
	enc, err := pre.FitEncoder(records)
	if err != nil {
		t.Fatalf("FitEncoder failed: %v", err)
	}

	trainer := NewTriggerTrainer(DefaultSchema())
	if _, err := trainer.FindTriggers(enc, records, labels, 7); err == nil {
		t.Error("expected error for a label with no members")
	}
}

func TestFindTriggers_NoTriggersWhenIndistinguishable(t *testing.T) {
	// Identical records on both sides give the model nothing to
	// separate on; no coefficient can clear the threshold.
	var records []MistakeRecord
	var labels []int
	for i := 0; i < 20; i++ {
		records = append(records, MistakeRecord{
			ID: int64(i + 1), CPL: 100, MoveNumber: 10,
			GamePhase: "Middlegame", MistakeType: "Mistake",
		})
		if i < 10 {
			labels = append(labels, 0)
		} else {
			labels = append(labels, -1)
		}
	}

	pre := NewPreprocessor(DefaultSchema())
	enc, err := pre.FitEncoder(records)
	if err != nil {
		t.Fatalf("FitEncoder failed: %v", err)
	}

	trainer := NewTriggerTrainer(DefaultSchema())
	if _, err := trainer.FindTriggers(enc, records, labels, 0); !errors.Is(err, ErrNoTriggers) {
		t.Errorf("expected ErrNoTriggers, got %v", err)
	}
}

func TestFindTriggers_LengthMismatch(t *testing.T) {
	records, _ := triggerFixture()
	pre := NewPreprocessor(DefaultSchema())
	enc, err := pre.FitEncoder(records)
	if err != nil {
		t.Fatalf("FitEncoder failed: %v", err)
	}

	trainer := NewTriggerTrainer(DefaultSchema())
	if _, err := trainer.FindTriggers(enc, records, []int{0}, 0); err == nil {
		t.Error("expected error for mismatched records and labels")
	}
}
