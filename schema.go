package habits

// Feature column names. These match the mistake table columns and the
// keys used in import/export payloads.
const (
	ColCPL        = "cpl"
	ColMoveNumber = "move_number"

	ColMistakeType        = "mistake_type"
	ColMistakeCategory    = "mistake_category"
	ColGamePhase          = "game_phase"
	ColMaterialBalance    = "material_balance"
	ColBoardComplexity    = "board_complexity"
	ColKingSelfSafety     = "king_self_safety"
	ColKingOpponentStatus = "king_opponent_status"
	ColCastlingStatusSelf = "castling_status_self"
	ColPieceMoved         = "piece_moved"
	ColMoveType           = "move_type"
	ColPieceWasAttacked   = "piece_was_attacked"
	ColPieceWasDefended   = "piece_was_defended"
	ColPieceWasDefending  = "piece_was_defending"
	ColPieceWasPinned     = "piece_was_pinned"
)

// MissingToken is the sentinel substituted for null or empty categorical
// values. Every categorical value is coerced to a non-empty string token
// before any distance or encoding step.
const MissingToken = "None"

// FeatureSchema describes the fixed feature layout of a mistake record:
// which columns are numeric, which are categorical, how one-hot feature
// names partition into context and action trigger buckets, and the
// phrase table used when synthesizing feedback.
//
// The schema is constructed once and passed into the components that
// need it rather than read from package-level state.
type FeatureSchema struct {
	Numeric     []string
	Categorical []string

	// ContextPrefixes and ActionPrefixes partition one-hot feature
	// names (column name + "_" + value) into the situational and
	// behavioral trigger buckets.
	ContextPrefixes []string
	ActionPrefixes  []string

	// Translations maps one-hot feature names to human phrases.
	// Features without an entry fall back to a derived phrase.
	Translations map[string]string
}

// DefaultSchema returns the feature schema for annotated chess mistakes:
// 2 numeric and 13 categorical attributes.
func DefaultSchema() FeatureSchema {
	return FeatureSchema{
		Numeric: []string{ColCPL, ColMoveNumber},
		Categorical: []string{
			ColMistakeType, ColMistakeCategory, ColGamePhase,
			ColMaterialBalance, ColBoardComplexity, ColKingSelfSafety,
			ColKingOpponentStatus, ColCastlingStatusSelf, ColPieceMoved,
			ColMoveType, ColPieceWasAttacked, ColPieceWasDefended,
			ColPieceWasDefending, ColPieceWasPinned,
		},
		ContextPrefixes: []string{
			"game_phase_", "material_balance_", "board_complexity_",
			"castling_status_",
		},
		ActionPrefixes: []string{
			"mistake_type_", "mistake_category_",
			"piece_moved_", "move_type_", "piece_was_attacked_",
			"piece_was_defended_", "piece_was_defending_",
			"piece_was_pinned_", "king_self_safety_",
			"king_opponent_status_",
		},
		Translations: map[string]string{
			"game_phase_Middlegame":             "in the middlegame",
			"game_phase_Opening":                "in the opening",
			"game_phase_Endgame":                "in the endgame",
			"piece_moved_KNIGHT":                "you move your knight",
			"piece_moved_QUEEN":                 "you move your queen",
			"king_self_safety_Exposed":          "your king is exposed",
			"king_self_safety_Safe":             "your king is safe",
			"piece_was_attacked_True":           "your piece is under attack",
			"castling_status_self_Can_Castle":   "before you have castled",
			"castling_status_self_Has_Castled":  "after you have castled",
			"mistake_category_Positional_Error": "a positional error",
			"mistake_category_Hanging_Piece":    "a hanging piece",
		},
	}
}

// AttributeCount returns the total number of configured attributes.
func (s FeatureSchema) AttributeCount() int {
	return len(s.Numeric) + len(s.Categorical)
}

// IsContext reports whether a one-hot feature name belongs to the
// context (situational) trigger bucket.
func (s FeatureSchema) IsContext(feature string) bool {
	return matchesAnyPrefix(feature, s.ContextPrefixes)
}

// IsAction reports whether a one-hot feature name belongs to the
// action (behavioral) trigger bucket.
func (s FeatureSchema) IsAction(feature string) bool {
	return matchesAnyPrefix(feature, s.ActionPrefixes)
}

func matchesAnyPrefix(feature string, prefixes []string) bool {
	for _, p := range prefixes {
		if len(feature) >= len(p) && feature[:len(p)] == p {
			return true
		}
	}
	return false
}
