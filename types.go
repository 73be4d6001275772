package habits

import "time"

// MistakeRecord is one flagged suboptimal move, annotated with the
// positional and tactical context in which it was played.
type MistakeRecord struct {
	ID         int64   `json:"id"`
	GameID     int64   `json:"game_id,omitempty"`
	MoveNumber int     `json:"move_number"`
	CPL        float64 `json:"cpl"`

	PlayerColor string `json:"player_color"`
	PriorFEN    string `json:"prior_fen"`
	MoveMade    string `json:"move_made"`
	BestMove    string `json:"best_move,omitempty"`

	MistakeType        string `json:"mistake_type"`
	MistakeCategory    string `json:"mistake_category"`
	GamePhase          string `json:"game_phase"`
	MaterialBalance    string `json:"material_balance"`
	BoardComplexity    string `json:"board_complexity"`
	KingSelfSafety     string `json:"king_self_safety"`
	KingOpponentStatus string `json:"king_opponent_status"`
	CastlingStatusSelf string `json:"castling_status_self"`
	PieceMoved         string `json:"piece_moved"`
	MoveType           string `json:"move_type"`
	PieceWasAttacked   string `json:"piece_was_attacked"`
	PieceWasDefended   string `json:"piece_was_defended"`
	PieceWasDefending  string `json:"piece_was_defending"`
	PieceWasPinned     string `json:"piece_was_pinned"`
}

// Numeric returns the value of a numeric feature column.
// Unknown columns return 0.
func (m *MistakeRecord) Numeric(column string) float64 {
	switch column {
	case ColCPL:
		return m.CPL
	case ColMoveNumber:
		return float64(m.MoveNumber)
	}
	return 0
}

// Categorical returns the raw value of a categorical feature column.
// Missing values come back as the empty string; callers are expected to
// canonicalize through the Preprocessor before any distance or encoding
// step.
func (m *MistakeRecord) Categorical(column string) string {
	switch column {
	case ColMistakeType:
		return m.MistakeType
	case ColMistakeCategory:
		return m.MistakeCategory
	case ColGamePhase:
		return m.GamePhase
	case ColMaterialBalance:
		return m.MaterialBalance
	case ColBoardComplexity:
		return m.BoardComplexity
	case ColKingSelfSafety:
		return m.KingSelfSafety
	case ColKingOpponentStatus:
		return m.KingOpponentStatus
	case ColCastlingStatusSelf:
		return m.CastlingStatusSelf
	case ColPieceMoved:
		return m.PieceMoved
	case ColMoveType:
		return m.MoveType
	case ColPieceWasAttacked:
		return m.PieceWasAttacked
	case ColPieceWasDefended:
		return m.PieceWasDefended
	case ColPieceWasDefending:
		return m.PieceWasDefending
	case ColPieceWasPinned:
		return m.PieceWasPinned
	}
	return ""
}

// HabitCluster is a run-scoped grouping discovered by the density
// clusterer. Labels are unique within a run but carry no meaning across
// runs. Never mutated after creation.
type HabitCluster struct {
	Label          int     `json:"label"`
	MemberIDs      []int64 `json:"member_ids"`
	MeanConfidence float64 `json:"mean_confidence"`

	// memberIdx indexes into the run's record slice; kept internal so
	// downstream stages avoid an id lookup.
	memberIdx []int
}

// Trigger is a single one-hot feature positively associated with
// membership in a habit cluster.
type Trigger struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
}

// TriggerSet is the discriminative output for one cluster, ordered by
// descending coefficient with ties broken lexicographically by feature
// name. The ordering doubles as the tie-breaking rule for downstream
// selection.
type TriggerSet []Trigger

// Habit is the durable record of one accepted cluster.
type Habit struct {
	ID             string     `json:"id"`
	UserID         int64      `json:"user_id"`
	ClusterLabel   int        `json:"cluster_label"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Confidence     float64    `json:"confidence"`
	MistakeIDs     []int64    `json:"mistake_ids,omitempty"`
	DateIdentified time.Time  `json:"date_identified"`
	DateRemedied   *time.Time `json:"date_remedied,omitempty"`
}

// Feedback is the synthesized explanation persisted alongside a Habit.
type Feedback struct {
	HabitID               string     `json:"habit_id"`
	Text                  string     `json:"text"`
	Triggers              TriggerSet `json:"triggers"`
	PrimeExampleMistakeID int64      `json:"prime_example_mistake_id"`
	GeneratedAt           time.Time  `json:"generated_at"`
}

// Summary reports the outcome of one analysis run.
type Summary struct {
	HabitsCreated   int `json:"habits_created"`
	TotalMistakes   int `json:"total_mistakes"`
	ClustersFound   int `json:"clusters_found"`
	NoiseRecords    int `json:"noise_records"`
	SkippedClusters int `json:"skipped_clusters"`
}

// Game is a stored source game. PGN data is kept verbatim; mistake
// annotation happens outside this module.
type Game struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Source       string     `json:"source"`
	SourceGameID string     `json:"source_game_id"`
	GameURL      string     `json:"game_url,omitempty"`
	PGN          string     `json:"pgn"`
	GameDate     time.Time  `json:"game_date"`
	AnalyzedAt   *time.Time `json:"analyzed_at,omitempty"`
}

// StoreStats contains statistics about the local store.
type StoreStats struct {
	Users         int    `json:"users"`
	Games         int    `json:"games"`
	Mistakes      int    `json:"mistakes"`
	Habits        int    `json:"habits"`
	SchemaVersion string `json:"schema_version"`
}

// Analysis policy constants. MinRecordsForAnalysis is a policy gate,
// not an error threshold: runs below it return a zero-habit summary
// without touching the store.
const (
	MinRecordsForAnalysis = 20
	DefaultMinClusterSize = 5
	DefaultMinSamples     = 3

	// TriggerCoefficientThreshold retains only coefficients strictly
	// greater than this value; a coefficient exactly at the threshold
	// is excluded.
	TriggerCoefficientThreshold = 0.1

	// DefaultInverseRegularization mirrors an L1 logistic regression
	// with inverse-regularization constant C = 1.0.
	DefaultInverseRegularization = 1.0

	DefaultSeed = 42
)
