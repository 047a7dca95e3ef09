package analysis

// Classification is the severity tier of a move by centipawn loss.
type Classification string

const (
	ClassificationNone       Classification = "none"
	ClassificationInaccuracy Classification = "inaccuracy"
	ClassificationMistake    Classification = "mistake"
	ClassificationBlunder    Classification = "blunder"
)

// Classify maps a centipawn loss to a severity tier. Negative input is
// treated as zero loss.
func Classify(centipawnLoss float64) Classification {
	switch {
	case centipawnLoss > 200:
		return ClassificationBlunder
	case centipawnLoss > 100:
		return ClassificationMistake
	case centipawnLoss > 50:
		return ClassificationInaccuracy
	default:
		return ClassificationNone
	}
}

// MoveRecord is a single half-move of a parsed game together with the
// positions around it.
type MoveRecord struct {
	Number    int    `json:"number"` // full-move number
	Color     string `json:"color"`  // "white" or "black"
	SAN       string `json:"san"`
	UCI       string `json:"uci"`
	FENBefore string `json:"fen_before"`
	FENAfter  string `json:"fen_after"`
}

// ParsedGame is an immutable snapshot of one game: metadata plus the full
// move sequence. Built once per analysis request.
type ParsedGame struct {
	White   string       `json:"white"`
	Black   string       `json:"black"`
	Result  string       `json:"result"`
	Opening string       `json:"opening"`
	Moves   []MoveRecord `json:"moves"`
}

// PositionAnalysis is the engine's verdict on a single position.
// Evaluation is in centipawns from White's point of view; forced mates are
// reported with the ±10000 sentinel and MateIn set.
type PositionAnalysis struct {
	FEN        string   `json:"fen"`
	Evaluation float64  `json:"evaluation"`
	BestMove   string   `json:"best_move"`
	Depth      int      `json:"depth"`
	PV         []string `json:"pv"`
	IsMate     bool     `json:"is_mate"`
	MateIn     int      `json:"mate_in,omitempty"`
}

// MoveEvaluation is the engine's verdict on a played move. Both evaluations
// are centipawns from White's point of view; CentipawnLoss is the drop in the
// mover's own advantage, never negative.
type MoveEvaluation struct {
	MoveNumber         int            `json:"move_number"`
	Color              string         `json:"color"`
	Move               string         `json:"move"` // SAN
	UCI                string         `json:"uci"`
	EvaluationBefore   float64        `json:"evaluation_before"`
	EvaluationAfter    float64        `json:"evaluation_after"`
	CentipawnLoss      float64        `json:"centipawn_loss"`
	Classification     Classification `json:"classification"`
	BestMove           string         `json:"best_move"`
	BestMoveEvaluation float64        `json:"best_move_evaluation"`
}

type CriticalMoment struct {
	MoveNumber  int    `json:"move_number" bson:"move_number"`
	Description string `json:"description" bson:"description"`
}

type MistakeDetail struct {
	MoveNumber  int    `json:"move_number" bson:"move_number"`
	Move        string `json:"move" bson:"move"`
	Explanation string `json:"explanation" bson:"explanation"`
	BetterMove  string `json:"better_move" bson:"better_move"`
}

// Result is the externally visible output of a game analysis. RawAnalysis
// carries the untouched model reply when its JSON could not be parsed.
type Result struct {
	Summary         string           `json:"summary" bson:"summary"`
	CriticalMoments []CriticalMoment `json:"critical_moments" bson:"critical_moments"`
	Mistakes        []MistakeDetail  `json:"mistakes" bson:"mistakes"`
	Blunders        []MistakeDetail  `json:"blunders" bson:"blunders"`
	Recommendations []string         `json:"recommendations" bson:"recommendations"`
	RawAnalysis     string           `json:"raw_analysis,omitempty" bson:"raw_analysis,omitempty"`
}
