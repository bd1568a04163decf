package models

import "time"

// Quality is the discrete label of a move derived from its centipawn loss.
type Quality string

const (
	Excellent  Quality = "excellent"
	Good       Quality = "good"
	Inaccuracy Quality = "inaccuracy"
	Mistake    Quality = "mistake"
	Blunder    Quality = "blunder"
)

// Rank orders qualities from best (0) to worst (4).
func (q Quality) Rank() int {
	switch q {
	case Excellent:
		return 0
	case Good:
		return 1
	case Inaccuracy:
		return 2
	case Mistake:
		return 3
	case Blunder:
		return 4
	}
	return -1
}

// Alternative is one of the evaluator's ranked candidate moves.
// Score is in centipawns from the mover's side.
type Alternative struct {
	Move  string   `json:"move"`
	SAN   string   `json:"san,omitempty"`
	Score int      `json:"score"`
	Line  []string `json:"line,omitempty"`
}

// AnalyzedMove is a RecordedMove annotated with engine evaluations.
// EvalBefore and EvalAfter are centipawns from the side that played the move.
type AnalyzedMove struct {
	Number        int           `json:"number"`
	Side          Side          `json:"side"`
	SAN           string        `json:"san"`
	UCI           string        `json:"uci"`
	FENBefore     string        `json:"fen_before"`
	EvalBefore    int           `json:"eval_before"`
	EvalAfter     int           `json:"eval_after"`
	CentipawnLoss int           `json:"centipawn_loss"`
	Quality       Quality       `json:"quality"`
	Accuracy      float64       `json:"accuracy"`
	BestMove      string        `json:"best_move"`
	BestMoveSAN   string        `json:"best_move_san"`
	Alternatives  []Alternative `json:"alternatives"`
	ThinkTime     time.Duration `json:"think_time"`
	PlayedAt      time.Time     `json:"played_at,omitempty"`
}

// Critical moment types.
const (
	MomentBlunder      = "blunder"
	MomentMistake      = "mistake"
	MomentMissedWin    = "missed-win"
	MomentTurningPoint = "turning-point"
)

type CriticalMoment struct {
	MoveNumber  int    `json:"move_number"`
	Side        Side   `json:"side"`
	Type        string `json:"type"`
	Swing       int    `json:"swing"`
	EvalBefore  int    `json:"eval_before"`
	EvalAfter   int    `json:"eval_after"`
	Description string `json:"description"`
	BestMove    string `json:"best_move,omitempty"`
}

// Tactical opportunity outcomes and categories.
const (
	OpportunityFound  = "found"
	OpportunityMissed = "missed"

	TacticMate  = "mate"
	TacticOther = "other"
)

type TacticalOpportunity struct {
	MoveNumber  int    `json:"move_number"`
	Side        Side   `json:"side"`
	Type        string `json:"type"`
	Found       bool   `json:"found"`
	Tactic      string `json:"tactic"`
	BestMove    string `json:"best_move"`
	BestEval    int    `json:"best_eval"`
	Description string `json:"description"`
}

// Phase names a band of the game.
type Phase string

const (
	Opening    Phase = "opening"
	Middlegame Phase = "middlegame"
	Endgame    Phase = "endgame"
)

// GamePhase is a move-number band of the player's moves. A band with
// Moves == 0 is empty and has Start == End.
type GamePhase struct {
	Phase     Phase   `json:"phase"`
	StartMove int     `json:"start_move"`
	EndMove   int     `json:"end_move"`
	Moves     int     `json:"moves"`
	Accuracy  float64 `json:"accuracy"`
}

// AnalysisSummary covers the player's moves only.
type AnalysisSummary struct {
	PlayerMoves        int     `json:"player_moves"`
	Accuracy           float64 `json:"accuracy"`
	OpeningAccuracy    float64 `json:"opening_accuracy"`
	MiddlegameAccuracy float64 `json:"middlegame_accuracy"`
	EndgameAccuracy    float64 `json:"endgame_accuracy"`
	AvgCentipawnLoss   float64 `json:"avg_centipawn_loss"`
	Excellent          int     `json:"excellent"`
	Good               int     `json:"good"`
	Inaccuracies       int     `json:"inaccuracies"`
	Mistakes           int     `json:"mistakes"`
	Blunders           int     `json:"blunders"`
}

// GameAnalysis is the immutable output of one pipeline run.
type GameAnalysis struct {
	GameID                int64                 `json:"game_id"`
	Version               int                   `json:"version"`
	AnalyzedAt            time.Time             `json:"analyzed_at"`
	Engine                string                `json:"engine"`
	Depth                 int                   `json:"depth"`
	PlayerSide            Side                  `json:"player_side"`
	Summary               AnalysisSummary       `json:"summary"`
	Moves                 []AnalyzedMove        `json:"moves"`
	CriticalMoments       []CriticalMoment      `json:"critical_moments"`
	TacticalOpportunities []TacticalOpportunity `json:"tactical_opportunities"`
	Phases                []GamePhase           `json:"phases"`
}

// MovesBy returns the analyzed moves played by side, in game order.
func (a *GameAnalysis) MovesBy(side Side) []AnalyzedMove {
	out := make([]AnalyzedMove, 0, len(a.Moves)/2+1)
	for _, m := range a.Moves {
		if m.Side == side {
			out = append(out, m)
		}
	}
	return out
}
