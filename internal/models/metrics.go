package models

import "time"

// CompositeScores holds the nine 0-100 indices of a single game.
type CompositeScores struct {
	Precision        float64 `json:"precision"`
	TacticalDanger   float64 `json:"tactical_danger"`
	Stability        float64 `json:"stability"`
	Conversion       float64 `json:"conversion"`
	Preparation      float64 `json:"preparation"`
	Positional       float64 `json:"positional"`
	Aggression       float64 `json:"aggression"`
	Simplification   float64 `json:"simplification"`
	TrainingTransfer float64 `json:"training_transfer"`
}

type PrecisionMetrics struct {
	Excellent           int     `json:"excellent"`
	Good                int     `json:"good"`
	Inaccuracies        int     `json:"inaccuracies"`
	Mistakes            int     `json:"mistakes"`
	Blunders            int     `json:"blunders"`
	AvgCentipawnLoss    float64 `json:"avg_centipawn_loss"`
	BlundersWhileAhead  int     `json:"blunders_while_ahead"`
	BlundersWhileEqual  int     `json:"blunders_while_equal"`
	BlundersWhileBehind int     `json:"blunders_while_behind"`
	UnforcedErrorRate   float64 `json:"unforced_error_rate"`
	ForcedErrorRate     float64 `json:"forced_error_rate"`
	FirstInaccuracyMove *int    `json:"first_inaccuracy_move,omitempty"`
}

type TacticalMetrics struct {
	Opportunities int `json:"opportunities"`
	Converted     int `json:"converted"`
	Missed        int `json:"missed"`
	MissedMates   int `json:"missed_mates"`
	MissedWinning int `json:"missed_winning"`
}

type StabilityMetrics struct {
	WasWinning             bool    `json:"was_winning"`
	MaxAdvantage           int     `json:"max_advantage"`
	PostBlunderMoves       int     `json:"post_blunder_moves"`
	PostBlunderBlunders    int     `json:"post_blunder_blunders"`
	PostBlunderBlunderRate float64 `json:"post_blunder_blunder_rate"`
}

type TimeMetrics struct {
	TotalThinkTime   time.Duration `json:"total_think_time"`
	AvgThinkTime     time.Duration `json:"avg_think_time"`
	LongestThink     time.Duration `json:"longest_think"`
	LongestThinkMove int           `json:"longest_think_move"`
	MovesUnder5s     int           `json:"moves_under_5s"`
	FastMoveRate     float64       `json:"fast_move_rate"`
}

// PhaseSnapshots holds the player's evaluation-after at fixed full-move
// numbers; nil when the game ended earlier.
type PhaseSnapshots struct {
	Move10 *int `json:"move_10,omitempty"`
	Move15 *int `json:"move_15,omitempty"`
	Move20 *int `json:"move_20,omitempty"`
	Move30 *int `json:"move_30,omitempty"`
}

// GameMetrics is derived from one GameAnalysis plus game metadata.
type GameMetrics struct {
	GameID         int64            `json:"game_id"`
	PlayerSide     Side             `json:"player_side"`
	OpponentRating int              `json:"opponent_rating"`
	Result         Result           `json:"result"`
	Outcome        Outcome          `json:"outcome"`
	Accuracy       float64          `json:"accuracy"`
	Scores         CompositeScores  `json:"scores"`
	Precision      PrecisionMetrics `json:"precision"`
	Tactics        TacticalMetrics  `json:"tactics"`
	Stability      StabilityMetrics `json:"stability"`
	Time           TimeMetrics      `json:"time"`
	Snapshots      PhaseSnapshots   `json:"snapshots"`
	CalculatedAt   time.Time        `json:"calculated_at"`
}
