package models

import "time"

// PlayerProfile is a rolling aggregation of GameMetrics.
type PlayerProfile struct {
	Games           int             `json:"games"`
	Wins            int             `json:"wins"`
	Losses          int             `json:"losses"`
	Draws           int             `json:"draws"`
	AvgAccuracy     float64         `json:"avg_accuracy"`
	AvgOpponent     float64         `json:"avg_opponent_rating"`
	Scores          CompositeScores `json:"scores"`
	AccuracyHistory []float64       `json:"accuracy_history"`
	TotalBlunders   int             `json:"total_blunders"`
	BlundersPerGame float64         `json:"blunders_per_game"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
