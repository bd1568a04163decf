// Package metrics turns a GameAnalysis into per-game component metrics and
// the nine composite scores.
package metrics

import (
	"time"

	"github.com/vytor/chesscoach/internal/analysis"
	"github.com/vytor/chesscoach/internal/models"
)

type Calculator struct {
	thresholds analysis.Thresholds
	now        func() time.Time
}

func NewCalculator(t analysis.Thresholds) *Calculator {
	return &Calculator{thresholds: t, now: time.Now}
}

// Calculate uses the default thresholds.
func Calculate(a *models.GameAnalysis, color models.Side, opponentRating int, result models.Result) models.GameMetrics {
	return NewCalculator(analysis.DefaultThresholds()).Calculate(a, color, opponentRating, result)
}

// Calculate derives GameMetrics for color from a. It is a pure function of
// its inputs apart from CalculatedAt.
func (c *Calculator) Calculate(a *models.GameAnalysis, color models.Side, opponentRating int, result models.Result) models.GameMetrics {
	m := models.GameMetrics{
		GameID:         a.GameID,
		PlayerSide:     color,
		OpponentRating: opponentRating,
		Result:         result,
		Outcome:        result.Outcome(color),
		CalculatedAt:   c.now().UTC(),
	}

	moves := a.MovesBy(color)
	// Phases and tactics stored on a describe a.PlayerSide only.
	phases := a.Phases
	tactics := a.TacticalOpportunities
	if a.PlayerSide != color {
		phases = analysis.SegmentPhases(a.Moves, color, c.thresholds)
		tactics = analysis.DetectTacticalOpportunities(a.Moves, color, c.thresholds)
	} else if len(phases) == 0 {
		phases = analysis.SegmentPhases(a.Moves, color, c.thresholds)
	}
	summary := analysis.Summarize(a.Moves, color, phases)
	winning := c.thresholds.WinningThreshold

	m.Accuracy = summary.Accuracy
	m.Precision = PrecisionComponents(moves)
	m.Tactics = TacticalComponents(tactics, color, winning)
	m.Stability = StabilityComponents(moves, winning)
	m.Time = TimeComponents(moves)
	m.Snapshots = Snapshots(moves)

	m.Scores = models.CompositeScores{
		Precision: PrecisionScore(summary.Accuracy, m.Precision.Blunders, m.Precision.AvgCentipawnLoss,
			summary.OpeningAccuracy, summary.MiddlegameAccuracy, summary.EndgameAccuracy),
		TacticalDanger:   TacticalDangerScore(m.Tactics),
		Stability:        StabilityScore(m.Time.MovesUnder5s, len(moves), m.Stability.PostBlunderBlunderRate),
		Conversion:       ConversionScore(m.Stability.WasWinning, result.WonBy(color)),
		Preparation:      PreparationScore(summary.OpeningAccuracy, m.Snapshots),
		Positional:       PositionalScore(summary.Accuracy, m.Precision.Blunders),
		Aggression:       AggressionScore(a),
		Simplification:   SimplificationScore(a),
		TrainingTransfer: TrainingTransferScore(),
	}
	return m
}

// WithClock is used by tests to pin CalculatedAt.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}
