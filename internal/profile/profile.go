// Package profile aggregates per-game metrics into a PlayerProfile.
package profile

import (
	"time"

	"github.com/vytor/chesscoach/internal/metrics"
	"github.com/vytor/chesscoach/internal/models"
)

// MinTransferGames is the history length needed for a training transfer score.
const MinTransferGames = 4

// Aggregate averages history, which must be ordered oldest first.
func Aggregate(history []models.GameMetrics, now time.Time) models.PlayerProfile {
	p := models.PlayerProfile{
		Games:           len(history),
		AccuracyHistory: make([]float64, 0, len(history)),
		UpdatedAt:       now.UTC(),
		Scores:          neutralScores(),
	}
	if len(history) == 0 {
		return p
	}

	var sum models.CompositeScores
	var accuracy, opponents float64
	rated := 0
	for _, g := range history {
		switch g.Outcome {
		case models.OutcomeWin:
			p.Wins++
		case models.OutcomeLoss:
			p.Losses++
		case models.OutcomeDraw:
			p.Draws++
		}
		accuracy += g.Accuracy
		p.AccuracyHistory = append(p.AccuracyHistory, g.Accuracy)
		if g.OpponentRating > 0 {
			opponents += float64(g.OpponentRating)
			rated++
		}
		p.TotalBlunders += g.Precision.Blunders

		sum.Precision += g.Scores.Precision
		sum.TacticalDanger += g.Scores.TacticalDanger
		sum.Stability += g.Scores.Stability
		sum.Conversion += g.Scores.Conversion
		sum.Preparation += g.Scores.Preparation
		sum.Positional += g.Scores.Positional
		sum.Aggression += g.Scores.Aggression
		sum.Simplification += g.Scores.Simplification
	}

	n := float64(len(history))
	p.AvgAccuracy = metrics.Clamp(accuracy / n)
	if rated > 0 {
		p.AvgOpponent = opponents / float64(rated)
	}
	p.BlundersPerGame = float64(p.TotalBlunders) / n
	p.Scores = models.CompositeScores{
		Precision:        metrics.Clamp(sum.Precision / n),
		TacticalDanger:   metrics.Clamp(sum.TacticalDanger / n),
		Stability:        metrics.Clamp(sum.Stability / n),
		Conversion:       metrics.Clamp(sum.Conversion / n),
		Preparation:      metrics.Clamp(sum.Preparation / n),
		Positional:       metrics.Clamp(sum.Positional / n),
		Aggression:       metrics.Clamp(sum.Aggression / n),
		Simplification:   metrics.Clamp(sum.Simplification / n),
		TrainingTransfer: TrainingTransfer(p.AccuracyHistory),
	}
	return p
}

// TrainingTransfer compares the mean accuracy of the newer half of the
// series against the older half. With an odd length the middle game
// belongs to the older half.
func TrainingTransfer(accuracies []float64) float64 {
	if len(accuracies) < MinTransferGames {
		return metrics.Neutral
	}
	mid := (len(accuracies) + 1) / 2
	older, recent := mean(accuracies[:mid]), mean(accuracies[mid:])
	return metrics.Clamp(50 + 2*(recent-older))
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

func neutralScores() models.CompositeScores {
	return models.CompositeScores{
		Precision:        metrics.Neutral,
		TacticalDanger:   metrics.Neutral,
		Stability:        metrics.Neutral,
		Conversion:       metrics.Neutral,
		Preparation:      metrics.Neutral,
		Positional:       metrics.Neutral,
		Aggression:       metrics.Neutral,
		Simplification:   metrics.Neutral,
		TrainingTransfer: metrics.Neutral,
	}
}
