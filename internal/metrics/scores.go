package metrics

import (
	"math"

	"github.com/vytor/chesscoach/internal/models"
)

// Neutral is returned by scores that have nothing to measure.
const Neutral = 50.0

// PrecisionScore weighs overall accuracy, blunders, average loss and phase
// accuracies into a single 0-100 value.
func PrecisionScore(accuracy float64, blunders int, avgCPL float64, opening, middlegame, endgame float64) float64 {
	blunderTerm := 100 - math.Min(100, 10*float64(blunders))
	lossTerm := 100 - math.Min(100, avgCPL/2)
	score := 0.30*clamp(accuracy) +
		0.25*clamp(blunderTerm) +
		0.20*clamp(lossTerm) +
		0.10*clamp(opening) +
		0.10*clamp(middlegame) +
		0.05*clamp(endgame)
	return round1(clamp(score))
}

func TacticalDangerScore(t models.TacticalMetrics) float64 {
	if t.Opportunities == 0 {
		return Neutral
	}
	score := 50 + 100*float64(t.Converted)/float64(t.Opportunities) -
		float64(20*t.MissedMates+10*t.MissedWinning)
	return round1(clamp(score))
}

func StabilityScore(fastMoves, totalMoves int, postBlunderBlunderRate float64) float64 {
	fastRate := 0.0
	if totalMoves > 0 {
		fastRate = float64(fastMoves) / float64(totalMoves)
	}
	return round1(clamp(80 - 30*fastRate - 20*postBlunderBlunderRate))
}

// ConversionScore rewards turning a winning position into a win.
func ConversionScore(wasWinning, won bool) float64 {
	switch {
	case !wasWinning:
		return Neutral
	case won:
		return 100
	default:
		return 20
	}
}

// PreparationScore adds a bonus for each positive snapshot at moves 10 and 15.
func PreparationScore(openingAccuracy float64, snap models.PhaseSnapshots) float64 {
	score := 0.60 * clamp(openingAccuracy)
	if snap.Move10 != nil && *snap.Move10 > 0 {
		score += 20
	}
	if snap.Move15 != nil && *snap.Move15 > 0 {
		score += 20
	}
	return round1(clamp(score))
}

func PositionalScore(accuracy float64, blunders int) float64 {
	return round1(clamp(accuracy - math.Min(50, 15*float64(blunders))))
}

// AggressionScore is a placeholder: piece activity is not measured.
func AggressionScore(*models.GameAnalysis) float64 {
	return Neutral
}

// SimplificationScore is a placeholder: trade patterns are not measured.
func SimplificationScore(*models.GameAnalysis) float64 {
	return Neutral
}

// TrainingTransferScore needs a history of games; a single game is neutral.
// See profile.TrainingTransfer for the multi-game computation.
func TrainingTransferScore() float64 {
	return Neutral
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Clamp bounds v to [0, 100] with NaN mapped to 0, rounded to one decimal.
func Clamp(v float64) float64 {
	return round1(clamp(v))
}
