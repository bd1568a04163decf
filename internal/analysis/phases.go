package analysis

import "github.com/vytor/chesscoach/internal/models"

// SegmentPhases splits the player's moves into opening, middlegame and
// endgame bands by full-move number. Bands past the player's last move
// collapse to Start == End == lastMove with no moves and zero accuracy.
func SegmentPhases(moves []models.AnalyzedMove, player models.Side, t Thresholds) []models.GamePhase {
	last := 0
	for _, m := range moves {
		if m.Side == player && m.Number > last {
			last = m.Number
		}
	}

	bands := []models.GamePhase{
		{Phase: models.Opening, StartMove: 1, EndMove: min(t.OpeningEnd, last)},
		{Phase: models.Middlegame, StartMove: t.OpeningEnd + 1, EndMove: min(t.MiddlegameEnd, last)},
		{Phase: models.Endgame, StartMove: t.MiddlegameEnd + 1, EndMove: last},
	}

	for i := range bands {
		b := &bands[i]
		if b.StartMove > last {
			b.StartMove, b.EndMove = last, last
			continue
		}
		var sum float64
		for _, m := range moves {
			if m.Side == player && m.Number >= b.StartMove && m.Number <= b.EndMove {
				sum += m.Accuracy
				b.Moves++
			}
		}
		if b.Moves > 0 {
			b.Accuracy = sum / float64(b.Moves)
		}
	}
	return bands
}

func phaseOf(number int, t Thresholds) models.Phase {
	switch {
	case number <= t.OpeningEnd:
		return models.Opening
	case number <= t.MiddlegameEnd:
		return models.Middlegame
	default:
		return models.Endgame
	}
}

// PhaseAccuracy returns the accuracy of the named band, 0 when absent.
func PhaseAccuracy(phases []models.GamePhase, p models.Phase) float64 {
	for _, ph := range phases {
		if ph.Phase == p {
			return ph.Accuracy
		}
	}
	return 0
}

// Summarize computes the player's summary statistics.
func Summarize(moves []models.AnalyzedMove, player models.Side, phases []models.GamePhase) models.AnalysisSummary {
	s := models.AnalysisSummary{
		OpeningAccuracy:    PhaseAccuracy(phases, models.Opening),
		MiddlegameAccuracy: PhaseAccuracy(phases, models.Middlegame),
		EndgameAccuracy:    PhaseAccuracy(phases, models.Endgame),
	}

	var accuracy, loss float64
	for _, m := range moves {
		if m.Side != player {
			continue
		}
		s.PlayerMoves++
		accuracy += m.Accuracy
		loss += float64(m.CentipawnLoss)
		switch m.Quality {
		case models.Excellent:
			s.Excellent++
		case models.Good:
			s.Good++
		case models.Inaccuracy:
			s.Inaccuracies++
		case models.Mistake:
			s.Mistakes++
		case models.Blunder:
			s.Blunders++
		}
	}
	if s.PlayerMoves > 0 {
		s.Accuracy = accuracy / float64(s.PlayerMoves)
		s.AvgCentipawnLoss = loss / float64(s.PlayerMoves)
	}
	return s
}
