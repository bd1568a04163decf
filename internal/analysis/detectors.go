package analysis

import (
	"fmt"

	"github.com/vytor/chesscoach/internal/models"
)

// DetectCriticalMoments flags the player's moves whose evaluation swing
// exceeds the swing threshold or that were classified as blunders.
func DetectCriticalMoments(moves []models.AnalyzedMove, player models.Side, t Thresholds) []models.CriticalMoment {
	out := make([]models.CriticalMoment, 0)
	for _, m := range moves {
		if m.Side != player {
			continue
		}
		swing := absInt(m.EvalAfter - m.EvalBefore)
		if swing <= t.SwingThreshold && m.Quality != models.Blunder {
			continue
		}

		var kind, text string
		switch {
		case m.Quality == models.Blunder:
			kind, text = models.MomentBlunder, "blunder"
		case m.Quality == models.Mistake:
			kind, text = models.MomentMistake, "mistake"
		case m.EvalBefore >= t.WinningThreshold && m.EvalAfter < t.WinningThreshold:
			kind, text = models.MomentMissedWin, "winning advantage slipped"
		default:
			kind, text = models.MomentTurningPoint, "turning point"
		}

		cm := models.CriticalMoment{
			MoveNumber:  m.Number,
			Side:        m.Side,
			Type:        kind,
			Swing:       swing,
			EvalBefore:  m.EvalBefore,
			EvalAfter:   m.EvalAfter,
			Description: fmt.Sprintf("%s: %s, evaluation swing %.1f pawns", moveLabel(m), text, float64(swing)/100),
		}
		if m.CentipawnLoss > 0 {
			cm.BestMove = m.BestMoveSAN
		}
		out = append(out, cm)
	}
	return out
}

// DetectTacticalOpportunities flags found and missed tactics on the
// player's moves. At most one opportunity is recorded per move and a
// missed forced mate takes precedence over the general thresholds.
func DetectTacticalOpportunities(moves []models.AnalyzedMove, player models.Side, t Thresholds) []models.TacticalOpportunity {
	out := make([]models.TacticalOpportunity, 0)
	for _, m := range moves {
		if m.Side != player || len(m.Alternatives) == 0 {
			continue
		}
		bestScore := m.Alternatives[0].Score
		gain := m.EvalAfter - m.EvalBefore

		switch {
		case absInt(bestScore) >= t.MateThreshold && m.CentipawnLoss > 0:
			out = append(out, models.TacticalOpportunity{
				MoveNumber:  m.Number,
				Side:        m.Side,
				Type:        models.OpportunityMissed,
				Tactic:      models.TacticMate,
				BestMove:    m.BestMoveSAN,
				BestEval:    bestScore,
				Description: fmt.Sprintf("%s: missed a forced mate with %s", moveLabel(m), m.BestMoveSAN),
			})
		case m.CentipawnLoss >= t.MissedMinLoss && bestScore >= m.EvalBefore+t.TacticGain:
			out = append(out, models.TacticalOpportunity{
				MoveNumber:  m.Number,
				Side:        m.Side,
				Type:        models.OpportunityMissed,
				Tactic:      categorizeTactic(m),
				BestMove:    m.BestMoveSAN,
				BestEval:    bestScore,
				Description: fmt.Sprintf("%s: missed %s gaining %.1f pawns", moveLabel(m), m.BestMoveSAN, float64(bestScore-m.EvalBefore)/100),
			})
		case gain >= t.TacticGain && m.CentipawnLoss < t.FoundMaxLoss:
			out = append(out, models.TacticalOpportunity{
				MoveNumber:  m.Number,
				Side:        m.Side,
				Type:        models.OpportunityFound,
				Found:       true,
				Tactic:      categorizeTactic(m),
				BestMove:    m.SAN,
				BestEval:    m.EvalAfter,
				Description: fmt.Sprintf("%s: found a tactic gaining %.1f pawns", moveLabel(m), float64(gain)/100),
			})
		}
	}
	return out
}

// categorizeTactic is intentionally unimplemented: pattern recognition
// (fork, pin, skewer...) is not attempted and every tactic is "other".
func categorizeTactic(models.AnalyzedMove) string {
	return models.TacticOther
}

func moveLabel(m models.AnalyzedMove) string {
	if m.Side == models.Black {
		return fmt.Sprintf("%d... %s", m.Number, m.SAN)
	}
	return fmt.Sprintf("%d. %s", m.Number, m.SAN)
}
