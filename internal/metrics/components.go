package metrics

import (
	"time"

	"github.com/vytor/chesscoach/internal/models"
)

const (
	// AheadThreshold and BehindThreshold bucket blunders by evaluation-before.
	AheadThreshold  = 50
	BehindThreshold = -50

	FastMoveLimit = 5 * time.Second
)

// SnapshotMoves are the full-move numbers sampled into PhaseSnapshots.
var SnapshotMoves = [...]int{10, 15, 20, 30}

// PrecisionComponents counts quality labels among the player's moves and
// buckets blunders by the evaluation before the move.
func PrecisionComponents(moves []models.AnalyzedMove) models.PrecisionMetrics {
	var p models.PrecisionMetrics
	var loss float64
	for _, m := range moves {
		loss += float64(m.CentipawnLoss)
		switch m.Quality {
		case models.Excellent:
			p.Excellent++
		case models.Good:
			p.Good++
		case models.Inaccuracy:
			p.Inaccuracies++
		case models.Mistake:
			p.Mistakes++
		case models.Blunder:
			p.Blunders++
			switch {
			case m.EvalBefore >= AheadThreshold:
				p.BlundersWhileAhead++
			case m.EvalBefore <= BehindThreshold:
				p.BlundersWhileBehind++
			default:
				p.BlundersWhileEqual++
			}
		}
		if p.FirstInaccuracyMove == nil && m.Quality.Rank() > models.Good.Rank() {
			n := m.Number
			p.FirstInaccuracyMove = &n
		}
	}
	if len(moves) > 0 {
		p.AvgCentipawnLoss = loss / float64(len(moves))
	}
	if p.Blunders > 0 {
		p.UnforcedErrorRate = float64(p.BlundersWhileAhead+p.BlundersWhileEqual) / float64(p.Blunders)
		p.ForcedErrorRate = 1 - p.UnforcedErrorRate
	}
	return p
}

// TacticalComponents tallies the player's tactical opportunities. A missed
// non-mate tactic counts as a missed win when its best evaluation reaches
// the winning threshold.
func TacticalComponents(ops []models.TacticalOpportunity, player models.Side, winning int) models.TacticalMetrics {
	var t models.TacticalMetrics
	for _, op := range ops {
		if op.Side != player {
			continue
		}
		t.Opportunities++
		switch {
		case op.Found:
			t.Converted++
		case op.Tactic == models.TacticMate:
			t.Missed++
			t.MissedMates++
		default:
			t.Missed++
			if op.BestEval >= winning {
				t.MissedWinning++
			}
		}
	}
	return t
}

// StabilityComponents reports whether the player was ever winning and how
// they played after their first blunder. Once a blunder happens every later
// move counts as a post-blunder move.
func StabilityComponents(moves []models.AnalyzedMove, winning int) models.StabilityMetrics {
	var s models.StabilityMetrics
	inPost := false
	for i, m := range moves {
		if i == 0 || m.EvalBefore > s.MaxAdvantage {
			s.MaxAdvantage = m.EvalBefore
		}
		if m.EvalBefore >= winning {
			s.WasWinning = true
		}
		blunder := m.Quality == models.Blunder
		if inPost {
			s.PostBlunderMoves++
			if blunder {
				s.PostBlunderBlunders++
			}
		}
		if blunder {
			inPost = true
		}
	}
	if s.PostBlunderMoves > 0 {
		s.PostBlunderBlunderRate = float64(s.PostBlunderBlunders) / float64(s.PostBlunderMoves)
	}
	return s
}

// TimeComponents summarizes the player's think times. Games without clock
// data (every think time zero) report no fast moves.
func TimeComponents(moves []models.AnalyzedMove) models.TimeMetrics {
	var t models.TimeMetrics
	timed := false
	for _, m := range moves {
		t.TotalThinkTime += m.ThinkTime
		if m.ThinkTime > t.LongestThink {
			t.LongestThink = m.ThinkTime
			t.LongestThinkMove = m.Number
		}
		if m.ThinkTime > 0 {
			timed = true
		}
	}
	if len(moves) == 0 || !timed {
		return t
	}
	for _, m := range moves {
		if m.ThinkTime < FastMoveLimit {
			t.MovesUnder5s++
		}
	}
	t.AvgThinkTime = t.TotalThinkTime / time.Duration(len(moves))
	t.FastMoveRate = float64(t.MovesUnder5s) / float64(len(moves))
	return t
}

// Snapshots samples the player's evaluation-after at SnapshotMoves.
func Snapshots(moves []models.AnalyzedMove) models.PhaseSnapshots {
	at := func(number int) *int {
		for _, m := range moves {
			if m.Number == number {
				v := m.EvalAfter
				return &v
			}
		}
		return nil
	}
	return models.PhaseSnapshots{
		Move10: at(SnapshotMoves[0]),
		Move15: at(SnapshotMoves[1]),
		Move20: at(SnapshotMoves[2]),
		Move30: at(SnapshotMoves[3]),
	}
}
