package metrics_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chesscoach/internal/metrics"
	"github.com/vytor/chesscoach/internal/models"
)

func intp(v int) *int { return &v }

func TestPrecisionScore(t *testing.T) {
	assert.Equal(t, 100.0, metrics.PrecisionScore(100, 0, 0, 100, 100, 100))
	assert.Equal(t, 0.0, metrics.PrecisionScore(0, 10, 400, 0, 0, 0))
	// 0.30*80 + 0.25*80 + 0.20*85 + 0.10*90 + 0.10*70 + 0.05*0
	assert.Equal(t, 77.0, metrics.PrecisionScore(80, 2, 30, 90, 70, 0))
	assert.Equal(t, 0.0, metrics.PrecisionScore(math.NaN(), 100, math.Inf(1), -5, -5, -5))
}

func TestTacticalDangerScore(t *testing.T) {
	assert.Equal(t, 50.0, metrics.TacticalDangerScore(models.TacticalMetrics{}))
	assert.Equal(t, 100.0, metrics.TacticalDangerScore(models.TacticalMetrics{Opportunities: 2, Converted: 2}))
	assert.Equal(t, 80.0, metrics.TacticalDangerScore(models.TacticalMetrics{Opportunities: 2, Converted: 1, Missed: 1, MissedMates: 1}))
	assert.Equal(t, 70.0, metrics.TacticalDangerScore(models.TacticalMetrics{Opportunities: 2, Converted: 1, Missed: 1, MissedMates: 1, MissedWinning: 1}))
	assert.Equal(t, 0.0, metrics.TacticalDangerScore(models.TacticalMetrics{Opportunities: 3, Missed: 3, MissedMates: 3}))
}

func TestStabilityScore(t *testing.T) {
	assert.Equal(t, 80.0, metrics.StabilityScore(0, 0, 0))
	assert.Equal(t, 50.0, metrics.StabilityScore(10, 10, 0))
	assert.Equal(t, 30.0, metrics.StabilityScore(10, 10, 1))
	assert.Equal(t, 65.0, metrics.StabilityScore(5, 10, 0))
}

func TestConversionScore(t *testing.T) {
	assert.Equal(t, 50.0, metrics.ConversionScore(false, true))
	assert.Equal(t, 50.0, metrics.ConversionScore(false, false))
	assert.Equal(t, 100.0, metrics.ConversionScore(true, true))
	assert.Equal(t, 20.0, metrics.ConversionScore(true, false))
}

func TestPreparationScore(t *testing.T) {
	assert.Equal(t, 54.0, metrics.PreparationScore(90, models.PhaseSnapshots{}))
	assert.Equal(t, 74.0, metrics.PreparationScore(90, models.PhaseSnapshots{Move10: intp(15), Move15: intp(0)}))
	assert.Equal(t, 94.0, metrics.PreparationScore(90, models.PhaseSnapshots{Move10: intp(15), Move15: intp(1)}))
	assert.Equal(t, 100.0, metrics.PreparationScore(100, models.PhaseSnapshots{Move10: intp(1), Move15: intp(1)}))
}

func TestPositionalScore(t *testing.T) {
	assert.Equal(t, 90.0, metrics.PositionalScore(90, 0))
	assert.Equal(t, 60.0, metrics.PositionalScore(90, 2))
	assert.Equal(t, 40.0, metrics.PositionalScore(90, 10))
	assert.Equal(t, 0.0, metrics.PositionalScore(20, 4))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, metrics.Clamp(math.NaN()))
	assert.Equal(t, 0.0, metrics.Clamp(-3))
	assert.Equal(t, 100.0, metrics.Clamp(140))
	assert.Equal(t, 66.7, metrics.Clamp(200.0/3))
}

func TestPrecisionComponents(t *testing.T) {
	moves := []models.AnalyzedMove{
		{Number: 1, Quality: models.Excellent, CentipawnLoss: 0},
		{Number: 2, Quality: models.Good, CentipawnLoss: 20},
		{Number: 3, Quality: models.Blunder, CentipawnLoss: 300, EvalBefore: 50},
		{Number: 4, Quality: models.Blunder, CentipawnLoss: 300, EvalBefore: 49},
		{Number: 5, Quality: models.Blunder, CentipawnLoss: 300, EvalBefore: -50},
		{Number: 6, Quality: models.Blunder, CentipawnLoss: 300, EvalBefore: -300},
		{Number: 7, Quality: models.Mistake, CentipawnLoss: 80},
	}
	p := metrics.PrecisionComponents(moves)

	assert.Equal(t, 4, p.Blunders)
	assert.Equal(t, 1, p.BlundersWhileAhead)
	assert.Equal(t, 1, p.BlundersWhileEqual)
	assert.Equal(t, 2, p.BlundersWhileBehind)
	assert.InDelta(t, 0.5, p.UnforcedErrorRate, 1e-9)
	assert.InDelta(t, 0.5, p.ForcedErrorRate, 1e-9)
	assert.InDelta(t, 1300.0/7, p.AvgCentipawnLoss, 1e-9)
	require.NotNil(t, p.FirstInaccuracyMove)
	assert.Equal(t, 3, *p.FirstInaccuracyMove)
}

func TestPrecisionComponents_NoBlunders(t *testing.T) {
	p := metrics.PrecisionComponents([]models.AnalyzedMove{{Number: 1, Quality: models.Inaccuracy, CentipawnLoss: 40}})
	assert.Zero(t, p.UnforcedErrorRate)
	assert.Zero(t, p.ForcedErrorRate)
	require.NotNil(t, p.FirstInaccuracyMove)
	assert.Equal(t, 1, *p.FirstInaccuracyMove)
}

func TestTacticalComponents(t *testing.T) {
	ops := []models.TacticalOpportunity{
		{Side: models.White, Type: models.OpportunityFound, Found: true, Tactic: models.TacticOther},
		{Side: models.White, Type: models.OpportunityMissed, Tactic: models.TacticMate, BestEval: 99997},
		{Side: models.White, Type: models.OpportunityMissed, Tactic: models.TacticOther, BestEval: 250},
		{Side: models.White, Type: models.OpportunityMissed, Tactic: models.TacticOther, BestEval: 120},
		{Side: models.Black, Type: models.OpportunityFound, Found: true},
	}
	tm := metrics.TacticalComponents(ops, models.White, 200)
	assert.Equal(t, models.TacticalMetrics{Opportunities: 4, Converted: 1, Missed: 3, MissedMates: 1, MissedWinning: 1}, tm)
}

func TestStabilityComponents_PostBlunderStatePersists(t *testing.T) {
	moves := []models.AnalyzedMove{
		{Quality: models.Excellent, EvalBefore: 10},
		{Quality: models.Blunder, EvalBefore: 250},
		{Quality: models.Good, EvalBefore: -200},
		{Quality: models.Excellent, EvalBefore: -210},
		{Quality: models.Blunder, EvalBefore: -200},
		{Quality: models.Excellent, EvalBefore: -600},
	}
	s := metrics.StabilityComponents(moves, 200)
	assert.True(t, s.WasWinning)
	assert.Equal(t, 250, s.MaxAdvantage)
	assert.Equal(t, 4, s.PostBlunderMoves)
	assert.Equal(t, 1, s.PostBlunderBlunders)
	assert.InDelta(t, 0.25, s.PostBlunderBlunderRate, 1e-9)
}

func TestTimeComponents(t *testing.T) {
	moves := []models.AnalyzedMove{
		{Number: 1, ThinkTime: 2 * time.Second},
		{Number: 2, ThinkTime: 30 * time.Second},
		{Number: 3, ThinkTime: 4 * time.Second},
		{Number: 4, ThinkTime: 0},
	}
	tm := metrics.TimeComponents(moves)
	assert.Equal(t, 36*time.Second, tm.TotalThinkTime)
	assert.Equal(t, 9*time.Second, tm.AvgThinkTime)
	assert.Equal(t, 30*time.Second, tm.LongestThink)
	assert.Equal(t, 2, tm.LongestThinkMove)
	assert.Equal(t, 3, tm.MovesUnder5s)
	assert.InDelta(t, 0.75, tm.FastMoveRate, 1e-9)
}

func TestTimeComponents_NoClock(t *testing.T) {
	tm := metrics.TimeComponents([]models.AnalyzedMove{{Number: 1}, {Number: 2}})
	assert.Zero(t, tm.MovesUnder5s)
	assert.Zero(t, tm.FastMoveRate)
}

func TestSnapshots(t *testing.T) {
	var moves []models.AnalyzedMove
	for i := 1; i <= 16; i++ {
		moves = append(moves, models.AnalyzedMove{Number: i, EvalAfter: i * 10})
	}
	s := metrics.Snapshots(moves)
	require.NotNil(t, s.Move10)
	require.NotNil(t, s.Move15)
	assert.Equal(t, 100, *s.Move10)
	assert.Equal(t, 150, *s.Move15)
	assert.Nil(t, s.Move20)
	assert.Nil(t, s.Move30)
}
