package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/chesscoach/internal/analysis"
	"github.com/vytor/chesscoach/internal/models"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		loss     int
		quality  models.Quality
		accuracy float64
	}{
		{0, models.Excellent, 100},
		{10, models.Excellent, 100},
		{11, models.Good, 90},
		{25, models.Good, 90},
		{26, models.Inaccuracy, 70},
		{75, models.Inaccuracy, 70},
		{76, models.Mistake, 40},
		{200, models.Mistake, 40},
		{201, models.Blunder, 0},
		{99999, models.Blunder, 0},
	}

	for _, tt := range tests {
		q, acc := analysis.Classify(tt.loss)
		assert.Equal(t, tt.quality, q, "loss %d", tt.loss)
		assert.Equal(t, tt.accuracy, acc, "loss %d", tt.loss)
	}
}

func TestClassify_Monotonic(t *testing.T) {
	prevQ, prevAcc := analysis.Classify(0)
	for loss := 1; loss <= 1000; loss++ {
		q, acc := analysis.Classify(loss)
		assert.LessOrEqual(t, acc, prevAcc, "accuracy increased at loss %d", loss)
		assert.GreaterOrEqual(t, q.Rank(), prevQ.Rank(), "quality improved at loss %d", loss)
		prevQ, prevAcc = q, acc
	}
}

func TestClassify_NegativeLossPanics(t *testing.T) {
	assert.Panics(t, func() { analysis.Classify(-1) })
}

func TestClassify_CustomThresholds(t *testing.T) {
	th := analysis.DefaultThresholds()
	th.ExcellentMax = 5
	q, _ := th.Classify(8)
	assert.Equal(t, models.Good, q)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 100.0, analysis.Accuracy(models.Excellent))
	assert.Equal(t, 0.0, analysis.Accuracy(models.Blunder))
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, analysis.DefaultThresholds().Validate())

	th := analysis.DefaultThresholds()
	th.GoodMax = th.ExcellentMax
	assert.Error(t, th.Validate())

	th = analysis.DefaultThresholds()
	th.MiddlegameEnd = th.OpeningEnd
	assert.Error(t, th.Validate())

	th = analysis.DefaultThresholds()
	th.MateThreshold = 150
	assert.Error(t, th.Validate())
}
