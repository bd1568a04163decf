package analysis

import (
	"fmt"

	"github.com/vytor/chesscoach/internal/models"
)

var accuracyByQuality = map[models.Quality]float64{
	models.Excellent:  100,
	models.Good:       90,
	models.Inaccuracy: 70,
	models.Mistake:    40,
	models.Blunder:    0,
}

// Classify maps a centipawn loss to a quality label and accuracy using the
// default thresholds.
func Classify(centipawnLoss int) (models.Quality, float64) {
	return DefaultThresholds().Classify(centipawnLoss)
}

// Classify maps a centipawn loss to a quality label and accuracy. Bounds
// are inclusive. A negative loss is a caller bug and panics.
func (t Thresholds) Classify(centipawnLoss int) (models.Quality, float64) {
	if centipawnLoss < 0 {
		panic(fmt.Sprintf("analysis: negative centipawn loss %d", centipawnLoss))
	}

	var q models.Quality
	switch {
	case centipawnLoss <= t.ExcellentMax:
		q = models.Excellent
	case centipawnLoss <= t.GoodMax:
		q = models.Good
	case centipawnLoss <= t.InaccuracyMax:
		q = models.Inaccuracy
	case centipawnLoss <= t.MistakeMax:
		q = models.Mistake
	default:
		q = models.Blunder
	}
	return q, accuracyByQuality[q]
}

// Accuracy returns the numeric accuracy of a quality label.
func Accuracy(q models.Quality) float64 {
	return accuracyByQuality[q]
}
