package analysis

import (
	"fmt"

	"github.com/vytor/chesscoach/internal/eval"
)

// Thresholds are the centipawn and move-number cutoffs used by the pipeline.
// Changing them changes results, so re-run analyses after an update.
type Thresholds struct {
	// Inclusive upper bounds of centipawn loss per quality label.
	ExcellentMax  int
	GoodMax       int
	InaccuracyMax int
	MistakeMax    int

	// Critical moments.
	SwingThreshold   int
	WinningThreshold int

	// Tactical opportunities.
	TacticGain    int
	FoundMaxLoss  int
	MissedMinLoss int
	MateThreshold int

	// Last full-move number of the opening and middlegame bands.
	OpeningEnd    int
	MiddlegameEnd int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ExcellentMax:     10,
		GoodMax:          25,
		InaccuracyMax:    75,
		MistakeMax:       200,
		SwingThreshold:   100,
		WinningThreshold: 200,
		TacticGain:       100,
		FoundMaxLoss:     25,
		MissedMinLoss:    100,
		MateThreshold:    eval.MateThreshold,
		OpeningEnd:       12,
		MiddlegameEnd:    35,
	}
}

// Validate checks that the quality bounds and phase cutoffs are ordered.
func (t Thresholds) Validate() error {
	if t.ExcellentMax < 0 || t.ExcellentMax >= t.GoodMax || t.GoodMax >= t.InaccuracyMax || t.InaccuracyMax >= t.MistakeMax {
		return fmt.Errorf("quality bounds must be strictly increasing: %d, %d, %d, %d",
			t.ExcellentMax, t.GoodMax, t.InaccuracyMax, t.MistakeMax)
	}
	if t.OpeningEnd < 1 || t.MiddlegameEnd <= t.OpeningEnd {
		return fmt.Errorf("phase cutoffs must satisfy 1 <= opening (%d) < middlegame (%d)", t.OpeningEnd, t.MiddlegameEnd)
	}
	if t.SwingThreshold <= 0 || t.WinningThreshold <= 0 || t.TacticGain <= 0 || t.MissedMinLoss <= 0 || t.FoundMaxLoss <= 0 {
		return fmt.Errorf("detection thresholds must be positive")
	}
	if t.MateThreshold <= t.WinningThreshold {
		return fmt.Errorf("mate threshold %d must exceed winning threshold %d", t.MateThreshold, t.WinningThreshold)
	}
	return nil
}
