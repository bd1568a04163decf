package services

import (
	"time"

	"github.com/vytor/chesscoach/internal/analysis"
)

// Reduced-depth retry after an evaluator timeout.
const (
	RetryDepthStep = 4
	MinRetryDepth  = 8
)

// AnalysisConfig holds configuration for game analysis
type AnalysisConfig struct {
	Depth       int
	DeepDepth   int
	Lines       int           // MultiPV
	CallTimeout time.Duration // per evaluator call, 0 = no limit
	Thresholds  analysis.Thresholds
}

// DefaultAnalysisConfig mirrors the analyzer defaults.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Depth:       analysis.QuickDepth,
		DeepDepth:   analysis.DeepDepth,
		Lines:       analysis.DefaultLines,
		CallTimeout: 10 * time.Second,
		Thresholds:  analysis.DefaultThresholds(),
	}
}

func (c AnalysisConfig) depth(deep bool) int {
	if deep {
		if c.DeepDepth > 0 {
			return c.DeepDepth
		}
		return analysis.DeepDepth
	}
	if c.Depth > 0 {
		return c.Depth
	}
	return analysis.QuickDepth
}

// retryDepth returns the depth of the single retry, or 0 when depth is
// already at the floor.
func retryDepth(depth int) int {
	if depth <= MinRetryDepth {
		return 0
	}
	return max(depth-RetryDepthStep, MinRetryDepth)
}
