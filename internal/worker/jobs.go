package worker

import (
	"context"
	"fmt"
)

// AnalyzeGameJob runs the full analysis pipeline for one stored game.
type AnalyzeGameJob struct {
	AnalysisService AnalysisServiceInterface
	GameID          int64
	Deep            bool
}

func (j *AnalyzeGameJob) Name() string {
	if j.Deep {
		return fmt.Sprintf("analyze_game_deep:%d", j.GameID)
	}
	return fmt.Sprintf("analyze_game:%d", j.GameID)
}

func (j *AnalyzeGameJob) Run(ctx context.Context) error {
	return j.AnalysisService.AnalyzeGame(ctx, j.GameID, j.Deep)
}
