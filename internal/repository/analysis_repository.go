package repository

import (
	"context"

	"github.com/vytor/chesscoach/internal/models"
)

// AnalysisRepository handles analysis results. Save writes the analysis,
// its metrics and the completed status of the game in one transaction.
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *models.GameAnalysis, metrics *models.GameMetrics) error
	Get(ctx context.Context, gameID int64) (*models.GameAnalysis, error)
}
