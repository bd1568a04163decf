package repository

import (
	"context"

	"github.com/vytor/chesscoach/internal/models"
)

// MetricsRepository reads per-game metrics
type MetricsRepository interface {
	Get(ctx context.Context, gameID int64) (*models.GameMetrics, error)
	// History returns the most recent limit metrics, oldest first.
	History(ctx context.Context, limit int) ([]models.GameMetrics, error)
}
