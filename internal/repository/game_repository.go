package repository

import (
	"context"

	"github.com/vytor/chesscoach/internal/models"
)

// GameRepository handles game data access
type GameRepository interface {
	Get(ctx context.Context, id int64) (*models.Game, error)
	List(ctx context.Context, filter models.GameFilter) ([]models.Game, error)
	Count(ctx context.Context, filter models.GameFilter) (int, error)
	Insert(ctx context.Context, game models.Game) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	ResetProcessingToPending(ctx context.Context) (int, error)
}
