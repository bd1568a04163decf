package services

import (
	"context"
	"time"

	"github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/profile"
	"github.com/vytor/chesscoach/internal/repository"
)

// DefaultProfileWindow is the number of recent games aggregated when no
// limit is given.
const DefaultProfileWindow = 50

// ProfileService aggregates per-game metrics into a player profile
type ProfileService interface {
	GetProfile(ctx context.Context, limit int) (*models.PlayerProfile, error)
}

type profileService struct {
	metricsRepo repository.MetricsRepository
	now         func() time.Time
}

// NewProfileService creates a new ProfileService
func NewProfileService(metricsRepo repository.MetricsRepository) ProfileService {
	return &profileService{metricsRepo: metricsRepo, now: time.Now}
}

func (s *profileService) GetProfile(ctx context.Context, limit int) (*models.PlayerProfile, error) {
	log := logger.FromContext(ctx)

	if limit < 0 {
		return nil, errors.NewValidationError("limit", "cannot be negative")
	}
	if limit == 0 {
		limit = DefaultProfileWindow
	}

	history, err := s.metricsRepo.History(ctx, limit)
	if err != nil {
		log.Error("failed to load metrics history: %v", err)
		return nil, errors.NewInternalError(err)
	}

	p := profile.Aggregate(history, s.now())
	log.Debug("aggregated profile over %d games", p.Games)
	return &p, nil
}
