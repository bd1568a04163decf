package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chesscoach/internal/models"
)

// MockAnalysisRepository is a mock implementation of repository.AnalysisRepository
type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Save(ctx context.Context, analysis *models.GameAnalysis, metrics *models.GameMetrics) error {
	args := m.Called(ctx, analysis, metrics)
	return args.Error(0)
}

func (m *MockAnalysisRepository) Get(ctx context.Context, gameID int64) (*models.GameAnalysis, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameAnalysis), args.Error(1)
}

// MockMetricsRepository is a mock implementation of repository.MetricsRepository
type MockMetricsRepository struct {
	mock.Mock
}

func (m *MockMetricsRepository) Get(ctx context.Context, gameID int64) (*models.GameMetrics, error) {
	args := m.Called(ctx, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameMetrics), args.Error(1)
}

func (m *MockMetricsRepository) History(ctx context.Context, limit int) ([]models.GameMetrics, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GameMetrics), args.Error(1)
}
