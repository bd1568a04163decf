package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/vytor/chesscoach/internal/analysis"
	"github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/eval"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/metrics"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/repository"
)

// EvaluatorPool lends evaluator sessions; release must be called once the
// session is no longer used.
type EvaluatorPool interface {
	Session(ctx context.Context) (ev eval.Evaluator, release func(), err error)
}

// AnalysisService runs the post-game pipeline and persists its results
type AnalysisService interface {
	// AnalyzeGame analyzes a stored game and saves the analysis with its
	// metrics. On failure the game is marked failed and nothing is saved.
	AnalyzeGame(ctx context.Context, gameID int64, deep bool) error
	// AnalyzeRecord runs the pipeline without touching storage.
	AnalyzeRecord(ctx context.Context, record models.GameRecord, deep bool) (*models.GameAnalysis, *models.GameMetrics, error)
	GetAnalysis(ctx context.Context, gameID int64) (*models.GameAnalysis, error)
	GetMetrics(ctx context.Context, gameID int64) (*models.GameMetrics, error)
}

type analysisService struct {
	gameRepo     repository.GameRepository
	analysisRepo repository.AnalysisRepository
	metricsRepo  repository.MetricsRepository
	engines      EvaluatorPool
	config       AnalysisConfig
	now          func() time.Time
}

type AnalysisServiceOption func(*analysisService)

// WithAnalysisClock sets the clock stamped on analyses and metrics.
func WithAnalysisClock(now func() time.Time) AnalysisServiceOption {
	return func(s *analysisService) { s.now = now }
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(
	gameRepo repository.GameRepository,
	analysisRepo repository.AnalysisRepository,
	metricsRepo repository.MetricsRepository,
	engines EvaluatorPool,
	config AnalysisConfig,
	opts ...AnalysisServiceOption,
) AnalysisService {
	s := &analysisService{
		gameRepo:     gameRepo,
		analysisRepo: analysisRepo,
		metricsRepo:  metricsRepo,
		engines:      engines,
		config:       config,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *analysisService) AnalyzeGame(ctx context.Context, gameID int64, deep bool) error {
	log := logger.FromContext(ctx).WithField("game_id", gameID)
	ctx = logger.NewContext(ctx, log)
	log.Info("starting game analysis")

	game, err := s.gameRepo.Get(ctx, gameID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError("game", gameID)
		}
		log.Error("failed to get game: %v", err)
		return errors.NewInternalError(err)
	}

	log.Debug("updating game status to processing")
	if err := s.gameRepo.UpdateStatus(ctx, gameID, models.StatusProcessing); err != nil {
		log.Error("failed to update game status: %v", err)
		return errors.NewInternalError(err)
	}

	record := game.Record
	record.ID = game.ID
	record.PlayerSide = game.PlayerSide
	record.OpponentRating = game.OpponentRating
	record.Result = game.Result

	a, m, err := s.AnalyzeRecord(ctx, record, deep)
	if err != nil {
		s.markFailed(ctx, gameID)
		return err
	}

	if err := s.analysisRepo.Save(ctx, a, m); err != nil {
		log.Error("failed to save analysis: %v", err)
		s.markFailed(ctx, gameID)
		return errors.NewInternalError(err)
	}

	log.Info("game analysis completed: accuracy=%.1f, precision=%.1f", m.Accuracy, m.Scores.Precision)
	return nil
}

// markFailed records the failure even when ctx was cancelled.
func (s *analysisService) markFailed(ctx context.Context, gameID int64) {
	if err := s.gameRepo.UpdateStatus(context.WithoutCancel(ctx), gameID, models.StatusFailed); err != nil {
		logger.FromContext(ctx).Error("failed to mark game as failed: %v", err)
	}
}

func (s *analysisService) AnalyzeRecord(ctx context.Context, record models.GameRecord, deep bool) (*models.GameAnalysis, *models.GameMetrics, error) {
	log := logger.FromContext(ctx)

	depth := s.config.depth(deep)
	a, err := s.run(ctx, record, depth)
	if errors.HasCode(err, errors.ErrCodeEvaluatorTimeout) {
		if retry := retryDepth(depth); retry > 0 {
			log.Warn("evaluator timed out at depth %d, retrying at depth %d", depth, retry)
			a, err = s.run(ctx, record, retry)
		}
	}
	if err != nil {
		log.Error("analysis failed: %v", err)
		return nil, nil, err
	}

	m := metrics.NewCalculator(s.config.Thresholds).WithClock(s.now).
		Calculate(a, record.PlayerSide, record.OpponentRating, record.Result)
	return a, &m, nil
}

// run performs one full analysis on a fresh evaluator session.
func (s *analysisService) run(ctx context.Context, record models.GameRecord, depth int) (*models.GameAnalysis, error) {
	log := logger.FromContext(ctx)

	ev, release, err := s.engines.Session(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewEvaluatorUnavailableError(err)
	}
	defer release()

	analyzer := analysis.NewAnalyzer(ev,
		analysis.WithThresholds(s.config.Thresholds),
		analysis.WithClock(s.now),
	)
	return analyzer.AnalyzeGame(ctx, record, analysis.Options{
		Depth:       depth,
		Lines:       s.config.Lines,
		CallTimeout: s.config.CallTimeout,
		OnProgress: func(p analysis.Progress) {
			log.Debug("analyzed move %d/%d (%s)", p.Current, p.Total, p.Phase)
		},
	})
}

func (s *analysisService) GetAnalysis(ctx context.Context, gameID int64) (*models.GameAnalysis, error) {
	a, err := s.analysisRepo.Get(ctx, gameID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("analysis", gameID)
		}
		logger.FromContext(ctx).Error("failed to get analysis: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return a, nil
}

func (s *analysisService) GetMetrics(ctx context.Context, gameID int64) (*models.GameMetrics, error) {
	m, err := s.metricsRepo.Get(ctx, gameID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("metrics", gameID)
		}
		logger.FromContext(ctx).Error("failed to get metrics: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return m, nil
}
