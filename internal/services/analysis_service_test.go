package services_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/eval"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/pgn"
	"github.com/vytor/chesscoach/internal/services"
	"github.com/vytor/chesscoach/internal/testutil/mocks"
)

var fixedNow = time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)

func line(move string, score int) eval.RankedMove {
	return eval.RankedMove{Move: move, Score: eval.Relative(score), Line: []string{move}}
}

// openingEvaluator scripts 1. e4 e5 with both moves top-ranked.
func openingEvaluator() *mocks.ScriptedEvaluator {
	return &mocks.ScriptedEvaluator{
		Name: "scripted 1.0",
		Lines: map[string][]eval.RankedMove{
			pgn.StartFEN: {line("e2e4", 30), line("d2d4", 20)},
			"ply1":       {line("e7e5", -30), line("c7c5", -35)},
		},
	}
}

func storedGame(id int64) *models.Game {
	return &models.Game{
		ID:             id,
		PlayerSide:     models.White,
		Opponent:       "bot",
		OpponentRating: 1800,
		Result:         models.WhiteWins,
		AnalysisStatus: models.StatusPending,
		Record: models.GameRecord{
			Moves: []models.RecordedMove{
				{Number: 1, Side: models.White, SAN: "e4", UCI: "e2e4", FEN: "ply1", ThinkTime: 2 * time.Second},
				{Number: 1, Side: models.Black, SAN: "e5", UCI: "e7e5", FEN: "ply2", ThinkTime: 3 * time.Second},
			},
		},
	}
}

type analysisFixture struct {
	games    *mocks.MockGameRepository
	analyses *mocks.MockAnalysisRepository
	metrics  *mocks.MockMetricsRepository
	pool     *mocks.EvaluatorPool
	svc      services.AnalysisService
}

func newAnalysisFixture(cfg services.AnalysisConfig, evaluators ...eval.Evaluator) *analysisFixture {
	f := &analysisFixture{
		games:    new(mocks.MockGameRepository),
		analyses: new(mocks.MockAnalysisRepository),
		metrics:  new(mocks.MockMetricsRepository),
		pool:     &mocks.EvaluatorPool{Evaluators: evaluators},
	}
	f.svc = services.NewAnalysisService(f.games, f.analyses, f.metrics, f.pool, cfg,
		services.WithAnalysisClock(func() time.Time { return fixedNow }))
	return f
}

func (f *analysisFixture) assertExpectations(t *testing.T) {
	f.games.AssertExpectations(t)
	f.analyses.AssertExpectations(t)
	f.metrics.AssertExpectations(t)
}

func TestAnalyzeGame_SavesAnalysisAndMetrics(t *testing.T) {
	f := newAnalysisFixture(services.DefaultAnalysisConfig(), openingEvaluator())
	ctx := context.Background()

	f.games.On("Get", mock.Anything, int64(1)).Return(storedGame(1), nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusProcessing).Return(nil)
	f.analyses.On("Save", mock.Anything,
		mock.MatchedBy(func(a *models.GameAnalysis) bool {
			return a.GameID == 1 && len(a.Moves) == 2 && a.Depth == 15 && a.AnalyzedAt.Equal(fixedNow)
		}),
		mock.MatchedBy(func(m *models.GameMetrics) bool {
			return m.GameID == 1 && m.Outcome == models.OutcomeWin && m.OpponentRating == 1800 && m.CalculatedAt.Equal(fixedNow)
		}),
	).Return(nil)

	require.NoError(t, f.svc.AnalyzeGame(ctx, 1, false))
	f.assertExpectations(t)
	f.games.AssertNotCalled(t, "UpdateStatus", mock.Anything, int64(1), models.StatusFailed)

	acquired, released := f.pool.Counts()
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, released)
}

func TestAnalyzeGame_DeepUsesDeepDepth(t *testing.T) {
	ev := openingEvaluator()
	f := newAnalysisFixture(services.DefaultAnalysisConfig(), ev)

	f.games.On("Get", mock.Anything, int64(1)).Return(storedGame(1), nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusProcessing).Return(nil)
	f.analyses.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.AnalyzeGame(context.Background(), 1, true))
	for _, l := range ev.Limits() {
		assert.Equal(t, 20, l.Depth)
		assert.Equal(t, 3, l.Lines)
	}
}

func TestAnalyzeGame_NotFound(t *testing.T) {
	f := newAnalysisFixture(services.DefaultAnalysisConfig(), openingEvaluator())
	f.games.On("Get", mock.Anything, int64(9)).Return(nil, sql.ErrNoRows)

	err := f.svc.AnalyzeGame(context.Background(), 9, false)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
	f.games.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeGame_EvaluatorFailureMarksFailed(t *testing.T) {
	ev := openingEvaluator()
	ev.FailOnCall = 2
	ev.Err = fmt.Errorf("broken pipe")
	f := newAnalysisFixture(services.DefaultAnalysisConfig(), ev)

	f.games.On("Get", mock.Anything, int64(1)).Return(storedGame(1), nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusProcessing).Return(nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusFailed).Return(nil)

	err := f.svc.AnalyzeGame(context.Background(), 1, false)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEvaluatorUnavailable))
	f.assertExpectations(t)
	f.analyses.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeGame_RetriesOnceAtReducedDepth(t *testing.T) {
	slow := openingEvaluator()
	slow.Block = true
	fast := openingEvaluator()

	cfg := services.DefaultAnalysisConfig()
	cfg.CallTimeout = 20 * time.Millisecond
	f := newAnalysisFixture(cfg, slow, fast)

	f.games.On("Get", mock.Anything, int64(1)).Return(storedGame(1), nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusProcessing).Return(nil)
	f.analyses.On("Save", mock.Anything,
		mock.MatchedBy(func(a *models.GameAnalysis) bool { return a.Depth == 11 }),
		mock.Anything,
	).Return(nil)

	require.NoError(t, f.svc.AnalyzeGame(context.Background(), 1, false))
	f.assertExpectations(t)

	require.NotEmpty(t, slow.Limits())
	assert.Equal(t, 15, slow.Limits()[0].Depth)
	require.NotEmpty(t, fast.Limits())
	assert.Equal(t, 11, fast.Limits()[0].Depth)

	acquired, released := f.pool.Counts()
	assert.Equal(t, 2, acquired)
	assert.Equal(t, 2, released)
}

func TestAnalyzeGame_TimeoutAtMinimumDepthFails(t *testing.T) {
	slow := openingEvaluator()
	slow.Block = true

	cfg := services.DefaultAnalysisConfig()
	cfg.Depth = services.MinRetryDepth
	cfg.CallTimeout = 20 * time.Millisecond
	f := newAnalysisFixture(cfg, slow)

	f.games.On("Get", mock.Anything, int64(1)).Return(storedGame(1), nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusProcessing).Return(nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusFailed).Return(nil)

	err := f.svc.AnalyzeGame(context.Background(), 1, false)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEvaluatorTimeout))
	f.assertExpectations(t)

	acquired, _ := f.pool.Counts()
	assert.Equal(t, 1, acquired)
}

func TestAnalyzeGame_SaveFailureMarksFailed(t *testing.T) {
	f := newAnalysisFixture(services.DefaultAnalysisConfig(), openingEvaluator())

	f.games.On("Get", mock.Anything, int64(1)).Return(storedGame(1), nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusProcessing).Return(nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusFailed).Return(nil)
	f.analyses.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	err := f.svc.AnalyzeGame(context.Background(), 1, false)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternal))
	f.assertExpectations(t)
}

func TestAnalyzeGame_CancelledStillMarksFailed(t *testing.T) {
	ev := openingEvaluator()
	ev.Block = true
	f := newAnalysisFixture(services.DefaultAnalysisConfig(), ev)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	f.games.On("Get", mock.Anything, int64(1)).Return(storedGame(1), nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusProcessing).Return(nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusFailed).Return(nil)

	err := f.svc.AnalyzeGame(ctx, 1, false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	f.assertExpectations(t)
	f.analyses.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeGame_PoolUnavailable(t *testing.T) {
	f := newAnalysisFixture(services.DefaultAnalysisConfig())
	f.pool.Err = errors.New("stockfish not found")

	f.games.On("Get", mock.Anything, int64(1)).Return(storedGame(1), nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusProcessing).Return(nil)
	f.games.On("UpdateStatus", mock.Anything, int64(1), models.StatusFailed).Return(nil)

	err := f.svc.AnalyzeGame(context.Background(), 1, false)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEvaluatorUnavailable))
	f.assertExpectations(t)
}

func TestAnalyzeRecord_MalformedRecord(t *testing.T) {
	ev := openingEvaluator()
	f := newAnalysisFixture(services.DefaultAnalysisConfig(), ev)

	record := storedGame(1).Record
	record.PlayerSide = models.White
	record.Moves[1].Side = models.White

	_, _, err := f.svc.AnalyzeRecord(context.Background(), record, false)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeMalformedGameRecord))
	assert.Empty(t, ev.Queries())
}

func TestAnalyzeRecord_NoStorage(t *testing.T) {
	f := newAnalysisFixture(services.DefaultAnalysisConfig(), openingEvaluator())

	record := storedGame(3).Record
	record.ID = 3
	record.PlayerSide = models.Black
	record.Result = models.WhiteWins

	a, m, err := f.svc.AnalyzeRecord(context.Background(), record, false)
	require.NoError(t, err)
	assert.Equal(t, models.Black, a.PlayerSide)
	assert.Equal(t, models.OutcomeLoss, m.Outcome)
	assert.Equal(t, 1, a.Summary.PlayerMoves)
	f.assertExpectations(t)
}

func TestGetAnalysisAndMetrics(t *testing.T) {
	f := newAnalysisFixture(services.DefaultAnalysisConfig())
	ctx := context.Background()

	f.analyses.On("Get", mock.Anything, int64(1)).Return(&models.GameAnalysis{GameID: 1}, nil)
	f.analyses.On("Get", mock.Anything, int64(2)).Return(nil, sql.ErrNoRows)
	f.metrics.On("Get", mock.Anything, int64(1)).Return(nil, errors.New("locked"))

	a, err := f.svc.GetAnalysis(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.GameID)

	_, err = f.svc.GetAnalysis(ctx, 2)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	_, err = f.svc.GetMetrics(ctx, 1)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInternal))
	f.assertExpectations(t)
}
