package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/jobs"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/pgn"
	"github.com/vytor/chesscoach/internal/repository"
)

// ImportGameRequest is a finished game submitted as PGN.
type ImportGameRequest struct {
	PGN        string      `json:"pgn"`
	PlayerSide models.Side `json:"player_side"`
	// OpponentRating overrides the PGN Elo tag when positive.
	OpponentRating int `json:"opponent_rating,omitempty"`
}

// GameService handles game-related business logic
type GameService interface {
	ImportPGN(ctx context.Context, req ImportGameRequest) (*models.Game, error)
	GetGame(ctx context.Context, id int64) (*models.Game, error)
	ListGames(ctx context.Context, filter models.GameFilter) ([]models.Game, int, error)
	QueueGameAnalysis(ctx context.Context, gameID int64, deep bool) error
	ResumeAnalysis(ctx context.Context) (int, error)
}

type gameService struct {
	gameRepo repository.GameRepository
	jobQueue jobs.JobQueue
}

// NewGameService creates a new GameService
func NewGameService(gameRepo repository.GameRepository, jobQueue jobs.JobQueue) GameService {
	return &gameService{
		gameRepo: gameRepo,
		jobQueue: jobQueue,
	}
}

func (s *gameService) ImportPGN(ctx context.Context, req ImportGameRequest) (*models.Game, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(req.PGN) == "" {
		return nil, errors.NewValidationError("pgn", "cannot be empty")
	}
	if !req.PlayerSide.Valid() {
		return nil, errors.NewValidationError("player_side", "must be white or black")
	}
	if req.OpponentRating < 0 {
		return nil, errors.NewValidationError("opponent_rating", "cannot be negative")
	}

	record, err := pgn.ParseGameRecord(req.PGN, req.PlayerSide)
	if err != nil {
		log.Debug("rejecting pgn: %v", err)
		return nil, errors.NewMalformedGameRecordError(err.Error())
	}
	if req.OpponentRating > 0 {
		record.OpponentRating = req.OpponentRating
	}

	game := models.Game{
		PlayerSide:     record.PlayerSide,
		Opponent:       record.Opponent,
		OpponentRating: record.OpponentRating,
		Result:         record.Result,
		Termination:    record.Termination,
		MoveCount:      len(record.Moves),
		AnalysisStatus: models.StatusPending,
		Record:         record,
	}
	id, err := s.gameRepo.Insert(ctx, game)
	if err != nil {
		log.Error("failed to insert game: %v", err)
		return nil, errors.NewInternalError(err)
	}
	game.ID = id
	game.Record.ID = id

	log.Info("imported game: id=%d, opponent=%s, moves=%d", id, game.Opponent, game.MoveCount)
	return &game, nil
}

func (s *gameService) GetGame(ctx context.Context, id int64) (*models.Game, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting game: id=%d", id)

	game, err := s.gameRepo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("game", id)
		}
		log.Error("failed to get game: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return game, nil
}

func (s *gameService) ListGames(ctx context.Context, filter models.GameFilter) ([]models.Game, int, error) {
	log := logger.FromContext(ctx)

	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}

	totalCount, err := s.gameRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count games: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}

	return games, totalCount, nil
}

func (s *gameService) QueueGameAnalysis(ctx context.Context, gameID int64, deep bool) error {
	log := logger.FromContext(ctx)
	log.Debug("queueing game analysis: game_id=%d, deep=%t", gameID, deep)

	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}

	if game.AnalysisStatus == models.StatusProcessing {
		log.Debug("game already processing, skipping queue")
		return nil
	}

	if err := s.jobQueue.EnqueueAnalysis(gameID, deep); err != nil {
		log.Warn("failed to enqueue analysis for game %d: %v", gameID, err)
		return errors.NewQueueFullError(err)
	}
	return nil
}

// ResumeAnalysis requeues games left pending or interrupted mid-analysis.
func (s *gameService) ResumeAnalysis(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	if _, err := s.gameRepo.ResetProcessingToPending(ctx); err != nil {
		log.Warn("failed to reset processing games: %v", err)
	}

	games, err := s.gameRepo.List(ctx, models.GameFilter{Status: models.StatusPending, OrderDir: "ASC"})
	if err != nil {
		log.Error("failed to list games needing analysis: %v", err)
		return 0, errors.NewInternalError(err)
	}

	queued := 0
	for _, g := range games {
		if err := s.jobQueue.EnqueueAnalysis(g.ID, false); err != nil {
			log.Warn("failed to enqueue analysis for game %d: %v", g.ID, err)
			continue
		}
		queued++
	}
	log.Info("queued %d of %d pending games for analysis", queued, len(games))
	return queued, nil
}
