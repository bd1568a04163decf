package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/repository"
)

type analysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new AnalysisRepository implementation
func NewAnalysisRepository(db *sql.DB) repository.AnalysisRepository {
	return &analysisRepository{db: db}
}

// Save replaces any previous analysis and metrics of the game and marks it
// completed. Nothing is written when any statement fails.
func (r *analysisRepository) Save(ctx context.Context, a *models.GameAnalysis, m *models.GameMetrics) error {
	log := logger.FromContext(ctx).WithPrefix("analysis_repo").WithFields(map[string]any{"game_id": a.GameID})
	log.Debug("saving analysis: moves=%d, accuracy=%.1f", len(a.Moves), a.Summary.Accuracy)

	analysisPayload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	metricsPayload, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := sqlBuilder.Insert("analyses").
			Columns("game_id", "version", "engine", "depth", "accuracy", "avg_centipawn_loss",
				"blunders", "mistakes", "inaccuracies", "payload", "analyzed_at").
			Values(a.GameID, a.Version, a.Engine, a.Depth, a.Summary.Accuracy, a.Summary.AvgCentipawnLoss,
				a.Summary.Blunders, a.Summary.Mistakes, a.Summary.Inaccuracies, string(analysisPayload), a.AnalyzedAt.UTC()).
			Suffix(`ON CONFLICT(game_id) DO UPDATE SET
				version = excluded.version,
				engine = excluded.engine,
				depth = excluded.depth,
				accuracy = excluded.accuracy,
				avg_centipawn_loss = excluded.avg_centipawn_loss,
				blunders = excluded.blunders,
				mistakes = excluded.mistakes,
				inaccuracies = excluded.inaccuracies,
				payload = excluded.payload,
				analyzed_at = excluded.analyzed_at`).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to upsert analysis: %v", err)
			return err
		}

		s := m.Scores
		query, args, err = sqlBuilder.Insert("metrics").
			Columns("game_id", "outcome", "accuracy", "precision_score", "tactical_danger_score", "stability_score",
				"conversion_score", "preparation_score", "positional_score", "payload", "calculated_at").
			Values(m.GameID, m.Outcome, m.Accuracy, s.Precision, s.TacticalDanger, s.Stability,
				s.Conversion, s.Preparation, s.Positional, string(metricsPayload), m.CalculatedAt.UTC()).
			Suffix(`ON CONFLICT(game_id) DO UPDATE SET
				outcome = excluded.outcome,
				accuracy = excluded.accuracy,
				precision_score = excluded.precision_score,
				tactical_danger_score = excluded.tactical_danger_score,
				stability_score = excluded.stability_score,
				conversion_score = excluded.conversion_score,
				preparation_score = excluded.preparation_score,
				positional_score = excluded.positional_score,
				payload = excluded.payload,
				calculated_at = excluded.calculated_at`).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to upsert metrics: %v", err)
			return err
		}

		query, args, err = sqlBuilder.Update("games").
			Set("analysis_status", models.StatusCompleted).
			Where(squirrel.Eq{"id": a.GameID}).
			ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			log.Error("failed to mark game completed: %v", err)
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sqlErrNoRows
		}
		log.Info("analysis saved")
		return nil
	})
}

func (r *analysisRepository) Get(ctx context.Context, gameID int64) (*models.GameAnalysis, error) {
	log := logger.FromContext(ctx).WithPrefix("analysis_repo")
	log.Debug("getting analysis: game_id=%d", gameID)

	query, args, err := sqlBuilder.Select("payload").From("analyses").Where(squirrel.Eq{"game_id": gameID}).ToSql()
	if err != nil {
		return nil, err
	}
	var payload string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error("failed to get analysis: %v", err)
		}
		return nil, err
	}
	var a models.GameAnalysis
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		log.Error("failed to decode analysis payload: %v", err)
		return nil, err
	}
	return &a, nil
}
