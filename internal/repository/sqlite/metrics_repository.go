package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/repository"
)

type metricsRepository struct {
	db *sql.DB
}

// NewMetricsRepository creates a new MetricsRepository implementation
func NewMetricsRepository(db *sql.DB) repository.MetricsRepository {
	return &metricsRepository{db: db}
}

func (r *metricsRepository) Get(ctx context.Context, gameID int64) (*models.GameMetrics, error) {
	log := logger.FromContext(ctx).WithPrefix("metrics_repo")

	query, args, err := sqlBuilder.Select("payload").From("metrics").Where(squirrel.Eq{"game_id": gameID}).ToSql()
	if err != nil {
		return nil, err
	}
	var payload string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error("failed to get metrics: %v", err)
		}
		return nil, err
	}
	var m models.GameMetrics
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		log.Error("failed to decode metrics payload: %v", err)
		return nil, err
	}
	return &m, nil
}

func (r *metricsRepository) History(ctx context.Context, limit int) ([]models.GameMetrics, error) {
	log := logger.FromContext(ctx).WithPrefix("metrics_repo")
	log.Debug("loading metrics history: limit=%d", limit)

	q := sqlBuilder.Select("payload").From("metrics").OrderBy("calculated_at DESC", "game_id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query metrics history: %v", err)
		return nil, err
	}
	defer rows.Close()

	history := []models.GameMetrics{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var m models.GameMetrics
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			log.Error("failed to decode metrics payload: %v", err)
			return nil, err
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(history)
	log.Debug("loaded %d metrics", len(history))
	return history, nil
}
