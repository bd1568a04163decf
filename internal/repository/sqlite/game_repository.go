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

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var gameColumns = []string{
	"id", "player_side", "opponent", "opponent_rating", "result", "termination",
	"move_count", "analysis_status", "record_json", "created_at",
}

type gameRepository struct {
	db *sql.DB
}

// NewGameRepository creates a new GameRepository implementation
func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &gameRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (models.Game, error) {
	var g models.Game
	var record string
	if err := row.Scan(&g.ID, &g.PlayerSide, &g.Opponent, &g.OpponentRating, &g.Result, &g.Termination,
		&g.MoveCount, &g.AnalysisStatus, &record, &g.CreatedAt); err != nil {
		return g, err
	}
	if err := json.Unmarshal([]byte(record), &g.Record); err != nil {
		return g, err
	}
	g.Record.ID = g.ID
	return g, nil
}

func (r *gameRepository) Get(ctx context.Context, id int64) (*models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("getting game: id=%d", id)

	query, args, err := sqlBuilder.Select(gameColumns...).From("games").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	g, err := scanGame(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("game not found: id=%d", id)
		} else {
			log.Error("failed to get game: %v", err)
		}
		return nil, err
	}
	log.Debug("game found: opponent=%s, result=%s", g.Opponent, g.Result)
	return &g, nil
}

func applyGameFilter(query squirrel.SelectBuilder, filter models.GameFilter) squirrel.SelectBuilder {
	if filter.Result != "" {
		query = query.Where(squirrel.Eq{"result": filter.Result})
	}
	if filter.PlayerSide != "" {
		query = query.Where(squirrel.Eq{"player_side": filter.PlayerSide})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"analysis_status": filter.Status})
	}
	if filter.Opponent != "" {
		query = query.Where(squirrel.Eq{"opponent": filter.Opponent})
	}
	return query
}

func (r *gameRepository) List(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("listing games with filter: result=%s, side=%s, status=%s, opponent=%s",
		filter.Result, filter.PlayerSide, filter.Status, filter.Opponent)

	query := applyGameFilter(sqlBuilder.Select(gameColumns...).From("games"), filter)

	orderDir := "DESC"
	if filter.OrderDir == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy("created_at "+orderDir, "id "+orderDir)

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := max(filter.Offset, 0)
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return nil, err
	}
	defer rows.Close()
	games := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			log.Error("failed to scan game row: %v", err)
			return nil, err
		}
		games = append(games, g)
	}
	log.Debug("found %d games", len(games))
	return games, rows.Err()
}

func (r *gameRepository) Count(ctx context.Context, filter models.GameFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	sql, args, err := applyGameFilter(sqlBuilder.Select("COUNT(*)").From("games"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sql, args...).Scan(&count); err != nil {
		log.Error("failed to count games: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *gameRepository) Insert(ctx context.Context, g models.Game) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("inserting game: opponent=%s, moves=%d", g.Opponent, len(g.Record.Moves))

	record, err := json.Marshal(g.Record)
	if err != nil {
		return 0, err
	}
	status := g.AnalysisStatus
	if status == "" {
		status = models.StatusPending
	}

	sql, args, err := sqlBuilder.Insert("games").
		Columns("player_side", "opponent", "opponent_rating", "result", "termination", "move_count", "analysis_status", "record_json").
		Values(g.PlayerSide, g.Opponent, g.OpponentRating, g.Result, g.Termination, len(g.Record.Moves), status, string(record)).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		log.Error("failed to insert game: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	log.Debug("game inserted: id=%d", id)
	return id, nil
}

func (r *gameRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("updating game status: id=%d, status=%s", id, status)

	sql, args, err := sqlBuilder.Update("games").Set("analysis_status", status).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		log.Error("failed to update game status: %v", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sqlErrNoRows
	}
	return nil
}

// ResetProcessingToPending requeues games left in processing by a crash.
func (r *gameRepository) ResetProcessingToPending(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	sql, args, err := sqlBuilder.Update("games").
		Set("analysis_status", models.StatusPending).
		Where(squirrel.Eq{"analysis_status": models.StatusProcessing}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, sql, args...)
	if err != nil {
		log.Error("failed to reset processing games: %v", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if n > 0 {
		log.Info("reset %d processing games to pending", n)
	}
	return int(n), err
}
