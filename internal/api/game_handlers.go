package api

import (
	"net/http"

	"github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/models"
	"github.com/vytor/chesscoach/internal/services"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type gameListResponse struct {
	Games  []models.Game `json:"games"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

func (s *Server) handleImportGame(w http.ResponseWriter, r *http.Request) {
	var req services.ImportGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	game, err := s.GameService.ImportPGN(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{
		"id":              game.ID,
		"analysis_status": game.AnalysisStatus,
		"move_count":      game.MoveCount,
	})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.GameFilter{
		Status:   q.Get("status"),
		Opponent: q.Get("opponent"),
	}

	if v := q.Get("result"); v != "" {
		switch res := models.Result(v); res {
		case models.WhiteWins, models.BlackWins, models.Draw, models.Unknown:
			filter.Result = res
		default:
			handleError(w, r, errors.NewValidationError("result", "must be 1-0, 0-1, 1/2-1/2 or *"))
			return
		}
	}
	if v := q.Get("side"); v != "" {
		side, err := models.ParseSide(v)
		if err != nil {
			handleError(w, r, errors.NewValidationError("side", "must be white or black"))
			return
		}
		filter.PlayerSide = side
	}
	switch filter.Status {
	case "", models.StatusPending, models.StatusProcessing, models.StatusCompleted, models.StatusFailed:
	default:
		handleError(w, r, errors.NewValidationError("status", "unknown analysis status"))
		return
	}

	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		handleError(w, r, err)
		return
	}
	switch {
	case limit == 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	filter.Limit, filter.Offset = limit, offset

	games, total, err := s.GameService.ListGames(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, gameListResponse{Games: games, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	game, err := s.GameService.GetGame(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, game)
}

func (s *Server) handleQueueGameAnalysis(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	deep, err := queryBool(r, "deep")
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.GameService.QueueGameAnalysis(r.Context(), id, deep); err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("analysis queued: game_id=%d, deep=%t", id, deep)
	writeJSON(w, r, http.StatusAccepted, map[string]any{"id": id, "deep": deep, "status": "queued"})
}

func (s *Server) handleResumeAnalysis(w http.ResponseWriter, r *http.Request) {
	count, err := s.GameService.ResumeAnalysis(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]int{"queued": count})
}
