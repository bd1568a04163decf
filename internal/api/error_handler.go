package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vytor/chesscoach/internal/errors"
	"github.com/vytor/chesscoach/internal/logger"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	appErr, ok := errors.As(err)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = errors.NewInternalError(err)
	}

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	writeError(w, appErr)
}

func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	var body errorBody
	body.Error.Code = appErr.Code
	body.Error.Message = appErr.Message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(body)
}

func errNotFoundRoute(r *http.Request) error {
	return &errors.AppError{
		Code:    errors.ErrCodeNotFound,
		Message: fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
		Status:  http.StatusNotFound,
	}
}
