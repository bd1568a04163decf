package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	if s.RequestTimeout > 0 {
		r.Use(timeoutMiddleware(s.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/games", s.handleImportGame)
		r.Get("/games", s.handleListGames)
		r.Post("/games/resume-analysis", s.handleResumeAnalysis)
		r.Route("/games/{id}", func(r chi.Router) {
			r.Use(gameLoggerMiddleware)
			r.Get("/", s.handleGetGame)
			r.Post("/analysis", s.handleQueueGameAnalysis)
			r.Get("/analysis", s.handleGetAnalysis)
			r.Get("/metrics", s.handleGetMetrics)
		})
		r.Get("/profile", s.handleProfile)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNotFoundRoute(r))
	})
	return r
}
