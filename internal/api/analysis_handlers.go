package api

import "net/http"

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	a, err := s.AnalysisService.GetAnalysis(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	m, err := s.AnalysisService.GetMetrics(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, m)
}
