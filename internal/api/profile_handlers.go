package api

import "net/http"

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	p, err := s.ProfileService.GetProfile(r.Context(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}
