package adapthttp

import (
	"net/http"

	"wellness/internal/domain"
)

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := s.svc.Profiles.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": p})
}

func (s *Server) handleProfilePut(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var p domain.UserProfile
	if err := parseJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p.UserID = id
	saved, err := s.svc.Profiles.Save(r.Context(), &p)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": saved})
}
