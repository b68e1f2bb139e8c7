package handlers

import (
	"net/http"

	"github.com/losnotables/opsconsole/internal/models"
)

// GetSession handles GET /api/session
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	actor, err := s.Sessions.Current(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"user": actor})
}

// PutSession handles PUT /api/session
//
// Storing a fresh token also lifts a sync halt caused by a rejected one.
func (s *Server) PutSession(w http.ResponseWriter, r *http.Request) {
	var req models.SessionRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	actor, err := s.Sessions.Save(r.Context(), req.Token, req.User)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Sync.ResetAuthError()
	s.Log.Info("session stored", "user_id", actor.ID)
	respond(w, http.StatusOK, map[string]any{"user": actor})
}

// DeleteSession handles DELETE /api/session
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Clear(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
