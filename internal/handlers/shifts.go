package handlers

import (
	"errors"
	"net/http"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

// OpenShift handles POST /api/shifts/open
//
// Opening is idempotent: when a shift is already OPEN it is returned
// unchanged with 200 instead of 201.
func (s *Server) OpenShift(w http.ResponseWriter, r *http.Request) {
	var req models.OpenShiftRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	existing, err := s.Store.OpenShift(r.Context())
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.fail(w, r, err)
		return
	}

	sh, err := s.Shifts.Open(r.Context(), req.LocalID, req.LocalLabel, req.Cycle)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if existing != nil && existing.ID == sh.ID {
		status = http.StatusOK
	}
	respond(w, status, sh)
}

// ListShifts handles GET /api/shifts?limit=
//
// Most recent first, open and closed alike.
func (s *Server) ListShifts(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.ListShifts(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, list)
}

// ActiveShift handles GET /api/shifts/active
//
// No open shift is a normal state for the console, so it is reported as
// {"shift": null} rather than an error.
func (s *Server) ActiveShift(w http.ResponseWriter, r *http.Request) {
	sh, err := s.Shifts.Active(r.Context())
	if errors.Is(err, apperr.ErrNoOpenShift) {
		respond(w, http.StatusOK, map[string]any{"shift": nil})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"shift": sh})
}

// ShiftSummary handles GET /api/shifts/{id}/summary
func (s *Server) ShiftSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Console.Summary(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, sum)
}

// CloseShift handles POST /api/shifts/{id}/close
func (s *Server) CloseShift(w http.ResponseWriter, r *http.Request) {
	res, err := s.Console.CloseShift(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

// ShiftEvents handles GET /api/shifts/{id}/events?limit=
func (s *Server) ShiftEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.Console.RecentEvents(r.Context(), r.PathValue("id"), queryInt(r, "limit", 50))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, evs)
}
