package handlers

import (
	"net/http"
	"time"

	"github.com/losnotables/opsconsole/internal/events"
	"github.com/losnotables/opsconsole/internal/models"
)

// RecordEvent handles POST /api/events
//
// The event lands in the local ledger and its outbox in one transaction;
// delivery to the server happens later. A 201 therefore means "recorded
// locally", not "synced".
func (s *Server) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req models.RecordEventRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	ev, err := s.Console.Record(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, ev)
}

// CashAdvances handles GET /api/employees/{id}/cash-advances?from=&to=
//
// from and to accept RFC 3339 or YYYY-MM-DD. A bare to date includes that
// whole day. The range defaults to the last 30 days.
func (s *Server) CashAdvances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := time.Now()
	if v := q.Get("to"); v != "" {
		t, dateOnly, err := s.parseInstant(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to")
			return
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		to = t
	}
	from := to.AddDate(0, 0, -30)
	if v := q.Get("from"); v != "" {
		t, _, err := s.parseInstant(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from")
			return
		}
		from = t
	}

	report, err := s.Console.CashAdvances(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, report)
}

// CashAdvanceReasons handles GET /api/cash-advance-reasons
func (s *Server) CashAdvanceReasons(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, events.Reasons())
}
