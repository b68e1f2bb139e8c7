package handlers

import (
	"net/http"

	"github.com/losnotables/opsconsole/internal/models"
)

// SyncStatus handles GET /api/sync/status
//
// An AUTH_ERROR status means the server rejected the stored token and
// nothing will be sent until PUT /api/session stores a new one.
func (s *Server) SyncStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Sync.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, st)
}

// FlushSync handles POST /api/sync/flush
//
// Runs one pass in the request. When a pass is already running, the
// device is offline, or sync is halted, the result is all zeros.
func (s *Server) FlushSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.Sync.Flush(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.Sync.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"result": res, "state": st})
}

// ResetSyncAuth handles POST /api/sync/reset-auth
func (s *Server) ResetSyncAuth(w http.ResponseWriter, r *http.Request) {
	s.Sync.ResetAuthError()
	st, err := s.Sync.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, st)
}

// ListOutbox handles GET /api/outbox?status=|shift_id=&limit=
func (s *Server) ListOutbox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		items []models.OutboxItem
		err   error
	)
	switch {
	case q.Get("status") != "":
		status := models.SyncStatus(q.Get("status"))
		switch status {
		case models.SyncPending, models.SyncSending, models.SyncSent, models.SyncFailed:
		default:
			respondError(w, http.StatusBadRequest, "unknown status "+string(status))
			return
		}
		items, err = s.Store.OutboxByStatus(r.Context(), status)
	case q.Get("shift_id") != "":
		items, err = s.Store.OutboxByShift(r.Context(), q.Get("shift_id"))
	default:
		items, err = s.Store.ListOutbox(r.Context(), queryInt(r, "limit", 100))
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, items)
}
