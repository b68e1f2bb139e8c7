package handlers

import "net/http"

// Routes registers every endpoint on a fresh ServeMux (Go 1.22 method and
// wildcard patterns).
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/session", s.GetSession)
	mux.HandleFunc("PUT /api/session", s.PutSession)
	mux.HandleFunc("DELETE /api/session", s.DeleteSession)

	mux.HandleFunc("GET /api/shifts", s.ListShifts)
	mux.HandleFunc("POST /api/shifts/open", s.OpenShift)
	mux.HandleFunc("GET /api/shifts/active", s.ActiveShift)
	mux.HandleFunc("GET /api/shifts/{id}/summary", s.ShiftSummary)
	mux.HandleFunc("POST /api/shifts/{id}/close", s.CloseShift)
	mux.HandleFunc("GET /api/shifts/{id}/events", s.ShiftEvents)

	mux.HandleFunc("POST /api/events", s.RecordEvent)
	mux.HandleFunc("GET /api/employees/{id}/cash-advances", s.CashAdvances)
	mux.HandleFunc("GET /api/cash-advance-reasons", s.CashAdvanceReasons)

	mux.HandleFunc("GET /api/staff", s.ListStaff)
	mux.HandleFunc("POST /api/staff/refresh", s.RefreshStaff)
	mux.HandleFunc("GET /api/hr-notices", s.ListNotices)

	mux.HandleFunc("GET /api/sync/status", s.SyncStatus)
	mux.HandleFunc("POST /api/sync/flush", s.FlushSync)
	mux.HandleFunc("POST /api/sync/reset-auth", s.ResetSyncAuth)
	mux.HandleFunc("GET /api/outbox", s.ListOutbox)

	mux.HandleFunc("POST /api/admin/seed", s.SeedDemo)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}
