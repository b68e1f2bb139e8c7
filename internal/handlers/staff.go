package handlers

import (
	"net/http"
	"strings"
)

// ListStaff handles GET /api/staff?local_id=&q=
//
// Reads only the local cache; POST /api/staff/refresh pulls from the server.
func (s *Server) ListStaff(w http.ResponseWriter, r *http.Request) {
	localID := strings.TrimSpace(r.URL.Query().Get("local_id"))
	if localID == "" {
		respondError(w, http.StatusBadRequest, "local_id is required")
		return
	}
	members, err := s.Store.ActiveStaff(r.Context(), localID, r.URL.Query().Get("q"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, members)
}

// RefreshStaff handles POST /api/staff/refresh?local_id=&work_date=
//
// The response always carries the cache contents; the *_refreshed flags
// tell whether the server could be reached.
func (s *Server) RefreshStaff(w http.ResponseWriter, r *http.Request) {
	localID := strings.TrimSpace(r.URL.Query().Get("local_id"))
	if localID == "" {
		respondError(w, http.StatusBadRequest, "local_id is required")
		return
	}
	workDate := r.URL.Query().Get("work_date")
	if workDate == "" {
		workDate = s.today()
	}
	res, err := s.Staff.Refresh(r.Context(), localID, workDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}

// ListNotices handles GET /api/hr-notices?local_id=&work_date=
func (s *Server) ListNotices(w http.ResponseWriter, r *http.Request) {
	localID := strings.TrimSpace(r.URL.Query().Get("local_id"))
	if localID == "" {
		respondError(w, http.StatusBadRequest, "local_id is required")
		return
	}
	workDate := r.URL.Query().Get("work_date")
	if workDate == "" {
		workDate = s.today()
	}
	notices, err := s.Store.Notices(r.Context(), localID, workDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, notices)
}
