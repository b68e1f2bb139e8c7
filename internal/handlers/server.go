// Package handlers exposes the console over a local HTTP API.
//
// All handler files share the same package so they can call each other's
// helpers without exporting them. The files are split by area (session,
// shifts, events, staff, sync, seed) purely for readability.
//
// The central type is Server. It holds the components every handler needs,
// all constructed in cmd/opsconsole and injected here, so each test can
// build its own Server over its own in-memory database.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/console"
	"github.com/losnotables/opsconsole/internal/middleware"
	"github.com/losnotables/opsconsole/internal/outbox"
	"github.com/losnotables/opsconsole/internal/session"
	"github.com/losnotables/opsconsole/internal/shifts"
	"github.com/losnotables/opsconsole/internal/staff"
	"github.com/losnotables/opsconsole/internal/store"
)

// respond writes v as JSON with the given HTTP status code.
// Content-Type must be set before WriteHeader flushes the headers.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// A client that disconnected mid-write is not worth reporting.
	_ = json.NewEncoder(w).Encode(body)
}

// respondError sends a JSON object with a single "error" key,
// e.g. {"error": "no open shift"}.
func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}

// decode reads and parses a JSON request body into v.
func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Server holds shared dependencies for all handlers.
type Server struct {
	Store    *store.Store
	Sessions *session.Manager
	Shifts   *shifts.Manager
	Console  *console.Console
	Sync     *outbox.Synchronizer
	Staff    *staff.Refresher
	Log      *slog.Logger

	// Location is the business time zone used for bare YYYY-MM-DD query
	// parameters.
	Location *time.Location
	// SeedEnabled exposes POST /api/admin/seed.
	SeedEnabled bool
}

// fail maps a component error to its status code. Storage failures on a
// write mean the action was not recorded; their detail only goes to the log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *apperr.ValidationError
		be *apperr.BusinessRuleError
		se *apperr.StorageError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &be):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, apperr.ErrAuthRequired):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperr.ErrAlreadyClosed), errors.Is(err, apperr.ErrNoOpenShift):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &se):
		s.Log.Error("local storage failure", "request_id", middleware.GetRequestID(r.Context()),
			"method", r.Method, "path", r.URL.Path, "op", se.Op, "err", se.Err)
		if r.Method == http.MethodGet {
			respondError(w, http.StatusInternalServerError, "local storage is unavailable")
			return
		}
		respondError(w, http.StatusInternalServerError, "event was not recorded")
	default:
		s.Log.Error("request failed", "request_id", middleware.GetRequestID(r.Context()),
			"method", r.Method, "path", r.URL.Path, "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// queryInt reads a positive integer query parameter, falling back to def
// when it is absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// parseInstant accepts RFC 3339 timestamps or bare dates, the latter taken
// as midnight in the business zone. dateOnly reports which form was given.
func (s *Server) parseInstant(v string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, false, nil
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	t, err = time.ParseInLocation(time.DateOnly, v, loc)
	return t, true, err
}

func (s *Server) today() string {
	return s.Shifts.WorkDate(time.Now())
}
