package handlers

// SeedDemo handles POST /api/admin/seed
//
// Demo-only endpoint, mounted but answering 404 unless SEED_ENABLED is set.
// It loads a fixed roster and today's HR notices for venue S-01 so a demo
// can run the whole shift flow without a reachable server.
//
// The endpoint is idempotent: IDs are hard-coded, the roster goes through
// the same reconcile-and-upsert path as a server refresh, and the notices
// for (S-01, today) are replaced wholesale, so a second call leaves the
// same rows behind.
//
// DEMO SCENARIO
// ─────────────────────────────────────────────────────────────────────────
// Venue    : S-01 "Sucursal Centro"
// Roster   : emp-001 .. emp-008 active
//            emp-009 "Ivan Ruiz" is blacklisted; recording anything for him
//            is rejected
// Notices  : one INFO (birthday) and one WARN (approved absence) for today

import (
	"net/http"
	"time"

	"github.com/losnotables/opsconsole/internal/models"
)

const (
	SeedLocalID    = "S-01"
	SeedLocalLabel = "Sucursal Centro"

	SeedBlacklistedID = "emp-009"
)

var seedStaff = []models.StaffMember{
	{ID: "emp-001", FullName: "Alvaro Sanchez", Doc: "30111222"},
	{ID: "emp-002", FullName: "Beatriz Gomez", Doc: "31222333"},
	{ID: "emp-003", FullName: "Carlos Perez", Doc: "32333444"},
	{ID: "emp-004", FullName: "Dora Martinez", Doc: "33444555"},
	{ID: "emp-005", FullName: "Esteban Quito", Doc: "34555666"},
	{ID: "emp-006", FullName: "Fabiana Rios", Doc: "35666777"},
	{ID: "emp-007", FullName: "Gabriel Lopez", Doc: "36777888"},
	{ID: "emp-008", FullName: "Hugo Benitez", Doc: "37888999"},
	{ID: SeedBlacklistedID, FullName: "Ivan Ruiz", Doc: "38999000", Blacklisted: true},
}

func seedNotices(now time.Time) []models.HrNotice {
	return []models.HrNotice{
		{
			ID:        "seed-notice-birthday",
			Title:     "Cumpleaños",
			Message:   "Hoy cumple años Martina López. Considerar saludo del equipo.",
			Severity:  models.SeverityInfo,
			Source:    "RRHH",
			CreatedAt: now,
		},
		{
			ID:        "seed-notice-absence",
			Title:     "Ausencia programada",
			Message:   "Juan Pérez tiene permiso otorgado (RRHH). No asignar a barra.",
			Severity:  models.SeverityWarn,
			Source:    "RRHH",
			CreatedAt: now,
		},
	}
}

// SeedDemo loads the demo roster and notices when seeding is enabled.
func (s *Server) SeedDemo(w http.ResponseWriter, r *http.Request) {
	if !s.SeedEnabled {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	now := time.Now().UTC()
	workDate := s.today()

	// ── Roster ───────────────────────────────────────────────────────────
	members := make([]models.StaffMember, len(seedStaff))
	copy(members, seedStaff)
	if err := s.Store.ReplaceStaff(r.Context(), SeedLocalID, members, now); err != nil {
		s.fail(w, r, err)
		return
	}

	// ── HR notices for today ─────────────────────────────────────────────
	notices := seedNotices(now)
	if err := s.Store.ReplaceNotices(r.Context(), SeedLocalID, workDate, notices); err != nil {
		s.fail(w, r, err)
		return
	}

	s.Log.Info("demo data seeded", "local_id", SeedLocalID, "work_date", workDate,
		"staff", len(members), "notices", len(notices))

	respond(w, http.StatusOK, map[string]any{
		"seeded":      true,
		"local_id":    SeedLocalID,
		"local_label": SeedLocalLabel,
		"work_date":   workDate,
		"staff":       len(members),
		"blacklisted": SeedBlacklistedID,
		"notices":     len(notices),
	})
}
