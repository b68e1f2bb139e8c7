package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/losnotables/opsconsole/internal/models"
)

func runSeed(t *testing.T, e *testEnv) map[string]any {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/admin/seed", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decodeBody[map[string]any](t, rr)
}

func dbInt(t *testing.T, e *testEnv, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, e.srv.Store.DB().QueryRow(query, args...).Scan(&n))
	return n
}

func TestSeedDemo_Disabled(t *testing.T) {
	e := newTestServer(t)
	rr := e.do(t, http.MethodPost, "/api/admin/seed", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, dbInt(t, e, `SELECT COUNT(*) FROM staff`))
}

func TestSeedDemo_ResponseShape(t *testing.T) {
	e := newTestServer(t)
	e.srv.SeedEnabled = true
	body := runSeed(t, e)
	assert.Equal(t, true, body["seeded"])
	assert.Equal(t, SeedLocalID, body["local_id"])
	assert.EqualValues(t, len(seedStaff), body["staff"])
	assert.EqualValues(t, 2, body["notices"])
}

func TestSeedDemo_Idempotent(t *testing.T) {
	e := newTestServer(t)
	e.srv.SeedEnabled = true
	runSeed(t, e)
	runSeed(t, e)

	assert.Equal(t, len(seedStaff), dbInt(t, e, `SELECT COUNT(*) FROM staff WHERE local_id = ?`, SeedLocalID))
	assert.Equal(t, 2, dbInt(t, e, `SELECT COUNT(*) FROM hr_notices WHERE local_id = ?`, SeedLocalID))
}

func TestSeedDemo_StaffAndNoticesAPI(t *testing.T) {
	e := newTestServer(t)
	e.srv.SeedEnabled = true
	runSeed(t, e)

	rr := e.do(t, http.MethodGet, "/api/staff?local_id=S-01&q=gom", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	members := decodeBody[[]models.StaffMember](t, rr)
	require.Len(t, members, 1)
	assert.Equal(t, "emp-002", members[0].ID)

	rr = e.do(t, http.MethodGet, "/api/hr-notices?local_id=S-01", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	notices := decodeBody[[]models.HrNotice](t, rr)
	require.Len(t, notices, 2)
	assert.Equal(t, "RRHH", notices[0].Source)
}

func TestSeedDemo_BlacklistedEmployeeRejected(t *testing.T) {
	e := newTestServer(t)
	e.srv.SeedEnabled = true
	runSeed(t, e)
	e.login(t)
	e.openShift(t)

	rr := e.do(t, http.MethodPost, "/api/events", models.RecordEventRequest{
		Type: models.EventAttendanceIn, EmployeeID: SeedBlacklistedID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "blacklisted")

	rr = e.do(t, http.MethodPost, "/api/events", models.RecordEventRequest{
		Type: models.EventAttendanceIn, EmployeeID: "emp-001",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Alvaro Sanchez", decodeBody[models.ShiftEvent](t, rr).EmployeeName)
}
