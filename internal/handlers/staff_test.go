package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/losnotables/opsconsole/internal/models"
	"github.com/losnotables/opsconsole/internal/staff"
)

func TestListStaff_RequiresLocal(t *testing.T) {
	e := newTestServer(t)
	rr := e.do(t, http.MethodGet, "/api/staff", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = e.do(t, http.MethodGet, "/api/hr-notices", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = e.do(t, http.MethodPost, "/api/staff/refresh", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRefreshStaff_FromServer(t *testing.T) {
	e := newTestServer(t)
	blacklisted := true
	e.remote.staff = []models.StaffRow{
		{ID: "emp-010", FullName: "Lucia Torres"},
		{ID: "emp-011", FullName: "Mateo Vera", Blacklisted: &blacklisted},
	}

	rr := e.do(t, http.MethodPost, "/api/staff/refresh?local_id=S-02&work_date=2024-05-10", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decodeBody[staff.Result](t, rr)
	assert.True(t, res.StaffRefreshed)
	assert.True(t, res.NoticesRefreshed)
	require.Len(t, res.Staff, 2)
	assert.Equal(t, "Lucia Torres", res.Staff[0].FullName)
	assert.True(t, res.Staff[1].Blacklisted)

	rr = e.do(t, http.MethodGet, "/api/staff?local_id=S-02", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody[[]models.StaffMember](t, rr), 2)
}
