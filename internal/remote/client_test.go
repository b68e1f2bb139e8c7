package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

func staticToken(tok string) TokenFunc {
	return func(context.Context) (string, error) { return tok, nil }
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient(&http.Client{Timeout: 5 * time.Second}, ts.URL+"/", "", staticToken("tok-1"))
}

func TestDeliver(t *testing.T) {
	var got models.SyncRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/offline-sync", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	item := models.OutboxItem{
		ClientEventID: "c-1",
		Type:          models.EventAttendanceIn,
		Payload:       json.RawMessage(`{"client_event_id":"c-1","type":"ATTENDANCE_IN"}`),
	}
	require.NoError(t, c.Deliver(context.Background(), item))
	assert.Equal(t, "c-1", got.ClientEventID)
	assert.Equal(t, models.EventAttendanceIn, got.Type)
	assert.JSONEq(t, string(item.Payload), string(got.Payload))
}

func TestDeliver_AuthFailures(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		err := c.Deliver(context.Background(), models.OutboxItem{ClientEventID: "c-1"})
		assert.ErrorIs(t, err, apperr.ErrAuthSync, "status %d", status)
	}
}

func TestDeliver_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database down"}`))
	})
	err := c.Deliver(context.Background(), models.OutboxItem{ClientEventID: "c-1"})
	var se *apperr.SyncError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Contains(t, se.Error(), "database down")
}

func TestDeliver_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient(&http.Client{Timeout: time.Second}, url, "/api/offline-sync", nil)
	err := c.Deliver(context.Background(), models.OutboxItem{ClientEventID: "c-1"})
	var se *apperr.SyncError
	require.True(t, errors.As(err, &se))
	assert.Zero(t, se.StatusCode)
}

func TestFetchStaffAndNotices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/staff/by-local/S-01":
			_, _ = w.Write([]byte(`[{"id":"E1","full_name":"Juan Perez","doc":"30111222","cuil":null,"blacklisted":true}]`))
		case "/hr-notices/by-local/S-01":
			assert.Equal(t, "2024-05-10", r.URL.Query().Get("work_date"))
			_, _ = w.Write([]byte(`[{"id":"n1","title":"Inspection","message":"10am","severity":"URGENT","created_at":"2024-05-10T09:00:00Z"}]`))
		default:
			t.Errorf("unexpected request %s", r.URL)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	staff, err := c.FetchStaff(context.Background(), "S-01")
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, "Juan Perez", staff[0].FullName)
	require.NotNil(t, staff[0].Doc)
	assert.Nil(t, staff[0].Cuil)
	require.NotNil(t, staff[0].Blacklisted)
	assert.True(t, *staff[0].Blacklisted)

	notices, err := c.FetchNotices(context.Background(), "S-01", "2024-05-10")
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, models.SeverityUrgent, notices[0].Severity)
}

func TestProbe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusNotFound)
	})
	assert.NoError(t, c.Probe(context.Background()), "any HTTP answer means reachable")
}
