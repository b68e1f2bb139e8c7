package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

func validPayload(typ models.EventType) models.EventPayload {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	return models.EventPayload{
		ClientEventID: "c-1",
		ShiftID:       "S-1",
		EmployeeID:    "E1",
		Type:          typ,
		EventAt:       now,
		CreatedAt:     now,
		DeviceID:      "dev-1",
		AppVersion:    "1.0.0",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.EventPayload)
		want   string
	}{
		{"attendance ok", func(p *models.EventPayload) {}, ""},
		{"missing client id", func(p *models.EventPayload) { p.ClientEventID = "" }, "missing client_event_id"},
		{"missing shift", func(p *models.EventPayload) { p.ShiftID = "" }, "missing shift_id"},
		{"missing employee", func(p *models.EventPayload) { p.EmployeeID = "" }, "missing employee_id"},
		{"missing device", func(p *models.EventPayload) { p.DeviceID = "" }, "missing device_id"},
		{"missing version", func(p *models.EventPayload) { p.AppVersion = "" }, "missing app_version"},
		{"missing event_at", func(p *models.EventPayload) { p.EventAt = time.Time{} }, "missing event_at"},
		{"missing created_at", func(p *models.EventPayload) { p.CreatedAt = time.Time{} }, "missing created_at"},
		{"first violation wins", func(p *models.EventPayload) { p.ShiftID = ""; p.DeviceID = "" }, "missing shift_id"},
		{"unknown type", func(p *models.EventPayload) { p.Type = "COFFEE_BREAK" }, "unknown event type COFFEE_BREAK"},
		{"zero vale", func(p *models.EventPayload) { p.Type = models.EventCashAdvance }, "amount must be greater than zero"},
		{"negative vale", func(p *models.EventPayload) { p.Type = models.EventCashAdvance; p.Amount = -5 }, "amount must be greater than zero"},
		{"vale ok", func(p *models.EventPayload) { p.Type = models.EventCashAdvance; p.Amount = 10 }, ""},
		{"blank note", func(p *models.EventPayload) { p.Type = models.EventShiftNote; p.Notes = "   " }, "a note requires text"},
		{"absence without reason", func(p *models.EventPayload) { p.Type = models.EventShiftAbsence }, "an absence requires a reason"},
		{"close without summary", func(p *models.EventPayload) { p.Type = models.EventShiftClose }, "missing close summary"},
		{"close with bad count", func(p *models.EventPayload) {
			p.Type = models.EventShiftClose
			p.Summary = &models.ShiftSummary{InCount: -1}
		}, "summary has an invalid in_count"},
		{"close ok", func(p *models.EventPayload) {
			p.Type = models.EventShiftClose
			p.Summary = &models.ShiftSummary{}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload(models.EventAttendanceIn)
			tt.mutate(&p)
			err := Validate(p)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
			assert.Equal(t, tt.want, ve.Msg)
		})
	}
}

func TestCheckAttendance(t *testing.T) {
	in := &models.ShiftEvent{EventPayload: models.EventPayload{Type: models.EventAttendanceIn}}
	out := &models.ShiftEvent{EventPayload: models.EventPayload{Type: models.EventAttendanceOut}}

	tests := []struct {
		name string
		next models.EventType
		last *models.ShiftEvent
		want string
	}{
		{"first IN", models.EventAttendanceIn, nil, ""},
		{"IN after OUT", models.EventAttendanceIn, out, ""},
		{"OUT after IN", models.EventAttendanceOut, in, ""},
		{"IN after IN", models.EventAttendanceIn, in, "employee already has an entry recorded; record an exit first"},
		{"OUT first", models.EventAttendanceOut, nil, "cannot record an exit without a prior entry"},
		{"OUT after OUT", models.EventAttendanceOut, out, "employee already has an exit recorded; record an entry first"},
		{"note ignores history", models.EventShiftNote, in, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAttendance(tt.next, tt.last)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var be *apperr.BusinessRuleError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.want, be.Msg)
		})
	}
}

// Any sequence accepted by CheckAttendance alternates IN, OUT, IN, ...
func TestAttendanceAlternation(t *testing.T) {
	attempts := []models.EventType{
		models.EventAttendanceOut, models.EventAttendanceIn, models.EventAttendanceIn,
		models.EventAttendanceOut, models.EventAttendanceOut, models.EventAttendanceIn,
		models.EventAttendanceOut, models.EventAttendanceIn,
	}
	var accepted []models.EventType
	var last *models.ShiftEvent
	for _, next := range attempts {
		if CheckAttendance(next, last) != nil {
			continue
		}
		accepted = append(accepted, next)
		last = &models.ShiftEvent{EventPayload: models.EventPayload{Type: next}}
	}
	require.NotEmpty(t, accepted)
	for i, typ := range accepted {
		want := models.EventAttendanceIn
		if i%2 == 1 {
			want = models.EventAttendanceOut
		}
		assert.Equal(t, want, typ, "position %d", i)
	}
}

func TestApplyReason(t *testing.T) {
	p := validPayload(models.EventCashAdvance)
	p.Amount = 100
	p.Reason = "anticipo"
	require.NoError(t, ApplyReason(&p))
	assert.Equal(t, "ANTICIPO", p.Reason)
	assert.Equal(t, "Anticipo de sueldo", p.ReasonLabel)
	assert.Equal(t, models.PayrollDeduct, p.PayrollEffect)

	p.Reason = "CAJA"
	require.NoError(t, ApplyReason(&p))
	assert.Equal(t, models.PayrollNone, p.PayrollEffect)

	p.Reason = "LOTTERY"
	var ve *apperr.ValidationError
	assert.True(t, errors.As(ApplyReason(&p), &ve))

	noReason := validPayload(models.EventCashAdvance)
	require.NoError(t, ApplyReason(&noReason))
	assert.Empty(t, noReason.PayrollEffect)

	assert.Len(t, Reasons(), 4)
}

func TestSummarize(t *testing.T) {
	ev := func(typ models.EventType, f func(p *models.EventPayload)) models.ShiftEvent {
		p := validPayload(typ)
		if f != nil {
			f(&p)
		}
		return models.ShiftEvent{EventPayload: p}
	}
	events := []models.ShiftEvent{
		ev(models.EventAttendanceIn, nil),
		ev(models.EventAttendanceIn, nil),
		ev(models.EventAttendanceOut, nil),
		ev(models.EventCashAdvance, func(p *models.EventPayload) { p.Amount = 0.1 }),
		ev(models.EventCashAdvance, func(p *models.EventPayload) { p.Amount = 0.2 }),
		ev(models.EventShiftAbsence, func(p *models.EventPayload) { p.Reason = "SICK" }),
		ev(models.EventShiftAbsence, func(p *models.EventPayload) { p.Reason = "SICK" }),
		ev(models.EventShiftNote, func(p *models.EventPayload) { p.Notes = "fridge broken" }),
		ev(models.EventShiftClose, func(p *models.EventPayload) { p.Summary = &models.ShiftSummary{} }),
	}

	s := Summarize(events)
	assert.Equal(t, 2, s.InCount)
	assert.Equal(t, 1, s.OutCount)
	assert.Equal(t, 2, s.ValesCount)
	assert.Equal(t, 0.3, s.ValesTotal)
	assert.Equal(t, map[string]int{"SICK": 2}, s.Absences)
	assert.Equal(t, []string{"fridge broken"}, s.Notes)

	empty := Summarize(nil)
	assert.Zero(t, empty.ValesTotal)
	assert.NotNil(t, empty.Absences)
}
