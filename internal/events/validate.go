// Package events holds the pure rules applied to operational events before
// they are written: structural validation, the attendance alternation rule,
// the cash-advance reasons catalogue and the shift close summary.
package events

import (
	"strings"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

// Validate checks p and returns the first violation as an
// *apperr.ValidationError, or nil.
func Validate(p models.EventPayload) error {
	switch {
	case p.ClientEventID == "":
		return apperr.Validation("missing client_event_id")
	case p.ShiftID == "":
		return apperr.Validation("missing shift_id")
	case p.EmployeeID == "":
		return apperr.Validation("missing employee_id")
	case p.Type == "":
		return apperr.Validation("missing type")
	case p.DeviceID == "":
		return apperr.Validation("missing device_id")
	case p.AppVersion == "":
		return apperr.Validation("missing app_version")
	case p.EventAt.IsZero():
		return apperr.Validation("missing event_at")
	case p.CreatedAt.IsZero():
		return apperr.Validation("missing created_at")
	}

	if !p.Type.Valid() {
		return apperr.Validation("unknown event type " + string(p.Type))
	}

	switch p.Type {
	case models.EventCashAdvance:
		if p.Amount <= 0 {
			return apperr.Validation("amount must be greater than zero")
		}
	case models.EventShiftNote:
		if strings.TrimSpace(p.Notes) == "" {
			return apperr.Validation("a note requires text")
		}
	case models.EventShiftAbsence:
		if strings.TrimSpace(p.Reason) == "" {
			return apperr.Validation("an absence requires a reason")
		}
	case models.EventShiftClose:
		if p.Summary == nil {
			return apperr.Validation("missing close summary")
		}
		if p.Summary.InCount < 0 {
			return apperr.Validation("summary has an invalid in_count")
		}
		if p.Summary.OutCount < 0 {
			return apperr.Validation("summary has an invalid out_count")
		}
	}
	return nil
}
