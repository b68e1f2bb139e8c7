package events

import (
	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

// CheckAttendance enforces strict IN/OUT alternation for one employee within
// a shift, starting with IN. last is the most recent attendance event for
// the pair, or nil. Non-attendance types always pass.
func CheckAttendance(next models.EventType, last *models.ShiftEvent) error {
	switch next {
	case models.EventAttendanceIn:
		if last != nil && last.Type == models.EventAttendanceIn {
			return apperr.BusinessRule("employee already has an entry recorded; record an exit first")
		}
	case models.EventAttendanceOut:
		if last == nil {
			return apperr.BusinessRule("cannot record an exit without a prior entry")
		}
		if last.Type == models.EventAttendanceOut {
			return apperr.BusinessRule("employee already has an exit recorded; record an entry first")
		}
	}
	return nil
}
