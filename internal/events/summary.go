package events

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/losnotables/opsconsole/internal/models"
)

// Summarize tallies a shift's events into the SHIFT_CLOSE summary. Earlier
// close events are ignored. Money is added as decimals so totals do not
// drift.
func Summarize(events []models.ShiftEvent) models.ShiftSummary {
	s := models.ShiftSummary{Absences: map[string]int{}, Notes: []string{}}
	var vales []models.ShiftEvent
	for _, e := range events {
		switch e.Type {
		case models.EventAttendanceIn:
			s.InCount++
		case models.EventAttendanceOut:
			s.OutCount++
		case models.EventCashAdvance:
			vales = append(vales, e)
		case models.EventShiftAbsence:
			reason := strings.TrimSpace(e.Reason)
			if reason == "" {
				reason = "UNSPECIFIED"
			}
			s.Absences[reason]++
		case models.EventShiftNote:
			if n := strings.TrimSpace(e.Notes); n != "" {
				s.Notes = append(s.Notes, n)
			}
		}
	}
	s.ValesCount = len(vales)
	s.ValesTotal = SumAmounts(vales).Round(2).InexactFloat64()
	return s
}

// SumAmounts adds the amounts of events as decimals.
func SumAmounts(events []models.ShiftEvent) decimal.Decimal {
	total := decimal.Zero
	for _, e := range events {
		total = total.Add(decimal.NewFromFloat(e.Amount))
	}
	return total
}
