package events

import (
	"strings"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

// Reason is one entry of the cash-advance reasons catalogue.
type Reason struct {
	Code          string               `json:"code"`
	Label         string               `json:"label"`
	PayrollEffect models.PayrollEffect `json:"payroll_effect"`
}

var reasons = []Reason{
	{Code: "ANTICIPO", Label: "Anticipo de sueldo", PayrollEffect: models.PayrollDeduct},
	{Code: "COMPRA", Label: "Compra autorizada", PayrollEffect: models.PayrollDeduct},
	{Code: "CAJA", Label: "Fondo de caja (no descuenta)", PayrollEffect: models.PayrollNone},
	{Code: "INFO", Label: "Registro informativo", PayrollEffect: models.PayrollInfo},
}

// Reasons returns a copy of the catalogue in display order.
func Reasons() []Reason {
	out := make([]Reason, len(reasons))
	copy(out, reasons)
	return out
}

// LookupReason resolves a reason code, case-insensitively.
func LookupReason(code string) (Reason, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, r := range reasons {
		if r.Code == code {
			return r, true
		}
	}
	return Reason{}, false
}

// ApplyReason fills reason_label and payroll_effect on a CASH_ADVANCE that
// names a reason. Advances without a reason are left untouched; unknown
// codes are rejected.
func ApplyReason(p *models.EventPayload) error {
	if p.Type != models.EventCashAdvance || strings.TrimSpace(p.Reason) == "" {
		return nil
	}
	r, ok := LookupReason(p.Reason)
	if !ok {
		return apperr.Validation("unknown cash advance reason " + p.Reason)
	}
	p.Reason = r.Code
	p.ReasonLabel = r.Label
	p.PayrollEffect = r.PayrollEffect
	return nil
}
