// Package console is where operator actions become ledger entries. Every
// action runs validate → blacklist check → attendance rule → atomic
// append, under one lock, and then nudges the synchronizer.
package console

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/events"
	"github.com/losnotables/opsconsole/internal/models"
	"github.com/losnotables/opsconsole/internal/shifts"
	"github.com/losnotables/opsconsole/internal/store"
)

// Trigger schedules a sync pass without waiting for it.
type Trigger interface {
	Trigger()
}

// Console records operator events against the active shift and closes shifts.
type Console struct {
	store      *store.Store
	shifts     *shifts.Manager
	syncer     Trigger
	appVersion string
	log        *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu       sync.Mutex
	deviceID string
}

// New returns a Console that appends to s and pokes syncer after every write.
func New(s *store.Store, sh *shifts.Manager, syncer Trigger, appVersion string, log *slog.Logger) *Console {
	return &Console{store: s, shifts: sh, syncer: syncer, appVersion: appVersion, log: log, Now: time.Now}
}

// device returns the persisted device id, cached after the first read.
// Callers hold c.mu.
func (c *Console) device(ctx context.Context) (string, error) {
	if c.deviceID != "" {
		return c.deviceID, nil
	}
	id, err := c.store.DeviceID(ctx)
	if err != nil {
		return "", err
	}
	c.deviceID = id
	return id, nil
}

// Record appends one operator event to the active shift.
func (c *Console) Record(ctx context.Context, req models.RecordEventRequest) (*models.ShiftEvent, error) {
	if req.Type == models.EventShiftClose {
		return nil, apperr.Validation("shifts are closed through the close operation")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	shift, err := c.shifts.Active(ctx)
	if err != nil {
		return nil, err
	}
	device, err := c.device(ctx)
	if err != nil {
		return nil, err
	}

	now := c.Now().UTC()
	p := models.EventPayload{
		ClientEventID: uuid.NewString(),
		ShiftID:       shift.ID,
		EmployeeID:    strings.TrimSpace(req.EmployeeID),
		EmployeeName:  strings.TrimSpace(req.EmployeeName),
		LocalID:       shift.LocalID,
		Type:          req.Type,
		EventAt:       now,
		CreatedAt:     now,
		DeviceID:      device,
		AppVersion:    c.appVersion,
		Notes:         strings.TrimSpace(req.Notes),
		Amount:        req.Amount,
		Reason:        strings.TrimSpace(req.Reason),
	}

	if err := events.Validate(p); err != nil {
		return nil, err
	}
	if err := events.ApplyReason(&p); err != nil {
		return nil, err
	}

	member, err := c.store.GetStaffMember(ctx, shift.LocalID, p.EmployeeID)
	switch {
	case err == nil:
		if member.Blacklisted {
			return nil, apperr.BusinessRule("employee is blacklisted; no actions can be recorded")
		}
		if p.EmployeeName == "" {
			p.EmployeeName = member.FullName
		}
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	if p.Type.IsAttendance() {
		last, err := c.store.LastAttendance(ctx, p.ShiftID, p.EmployeeID)
		if err != nil {
			return nil, err
		}
		if err := events.CheckAttendance(p.Type, last); err != nil {
			return nil, err
		}
	}

	ev := models.ShiftEvent{EventPayload: p, SyncStatus: models.SyncPending}
	item, err := c.store.AppendEvent(ctx, ev)
	if err != nil {
		c.log.Error("event was not recorded", "shift_id", p.ShiftID, "type", p.Type, "err", err)
		return nil, err
	}
	c.log.Info("event recorded", "shift_id", p.ShiftID, "type", p.Type,
		"employee_id", p.EmployeeID, "client_event_id", p.ClientEventID, "outbox_id", item.ID)

	c.syncer.Trigger()
	return &ev, nil
}

// CloseResult is the closed shift plus the SHIFT_CLOSE event written for it.
// Event is nil when the shift had already been closed.
type CloseResult struct {
	Shift *models.ShiftMeta  `json:"shift"`
	Event *models.ShiftEvent `json:"event,omitempty"`
}

// CloseShift tallies the shift, appends its SHIFT_CLOSE event and marks it
// CLOSED, all in one transaction. It does not wait for delivery.
func (c *Console) CloseShift(ctx context.Context, shiftID string) (*CloseResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	device, err := c.device(ctx)
	if err != nil {
		return nil, err
	}

	var closeEvent *models.ShiftEvent
	sh, err := c.shifts.CloseWith(ctx, shiftID, func(ctx context.Context, q *store.Queries, sh *models.ShiftMeta, at time.Time) error {
		evs, err := q.EventsByShift(ctx, sh.ID)
		if err != nil {
			return err
		}
		summary := events.Summarize(evs)
		p := models.EventPayload{
			ClientEventID: uuid.NewString(),
			ShiftID:       sh.ID,
			EmployeeID:    models.SystemEmployeeID,
			LocalID:       sh.LocalID,
			Type:          models.EventShiftClose,
			EventAt:       at,
			CreatedAt:     at,
			DeviceID:      device,
			AppVersion:    c.appVersion,
			Summary:       &summary,
		}
		if err := events.Validate(p); err != nil {
			return err
		}
		ev := models.ShiftEvent{EventPayload: p, SyncStatus: models.SyncPending}
		if _, err := q.InsertEvent(ctx, ev); err != nil {
			return err
		}
		closeEvent = &ev
		return nil
	})
	if err != nil {
		return nil, err
	}

	if closeEvent != nil {
		c.log.Info("close summary queued", "shift_id", sh.ID,
			"in_count", closeEvent.Summary.InCount, "out_count", closeEvent.Summary.OutCount,
			"vales_count", closeEvent.Summary.ValesCount, "vales_total", closeEvent.Summary.ValesTotal)
		c.syncer.Trigger()
	}
	return &CloseResult{Shift: sh, Event: closeEvent}, nil
}

// Summary previews the close summary of a shift.
func (c *Console) Summary(ctx context.Context, shiftID string) (*models.ShiftSummary, error) {
	if _, err := c.store.GetShift(ctx, shiftID); err != nil {
		return nil, err
	}
	evs, err := c.store.EventsByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	s := events.Summarize(evs)
	return &s, nil
}

// RecentEvents lists the latest events of a shift, newest first.
func (c *Console) RecentEvents(ctx context.Context, shiftID string, limit int) ([]models.ShiftEvent, error) {
	if _, err := c.store.GetShift(ctx, shiftID); err != nil {
		return nil, err
	}
	return c.store.RecentEvents(ctx, shiftID, limit)
}

// CashAdvances reports the vales of one employee with from <= event_at < to.
func (c *Console) CashAdvances(ctx context.Context, employeeID string, from, to time.Time) (*models.CashAdvanceReport, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, apperr.Validation("missing employee_id")
	}
	if !from.Before(to) {
		return nil, apperr.Validation("from must be before to")
	}
	evs, err := c.store.EventsForEmployee(ctx, employeeID, models.EventCashAdvance, from, to)
	if err != nil {
		return nil, err
	}
	return &models.CashAdvanceReport{
		EmployeeID: employeeID,
		From:       from.UTC(),
		To:         to.UTC(),
		Events:     evs,
		Count:      len(evs),
		Total:      events.SumAmounts(evs).Round(2).InexactFloat64(),
	}, nil
}
