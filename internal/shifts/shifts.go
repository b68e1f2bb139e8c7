// Package shifts owns the shift lifecycle: at most one OPEN shift at a time,
// and a (venue, work date, cycle) slot that was closed stays closed.
package shifts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
	"github.com/losnotables/opsconsole/internal/store"
)

// ActorSource resolves the current operator.
type ActorSource interface {
	Current(ctx context.Context) (*models.Actor, error)
}

// Zone returns the fixed-offset business time zone, e.g. Zone(-3) for UTC-3.
func Zone(offsetHours int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

// NewShiftID returns "S-" followed by eight uppercase hex characters.
func NewShiftID() string {
	return "S-" + strings.ToUpper(uuid.NewString()[:8])
}

// Manager owns the shift lifecycle: open, look up and close.
type Manager struct {
	store  *store.Store
	actors ActorSource
	loc    *time.Location
	log    *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu sync.Mutex
}

// NewManager returns a Manager computing work dates in loc.
func NewManager(s *store.Store, actors ActorSource, loc *time.Location, log *slog.Logger) *Manager {
	return &Manager{store: s, actors: actors, loc: loc, log: log, Now: time.Now}
}

// WorkDate is the calendar date of t in the business zone.
func (m *Manager) WorkDate(t time.Time) string {
	return t.In(m.loc).Format("2006-01-02")
}

// Active returns the OPEN shift, or apperr.ErrNoOpenShift.
func (m *Manager) Active(ctx context.Context) (*models.ShiftMeta, error) {
	sh, err := m.store.OpenShift(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrNoOpenShift
	}
	return sh, err
}

// Open starts a shift for the venue and cycle on today's work date. If a
// shift is already OPEN it is returned unchanged, even when it belongs to
// another slot.
func (m *Manager) Open(ctx context.Context, localID, localLabel string, cycle models.Cycle) (*models.ShiftMeta, error) {
	localID = strings.TrimSpace(localID)
	if localID == "" {
		return nil, apperr.Validation("missing local_id")
	}
	if !cycle.Valid() {
		return nil, apperr.Validation("cycle must be MORNING or NIGHT")
	}

	actor, err := m.actors.Current(ctx)
	if err != nil {
		return nil, err
	}

	now := m.Now().UTC()
	workDate := m.WorkDate(now)

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		result  *models.ShiftMeta
		created bool
	)
	err = m.store.WithTx(ctx, func(q *store.Queries) error {
		open, err := q.OpenShift(ctx)
		if err == nil {
			if open.LocalID != localID || open.WorkDate != workDate || open.Cycle != cycle {
				m.log.Warn("open requested while another shift is active; keeping the active one",
					"shift_id", open.ID,
					"active_local_id", open.LocalID, "active_cycle", open.Cycle, "active_work_date", open.WorkDate,
					"requested_local_id", localID, "requested_cycle", cycle, "requested_work_date", workDate)
			}
			result = open
			return nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		_, err = q.FindShift(ctx, localID, workDate, cycle, models.ShiftClosed)
		if err == nil {
			return apperr.ErrAlreadyClosed
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		sh := &models.ShiftMeta{
			ID:             NewShiftID(),
			LocalID:        localID,
			LocalLabel:     localLabel,
			Cycle:          cycle,
			WorkDate:       workDate,
			Status:         models.ShiftOpen,
			OpenedAt:       now,
			OpenedBy:       actor.DisplayName(),
			OpenedByUserID: actor.ID,
		}
		if err := q.InsertShift(ctx, sh); err != nil {
			return err
		}
		result, created = sh, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		m.log.Info("shift opened", "shift_id", result.ID, "local_id", result.LocalID,
			"cycle", result.Cycle, "work_date", result.WorkDate, "opened_by", result.OpenedBy)
	}
	return result, nil
}

// CloseFunc runs inside the closing transaction, before the status flips.
// It sees the shift still OPEN and the timestamp that will be recorded.
type CloseFunc func(ctx context.Context, q *store.Queries, sh *models.ShiftMeta, at time.Time) error

// Close marks the shift CLOSED. Closing an already closed shift is a no-op
// that returns the stored record.
func (m *Manager) Close(ctx context.Context, shiftID string) (*models.ShiftMeta, error) {
	return m.CloseWith(ctx, shiftID, nil)
}

// CloseWith is Close with extra writes committed atomically with the status
// change. fn is not called when the shift is already closed.
func (m *Manager) CloseWith(ctx context.Context, shiftID string, fn CloseFunc) (*models.ShiftMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at := m.Now().UTC()
	var result *models.ShiftMeta
	closed := false
	err := m.store.WithTx(ctx, func(q *store.Queries) error {
		sh, err := q.GetShift(ctx, shiftID)
		if err != nil {
			return err
		}
		result = sh
		if sh.Status == models.ShiftClosed {
			return nil
		}
		if fn != nil {
			if err := fn(ctx, q, sh, at); err != nil {
				return err
			}
		}
		if err := q.CloseShift(ctx, sh.ID, at); err != nil {
			return err
		}
		sh.Status = models.ShiftClosed
		sh.ClosedAt = &at
		closed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if closed {
		m.log.Info("shift closed", "shift_id", result.ID, "local_id", result.LocalID, "cycle", result.Cycle)
	}
	return result, nil
}
