package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

func scanEvent(row scanner) (*models.ShiftEvent, error) {
	var (
		payload string
		ev      models.ShiftEvent
	)
	if err := row.Scan(&payload, &ev.SyncStatus); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &ev.EventPayload); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (q *Queries) queryEvents(ctx context.Context, op, query string, args ...any) ([]models.ShiftEvent, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	defer rows.Close()

	events := []models.ShiftEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, apperr.Storage(op, err)
		}
		events = append(events, *ev)
	}
	return events, apperr.Storage(op, rows.Err())
}

// InsertEvent writes ev and its outbox row. Callers outside a transaction
// should use Store.AppendEvent instead.
func (q *Queries) InsertEvent(ctx context.Context, ev models.ShiftEvent) (*models.OutboxItem, error) {
	if ev.SyncStatus == "" {
		ev.SyncStatus = models.SyncPending
	}
	payload, err := json.Marshal(ev.EventPayload)
	if err != nil {
		return nil, apperr.Storage("encode event", err)
	}
	// The outbox keeps the whole snapshot, sync_status included.
	snapshot, err := json.Marshal(ev)
	if err != nil {
		return nil, apperr.Storage("encode event", err)
	}

	_, err = q.q.ExecContext(ctx, `
		INSERT INTO events (client_event_id, shift_id, employee_id, type, event_at, created_at, local_id, payload, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ClientEventID, ev.ShiftID, ev.EmployeeID, ev.Type, formatTime(ev.EventAt), formatTime(ev.CreatedAt),
		ev.LocalID, string(payload), ev.SyncStatus)
	if err != nil {
		return nil, apperr.Storage("insert event", err)
	}

	item := &models.OutboxItem{
		ClientEventID: ev.ClientEventID,
		ShiftID:       ev.ShiftID,
		Type:          ev.Type,
		Payload:       snapshot,
		CreatedAt:     ev.CreatedAt,
		Status:        models.SyncPending,
	}
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO outbox (client_event_id, shift_id, type, payload, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, item.ClientEventID, item.ShiftID, item.Type, string(item.Payload), formatTime(item.CreatedAt), item.Status)
	if err != nil {
		return nil, apperr.Storage("insert outbox", err)
	}
	if item.ID, err = res.LastInsertId(); err != nil {
		return nil, apperr.Storage("insert outbox", err)
	}
	return item, nil
}

// AppendEvent persists ev and its outbox row in one transaction: either
// both exist afterwards or neither does.
func (s *Store) AppendEvent(ctx context.Context, ev models.ShiftEvent) (*models.OutboxItem, error) {
	var item *models.OutboxItem
	err := s.WithTx(ctx, func(q *Queries) error {
		var err error
		item, err = q.InsertEvent(ctx, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// EventByClientID looks up an event by its client_event_id.
func (q *Queries) EventByClientID(ctx context.Context, clientEventID string) (*models.ShiftEvent, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT payload, sync_status FROM events WHERE client_event_id = ?`, clientEventID)
	ev, err := scanEvent(row)
	if err != nil {
		return nil, notFound("get event", err)
	}
	return ev, nil
}

// EventsByShift returns a shift's events in chronological order.
func (q *Queries) EventsByShift(ctx context.Context, shiftID string) ([]models.ShiftEvent, error) {
	return q.queryEvents(ctx, "events by shift", `
		SELECT payload, sync_status FROM events
		WHERE shift_id = ?
		ORDER BY event_at ASC, seq ASC
	`, shiftID)
}

// RecentEvents returns up to limit events of a shift, newest first.
func (q *Queries) RecentEvents(ctx context.Context, shiftID string, limit int) ([]models.ShiftEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	return q.queryEvents(ctx, "recent events", `
		SELECT payload, sync_status FROM events
		WHERE shift_id = ?
		ORDER BY event_at DESC, seq DESC
		LIMIT ?
	`, shiftID, limit)
}

// LastAttendance returns the most recent ATTENDANCE_IN/OUT recorded for the
// employee in the shift, or nil when there is none. Ties on event_at are
// broken by insertion order.
func (q *Queries) LastAttendance(ctx context.Context, shiftID, employeeID string) (*models.ShiftEvent, error) {
	events, err := q.queryEvents(ctx, "last attendance", `
		SELECT payload, sync_status FROM events
		WHERE shift_id = ? AND employee_id = ? AND type IN (?, ?)
		ORDER BY event_at DESC, seq DESC
		LIMIT 1
	`, shiftID, employeeID, models.EventAttendanceIn, models.EventAttendanceOut)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// EventsForEmployee range-scans one employee's events of a type with
// from <= event_at < to, oldest first.
func (q *Queries) EventsForEmployee(ctx context.Context, employeeID string, typ models.EventType, from, to time.Time) ([]models.ShiftEvent, error) {
	return q.queryEvents(ctx, "events for employee", `
		SELECT payload, sync_status FROM events
		WHERE employee_id = ? AND type = ? AND event_at >= ? AND event_at < ?
		ORDER BY event_at ASC, seq ASC
	`, employeeID, typ, formatTime(from), formatTime(to))
}
