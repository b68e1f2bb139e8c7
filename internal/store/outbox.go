package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

const outboxColumns = `id, client_event_id, shift_id, type, payload, created_at,
	status, retries, last_error, last_attempt_at`

func scanOutbox(row scanner) (*models.OutboxItem, error) {
	var (
		it          models.OutboxItem
		payload     string
		createdAt   string
		lastAttempt sql.NullString
	)
	if err := row.Scan(&it.ID, &it.ClientEventID, &it.ShiftID, &it.Type, &payload, &createdAt,
		&it.Status, &it.Retries, &it.LastError, &lastAttempt); err != nil {
		return nil, err
	}
	it.Payload = []byte(payload)
	var err error
	if it.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if it.LastAttemptAt, err = parseNullTime(lastAttempt); err != nil {
		return nil, err
	}
	return &it, nil
}

func (q *Queries) queryOutbox(ctx context.Context, op, query string, args ...any) ([]models.OutboxItem, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	defer rows.Close()

	items := []models.OutboxItem{}
	for rows.Next() {
		it, err := scanOutbox(rows)
		if err != nil {
			return nil, apperr.Storage(op, err)
		}
		items = append(items, *it)
	}
	return items, apperr.Storage(op, rows.Err())
}

// GetOutboxItem returns one outbox row, or apperr.ErrNotFound.
func (q *Queries) GetOutboxItem(ctx context.Context, id int64) (*models.OutboxItem, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM outbox WHERE id = ?`, id)
	it, err := scanOutbox(row)
	if err != nil {
		return nil, notFound("get outbox item", err)
	}
	return it, nil
}

// PendingOutbox returns every PENDING item in FIFO (id) order.
func (q *Queries) PendingOutbox(ctx context.Context) ([]models.OutboxItem, error) {
	return q.OutboxByStatus(ctx, models.SyncPending)
}

// OutboxByStatus lists rows in one status, oldest first.
func (q *Queries) OutboxByStatus(ctx context.Context, status models.SyncStatus) ([]models.OutboxItem, error) {
	return q.queryOutbox(ctx, "outbox by status",
		`SELECT `+outboxColumns+` FROM outbox WHERE status = ? ORDER BY id ASC`, status)
}

// OutboxByShift lists the rows of one shift, oldest first.
func (q *Queries) OutboxByShift(ctx context.Context, shiftID string) ([]models.OutboxItem, error) {
	return q.queryOutbox(ctx, "outbox by shift",
		`SELECT `+outboxColumns+` FROM outbox WHERE shift_id = ? ORDER BY id ASC`, shiftID)
}

// ListOutbox returns the most recent items first.
func (q *Queries) ListOutbox(ctx context.Context, limit int) ([]models.OutboxItem, error) {
	if limit <= 0 {
		limit = 100
	}
	return q.queryOutbox(ctx, "list outbox",
		`SELECT `+outboxColumns+` FROM outbox ORDER BY id DESC LIMIT ?`, limit)
}

// OutboxCounts tallies items per status. Statuses with no rows are absent.
func (q *Queries) OutboxCounts(ctx context.Context) (map[models.SyncStatus]int, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM outbox GROUP BY status`)
	if err != nil {
		return nil, apperr.Storage("outbox counts", err)
	}
	defer rows.Close()

	counts := map[models.SyncStatus]int{}
	for rows.Next() {
		var (
			st models.SyncStatus
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, apperr.Storage("outbox counts", err)
		}
		counts[st] = n
	}
	return counts, apperr.Storage("outbox counts", rows.Err())
}

// setStatus updates an outbox row and mirrors the status onto its event.
func (q *Queries) setStatus(ctx context.Context, op string, id int64, status models.SyncStatus, set string, args ...any) error {
	res, err := q.q.ExecContext(ctx, `UPDATE outbox SET status = ?`+set+` WHERE id = ?`,
		append(append([]any{status}, args...), id)...)
	if err != nil {
		return apperr.Storage(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(op, err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	_, err = q.q.ExecContext(ctx, `
		UPDATE events SET sync_status = ?
		WHERE client_event_id = (SELECT client_event_id FROM outbox WHERE id = ?)
	`, status, id)
	return apperr.Storage(op, err)
}

// MarkSending flags an item as in flight.
func (s *Store) MarkSending(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(q *Queries) error {
		return q.setStatus(ctx, "mark sending", id, models.SyncSending, "")
	})
}

// MarkSent records a successful delivery on both the outbox row and the event.
func (s *Store) MarkSent(ctx context.Context, id int64, at time.Time) error {
	return s.WithTx(ctx, func(q *Queries) error {
		return q.setStatus(ctx, "mark sent", id, models.SyncSent,
			`, last_attempt_at = ?, last_error = ''`, formatTime(at))
	})
}

// MarkRetry puts a failed item back to PENDING with one more retry counted.
func (s *Store) MarkRetry(ctx context.Context, id int64, lastErr string, at time.Time) error {
	return s.WithTx(ctx, func(q *Queries) error {
		return q.setStatus(ctx, "mark retry", id, models.SyncPending,
			`, retries = retries + 1, last_error = ?, last_attempt_at = ?`, lastErr, formatTime(at))
	})
}

// RevertPending puts an item back to PENDING without touching its retry
// bookkeeping. Used when delivery was refused for authentication reasons.
func (s *Store) RevertPending(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(q *Queries) error {
		return q.setStatus(ctx, "revert pending", id, models.SyncPending, "")
	})
}

// RequeueSending reverts items left in SENDING by an interrupted pass and
// reports how many were moved.
func (s *Store) RequeueSending(ctx context.Context) (int64, error) {
	var n int64
	err := s.WithTx(ctx, func(q *Queries) error {
		_, err := q.q.ExecContext(ctx, `
			UPDATE events SET sync_status = 'PENDING'
			WHERE client_event_id IN (SELECT client_event_id FROM outbox WHERE status = 'SENDING')
		`)
		if err != nil {
			return apperr.Storage("requeue sending", err)
		}
		res, err := q.q.ExecContext(ctx, `UPDATE outbox SET status = 'PENDING' WHERE status = 'SENDING'`)
		if err != nil {
			return apperr.Storage("requeue sending", err)
		}
		n, err = res.RowsAffected()
		return apperr.Storage("requeue sending", err)
	})
	return n, err
}
