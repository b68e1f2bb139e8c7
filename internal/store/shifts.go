package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

const shiftColumns = `id, local_id, local_label, cycle, work_date, status,
	opened_at, closed_at, opened_by, opened_by_user_id`

func scanShift(row scanner) (*models.ShiftMeta, error) {
	var (
		sh       models.ShiftMeta
		openedAt string
		closedAt sql.NullString
	)
	if err := row.Scan(&sh.ID, &sh.LocalID, &sh.LocalLabel, &sh.Cycle, &sh.WorkDate, &sh.Status,
		&openedAt, &closedAt, &sh.OpenedBy, &sh.OpenedByUserID); err != nil {
		return nil, err
	}
	var err error
	if sh.OpenedAt, err = parseTime(openedAt); err != nil {
		return nil, err
	}
	if sh.ClosedAt, err = parseNullTime(closedAt); err != nil {
		return nil, err
	}
	return &sh, nil
}

// OpenShift returns the single OPEN shift, or apperr.ErrNotFound.
func (q *Queries) OpenShift(ctx context.Context) (*models.ShiftMeta, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shift_meta WHERE status = 'OPEN' LIMIT 1`)
	sh, err := scanShift(row)
	if err != nil {
		return nil, notFound("open shift", err)
	}
	return sh, nil
}

// GetShift returns a shift by id, or apperr.ErrNotFound.
func (q *Queries) GetShift(ctx context.Context, id string) (*models.ShiftMeta, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shift_meta WHERE id = ?`, id)
	sh, err := scanShift(row)
	if err != nil {
		return nil, notFound("get shift", err)
	}
	return sh, nil
}

// FindShift looks up a shift by its (local, work date, cycle) slot and status.
func (q *Queries) FindShift(ctx context.Context, localID, workDate string, cycle models.Cycle, status models.ShiftStatus) (*models.ShiftMeta, error) {
	row := q.q.QueryRowContext(ctx, `
		SELECT `+shiftColumns+` FROM shift_meta
		WHERE local_id = ? AND work_date = ? AND cycle = ? AND status = ?
		ORDER BY opened_at DESC LIMIT 1
	`, localID, workDate, cycle, status)
	sh, err := scanShift(row)
	if err != nil {
		return nil, notFound("find shift", err)
	}
	return sh, nil
}

// InsertShift writes a new shift record.
func (q *Queries) InsertShift(ctx context.Context, sh *models.ShiftMeta) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO shift_meta (`+shiftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sh.ID, sh.LocalID, sh.LocalLabel, sh.Cycle, sh.WorkDate, sh.Status,
		formatTime(sh.OpenedAt), formatNullTime(sh.ClosedAt), sh.OpenedBy, sh.OpenedByUserID)
	return apperr.Storage("insert shift", err)
}

// CloseShift moves an OPEN shift to CLOSED. Closing a shift that is not
// OPEN reports apperr.ErrNoOpenShift.
func (q *Queries) CloseShift(ctx context.Context, id string, at time.Time) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE shift_meta SET status = 'CLOSED', closed_at = ?
		WHERE id = ? AND status = 'OPEN'
	`, formatTime(at), id)
	if err != nil {
		return apperr.Storage("close shift", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("close shift", err)
	}
	if n == 0 {
		return apperr.ErrNoOpenShift
	}
	return nil
}

// ListShifts returns the most recent shifts first.
func (q *Queries) ListShifts(ctx context.Context, limit int) ([]models.ShiftMeta, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+shiftColumns+` FROM shift_meta ORDER BY opened_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperr.Storage("list shifts", err)
	}
	defer rows.Close()

	shifts := []models.ShiftMeta{}
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, apperr.Storage("list shifts", err)
		}
		shifts = append(shifts, *sh)
	}
	return shifts, apperr.Storage("list shifts", rows.Err())
}
