package store

import (
	"context"
	"strings"
	"time"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
)

const staffColumns = `id, local_id, full_name, doc, cuil, blacklisted, is_active, updated_at`

func scanStaff(row scanner) (*models.StaffMember, error) {
	var (
		m         models.StaffMember
		updatedAt string
	)
	if err := row.Scan(&m.ID, &m.LocalID, &m.FullName, &m.Doc, &m.Cuil,
		&m.Blacklisted, &m.IsActive, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReplaceStaff reconciles the cached roster of a venue with a fresh server
// copy: members no longer listed are deactivated, the rest are upserted as
// active. The whole reconciliation is one transaction.
func (s *Store) ReplaceStaff(ctx context.Context, localID string, members []models.StaffMember, now time.Time) error {
	return s.WithTx(ctx, func(q *Queries) error {
		if _, err := q.q.ExecContext(ctx,
			`UPDATE staff SET is_active = 0, updated_at = ? WHERE local_id = ? AND is_active = 1`,
			formatTime(now), localID); err != nil {
			return apperr.Storage("deactivate staff", err)
		}
		for _, m := range members {
			if _, err := q.q.ExecContext(ctx, `
				INSERT INTO staff (`+staffColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, 1, ?)
				ON CONFLICT(local_id, id) DO UPDATE SET
					full_name = excluded.full_name,
					doc = excluded.doc,
					cuil = excluded.cuil,
					blacklisted = excluded.blacklisted,
					is_active = 1,
					updated_at = excluded.updated_at
			`, m.ID, localID, m.FullName, m.Doc, m.Cuil, boolToInt(m.Blacklisted), formatTime(now)); err != nil {
				return apperr.Storage("upsert staff", err)
			}
		}
		return nil
	})
}

// ActiveStaff lists a venue's active roster sorted by name. A non-empty
// query filters case-insensitively on name or document number.
func (q *Queries) ActiveStaff(ctx context.Context, localID, query string) ([]models.StaffMember, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+staffColumns+` FROM staff
		WHERE local_id = ? AND is_active = 1
		  AND (lower(full_name) LIKE ? OR doc LIKE ?)
		ORDER BY full_name ASC
	`, localID, like, like)
	if err != nil {
		return nil, apperr.Storage("active staff", err)
	}
	defer rows.Close()

	members := []models.StaffMember{}
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, apperr.Storage("active staff", err)
		}
		members = append(members, *m)
	}
	return members, apperr.Storage("active staff", rows.Err())
}

// GetStaffMember looks up a cached member regardless of active state.
func (q *Queries) GetStaffMember(ctx context.Context, localID, id string) (*models.StaffMember, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM staff WHERE local_id = ? AND id = ?`, localID, id)
	m, err := scanStaff(row)
	if err != nil {
		return nil, notFound("get staff", err)
	}
	return m, nil
}

const noticeColumns = `id, local_id, work_date, title, message, severity, source, created_at`

func scanNotice(row scanner) (*models.HrNotice, error) {
	var (
		n         models.HrNotice
		createdAt string
	)
	if err := row.Scan(&n.ID, &n.LocalID, &n.WorkDate, &n.Title, &n.Message,
		&n.Severity, &n.Source, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// ReplaceNotices swaps the cached notices of one (venue, date) for notices.
func (s *Store) ReplaceNotices(ctx context.Context, localID, workDate string, notices []models.HrNotice) error {
	return s.WithTx(ctx, func(q *Queries) error {
		if _, err := q.q.ExecContext(ctx,
			`DELETE FROM hr_notices WHERE local_id = ? AND work_date = ?`, localID, workDate); err != nil {
			return apperr.Storage("clear notices", err)
		}
		for _, n := range notices {
			source := n.Source
			if source == "" {
				source = "HR"
			}
			if _, err := q.q.ExecContext(ctx, `
				INSERT INTO hr_notices (`+noticeColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					local_id = excluded.local_id,
					work_date = excluded.work_date,
					title = excluded.title,
					message = excluded.message,
					severity = excluded.severity,
					source = excluded.source,
					created_at = excluded.created_at
			`, n.ID, localID, workDate, n.Title, n.Message, n.Severity, source, formatTime(n.CreatedAt)); err != nil {
				return apperr.Storage("insert notice", err)
			}
		}
		return nil
	})
}

// Notices returns the cached notices for a venue and date, oldest first.
func (q *Queries) Notices(ctx context.Context, localID, workDate string) ([]models.HrNotice, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+noticeColumns+` FROM hr_notices
		WHERE local_id = ? AND work_date = ?
		ORDER BY created_at ASC, id ASC
	`, localID, workDate)
	if err != nil {
		return nil, apperr.Storage("notices", err)
	}
	defer rows.Close()

	notices := []models.HrNotice{}
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, apperr.Storage("notices", err)
		}
		notices = append(notices, *n)
	}
	return notices, apperr.Storage("notices", rows.Err())
}
