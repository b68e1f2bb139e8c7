// Package staff keeps the cached roster and HR notices of a venue in step
// with the server when the server can be reached.
package staff

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/losnotables/opsconsole/internal/models"
	"github.com/losnotables/opsconsole/internal/store"
)

// Source is the remote side of the roster and notices.
type Source interface {
	FetchStaff(ctx context.Context, localID string) ([]models.StaffRow, error)
	FetchNotices(ctx context.Context, localID, workDate string) ([]models.HrNoticeRow, error)
}

// Refresher pulls the roster and HR notices into the local cache.
type Refresher struct {
	store  *store.Store
	source Source
	log    *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewRefresher returns a Refresher reading from src and writing to s.
func NewRefresher(s *store.Store, src Source, log *slog.Logger) *Refresher {
	return &Refresher{store: s, source: src, log: log, Now: time.Now}
}

// Result reports what was refreshed and returns the cache contents
// afterwards, fresh or not.
type Result struct {
	StaffRefreshed   bool                 `json:"staff_refreshed"`
	NoticesRefreshed bool                 `json:"notices_refreshed"`
	Staff            []models.StaffMember `json:"staff"`
	Notices          []models.HrNotice    `json:"notices"`
}

// Refresh pulls the roster and the notices for workDate. A remote failure
// is logged and the cached copy is served instead; only local storage
// errors are returned.
func (r *Refresher) Refresh(ctx context.Context, localID, workDate string) (*Result, error) {
	res := &Result{}

	if rows, err := r.source.FetchStaff(ctx, localID); err != nil {
		r.log.Warn("roster refresh failed; using cache", "local_id", localID, "err", err)
	} else {
		if err := r.store.ReplaceStaff(ctx, localID, membersFromRows(localID, rows), r.Now()); err != nil {
			return nil, err
		}
		res.StaffRefreshed = true
	}

	if rows, err := r.source.FetchNotices(ctx, localID, workDate); err != nil {
		r.log.Warn("hr notices refresh failed; using cache", "local_id", localID, "work_date", workDate, "err", err)
	} else {
		if err := r.store.ReplaceNotices(ctx, localID, workDate, noticesFromRows(localID, workDate, rows)); err != nil {
			return nil, err
		}
		res.NoticesRefreshed = true
	}

	var err error
	if res.Staff, err = r.store.ActiveStaff(ctx, localID, ""); err != nil {
		return nil, err
	}
	if res.Notices, err = r.store.Notices(ctx, localID, workDate); err != nil {
		return nil, err
	}
	return res, nil
}

func membersFromRows(localID string, rows []models.StaffRow) []models.StaffMember {
	members := make([]models.StaffMember, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.ID) == "" {
			continue
		}
		m := models.StaffMember{
			ID:       row.ID,
			LocalID:  localID,
			FullName: strings.TrimSpace(row.FullName),
			IsActive: true,
		}
		if row.Doc != nil {
			m.Doc = *row.Doc
		}
		if row.Cuil != nil {
			m.Cuil = *row.Cuil
		}
		if row.Blacklisted != nil {
			m.Blacklisted = *row.Blacklisted
		}
		members = append(members, m)
	}
	return members
}

func noticesFromRows(localID, workDate string, rows []models.HrNoticeRow) []models.HrNotice {
	notices := make([]models.HrNotice, 0, len(rows))
	for _, row := range rows {
		sev := row.Severity
		switch sev {
		case models.SeverityInfo, models.SeverityWarn, models.SeverityUrgent:
		default:
			sev = models.SeverityInfo
		}
		notices = append(notices, models.HrNotice{
			ID:        row.ID,
			LocalID:   localID,
			WorkDate:  workDate,
			Title:     row.Title,
			Message:   row.Message,
			Severity:  sev,
			Source:    "HR",
			CreatedAt: row.CreatedAt,
		})
	}
	return notices
}
