package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/losnotables/opsconsole/internal/apperr"
)

const deviceIDKey = "device_id"

// GetSetting returns a stored value, or apperr.ErrNotFound.
func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := q.q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return "", notFound("get setting", err)
	}
	return v, nil
}

// PutSetting inserts or replaces a value.
func (q *Queries) PutSetting(ctx context.Context, key, value string) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, formatTime(time.Now()))
	return apperr.Storage("put setting", err)
}

// DeleteSetting removes a key; a missing key is not an error.
func (q *Queries) DeleteSetting(ctx context.Context, key string) error {
	_, err := q.q.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	return apperr.Storage("delete setting", err)
}

// DeviceID returns this installation's identifier, creating and persisting
// a new UUID on first use.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	var id string
	err := s.WithTx(ctx, func(q *Queries) error {
		v, err := q.GetSetting(ctx, deviceIDKey)
		if err == nil {
			id = v
			return nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		id = uuid.NewString()
		return q.PutSetting(ctx, deviceIDKey, id)
	})
	return id, err
}
