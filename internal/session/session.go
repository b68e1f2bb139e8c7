// Package session keeps the operator session (bearer token plus user
// record) in the local settings table so it survives restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/auth"
	"github.com/losnotables/opsconsole/internal/models"
	"github.com/losnotables/opsconsole/internal/store"
)

const settingKey = "session"

type record struct {
	Token string        `json:"token"`
	User  *models.Actor `json:"user,omitempty"`
}

// Manager is the single accessor for "who is operating this console".
type Manager struct {
	store *store.Store
}

// NewManager returns a Manager backed by the settings table of s.
func NewManager(s *store.Store) *Manager {
	return &Manager{store: s}
}

func (m *Manager) load(ctx context.Context) (*record, error) {
	raw, err := m.store.GetSetting(ctx, settingKey)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// A corrupt record is treated as no session.
		return nil, nil
	}
	return &rec, nil
}

// Save stores a new session. When user is nil the actor is read from the
// token claims, which then must identify a user.
func (m *Manager) Save(ctx context.Context, token string, user *models.Actor) (*models.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("missing token")
	}
	if user == nil || user.ID == "" {
		claims, err := auth.ParseUnverified(token)
		if err != nil {
			return nil, apperr.Validation("token does not identify a user")
		}
		a := claims.Actor()
		user = &a
	}
	raw, err := json.Marshal(record{Token: token, User: user})
	if err != nil {
		return nil, apperr.Storage("encode session", err)
	}
	if err := m.store.PutSetting(ctx, settingKey, string(raw)); err != nil {
		return nil, err
	}
	return user, nil
}

// Clear forgets the stored session.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.DeleteSetting(ctx, settingKey)
}

// Current resolves the operator. It returns apperr.ErrAuthRequired when no
// session is stored or the stored one names nobody.
func (m *Manager) Current(ctx context.Context) (*models.Actor, error) {
	rec, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.ErrAuthRequired
	}
	if rec.User != nil && rec.User.ID != "" {
		return rec.User, nil
	}
	if rec.Token == "" {
		return nil, apperr.ErrAuthRequired
	}
	claims, err := auth.ParseUnverified(rec.Token)
	if err != nil {
		return nil, apperr.ErrAuthRequired
	}
	a := claims.Actor()
	return &a, nil
}

// Token returns the stored bearer token, or "" when there is none.
func (m *Manager) Token(ctx context.Context) (string, error) {
	rec, err := m.load(ctx)
	if err != nil || rec == nil {
		return "", err
	}
	return rec.Token, nil
}
