package shifts

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/db/dbtest"
	"github.com/losnotables/opsconsole/internal/models"
	"github.com/losnotables/opsconsole/internal/store"
)

type fakeActors struct {
	actor *models.Actor
}

func (f fakeActors) Current(context.Context) (*models.Actor, error) {
	if f.actor == nil {
		return nil, apperr.ErrAuthRequired
	}
	return f.actor, nil
}

var supervisor = &models.Actor{ID: "u-1", Email: "ana@example.com", FullName: "Ana Gomez"}

// 2024-05-10 12:00 UTC is 09:00 on 2024-05-10 in UTC-3.
var noon = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, actor *models.Actor) (*Manager, *store.Store) {
	t.Helper()
	s := store.New(dbtest.Open(t))
	m := NewManager(s, fakeActors{actor: actor}, Zone(-3), slog.New(slog.DiscardHandler))
	m.Now = func() time.Time { return noon }
	return m, s
}

func TestWorkDate(t *testing.T) {
	m, _ := newTestManager(t, supervisor)
	// 02:00 UTC is still the previous evening in the business zone.
	assert.Equal(t, "2024-05-09", m.WorkDate(time.Date(2024, 5, 10, 2, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-10", m.WorkDate(time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-10", m.WorkDate(noon))
}

func TestOpen_RequiresActor(t *testing.T) {
	m, _ := newTestManager(t, nil)
	_, err := m.Open(context.Background(), "S-01", "Centro", models.CycleMorning)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
}

func TestOpen_Validates(t *testing.T) {
	m, _ := newTestManager(t, supervisor)
	_, err := m.Open(context.Background(), "", "Centro", models.CycleMorning)
	assert.True(t, apperr.IsOperatorError(err))
	_, err = m.Open(context.Background(), "S-01", "Centro", "AFTERNOON")
	assert.True(t, apperr.IsOperatorError(err))
}

func TestOpen_CreatesShift(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, supervisor)

	sh, err := m.Open(ctx, "S-01", "Centro", models.CycleMorning)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^S-[0-9A-F]{8}$`), sh.ID)
	assert.Equal(t, models.ShiftOpen, sh.Status)
	assert.Equal(t, "2024-05-10", sh.WorkDate)
	assert.Equal(t, "Ana Gomez", sh.OpenedBy)
	assert.Equal(t, "u-1", sh.OpenedByUserID)
	assert.True(t, sh.OpenedAt.Equal(noon))

	active, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, sh.ID, active.ID)
}

func TestOpen_Idempotent(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, supervisor)

	first, err := m.Open(ctx, "S-01", "Centro", models.CycleMorning)
	require.NoError(t, err)
	second, err := m.Open(ctx, "S-01", "Centro", models.CycleMorning)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// A different venue still gets the active shift back.
	other, err := m.Open(ctx, "S-02", "Norte", models.CycleNight)
	require.NoError(t, err)
	assert.Equal(t, first.ID, other.ID)
	assert.Equal(t, "S-01", other.LocalID)
}

func TestOpen_AlreadyClosed(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, supervisor)

	sh, err := m.Open(ctx, "S-01", "Centro", models.CycleMorning)
	require.NoError(t, err)
	_, err = m.Close(ctx, sh.ID)
	require.NoError(t, err)

	_, err = m.Open(ctx, "S-01", "Centro", models.CycleMorning)
	assert.ErrorIs(t, err, apperr.ErrAlreadyClosed)

	night, err := m.Open(ctx, "S-01", "Centro", models.CycleNight)
	require.NoError(t, err)
	assert.NotEqual(t, sh.ID, night.ID)
}

func TestOpen_ConcurrentSingleOpen(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(t, supervisor)

	const n = 10
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sh, err := m.Open(ctx, "S-01", "Centro", models.CycleMorning)
			errs[i] = err
			if err == nil {
				ids[i] = sh.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	var open int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM shift_meta WHERE status = 'OPEN'`).Scan(&open))
	assert.Equal(t, 1, open)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, supervisor)

	_, err := m.Close(ctx, "S-NOPE")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	sh, err := m.Open(ctx, "S-01", "Centro", models.CycleMorning)
	require.NoError(t, err)

	closed, err := m.Close(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	m.Now = func() time.Time { return noon.Add(time.Hour) }
	again, err := m.Close(ctx, sh.ID)
	require.NoError(t, err)
	assert.True(t, again.ClosedAt.Equal(*closed.ClosedAt), "second close is a no-op")

	_, err = m.Active(ctx)
	assert.ErrorIs(t, err, apperr.ErrNoOpenShift)
}

func TestCloseWith_RollsBack(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, supervisor)

	sh, err := m.Open(ctx, "S-01", "Centro", models.CycleMorning)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = m.CloseWith(ctx, sh.ID, func(context.Context, *store.Queries, *models.ShiftMeta, time.Time) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	active, err := m.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, sh.ID, active.ID)
}
