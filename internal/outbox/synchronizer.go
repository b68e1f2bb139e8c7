// Package outbox drains the local outbox to the remote server.
//
// Events are written to the outbox in the same transaction as the ledger,
// so delivery only has to be at-least-once: the server dedupes on
// client_event_id. A pass walks PENDING rows in insertion order, skips rows
// still inside their backoff window, and stops early when the device goes
// offline or the server rejects the bearer token.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/losnotables/opsconsole/internal/apperr"
	"github.com/losnotables/opsconsole/internal/models"
	"github.com/losnotables/opsconsole/internal/store"
)

// Deliverer sends one item to the server.
type Deliverer interface {
	Deliver(ctx context.Context, item models.OutboxItem) error
}

// Connectivity reports whether the server is believed reachable.
type Connectivity interface {
	Online() bool
}

// Status is the synchronizer state shown to the operator.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusSyncing   Status = "SYNCING"
	StatusAuthError Status = "AUTH_ERROR"
)

// Config tunes the background loop and the retry backoff.
type Config struct {
	Interval   time.Duration // periodic pass; 0 disables the ticker
	MaxBackoff time.Duration // 0 means uncapped
}

// PassResult counts what one pass did.
type PassResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// State is what the status banner shows.
type State struct {
	Status     Status     `json:"status"`
	Online     bool       `json:"online"`
	Pending    int        `json:"pending"`
	Sending    int        `json:"sending"`
	Sent       int        `json:"sent"`
	LastError  string     `json:"last_error,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// Synchronizer drains the outbox to the server, one pass at a time.
type Synchronizer struct {
	store     *store.Store
	deliverer Deliverer
	conn      Connectivity
	cfg       Config
	log       *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time

	sem     *semaphore.Weighted
	trigger chan struct{}

	mu         sync.Mutex
	status     Status
	authError  bool
	lastError  string
	lastSyncAt *time.Time
	listeners  map[int]func(Status)
	nextID     int
}

// New returns an idle Synchronizer. Call Recover before the first pass.
func New(s *store.Store, d Deliverer, conn Connectivity, cfg Config, log *slog.Logger) *Synchronizer {
	return &Synchronizer{
		store:     s,
		deliverer: d,
		conn:      conn,
		cfg:       cfg,
		log:       log,
		Now:       time.Now,
		sem:       semaphore.NewWeighted(1),
		trigger:   make(chan struct{}, 1),
		status:    StatusIdle,
		listeners: map[int]func(Status){},
	}
}

// Recover puts rows left in SENDING by a previous process back in the queue.
func (s *Synchronizer) Recover(ctx context.Context) error {
	n, err := s.store.RequeueSending(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Warn("requeued outbox items interrupted mid-send", "count", n)
	}
	return nil
}

// Trigger asks Run for a pass soon. It never blocks; triggers that arrive
// while one is already queued are merged.
func (s *Synchronizer) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run performs a pass on every tick and every trigger until ctx is done.
func (s *Synchronizer) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.cfg.Interval > 0 {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		case <-s.trigger:
		}
		if _, err := s.Flush(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("outbox pass failed", "err", err)
		}
	}
}

// Flush runs one pass now. It is a no-op when a pass is already running,
// the token was rejected, or the device is offline.
func (s *Synchronizer) Flush(ctx context.Context) (PassResult, error) {
	var res PassResult
	if !s.sem.TryAcquire(1) {
		return res, nil
	}
	defer s.sem.Release(1)

	if s.inAuthError() || !s.conn.Online() {
		return res, nil
	}

	s.setStatus(StatusSyncing)
	defer func() {
		if s.inAuthError() {
			s.setStatus(StatusAuthError)
		} else {
			s.setStatus(StatusIdle)
		}
	}()

	items, err := s.store.PendingOutbox(ctx)
	if err != nil {
		return res, err
	}

	for _, item := range items {
		if !s.conn.Online() || s.inAuthError() || ctx.Err() != nil {
			break
		}
		if s.Now().Before(NextAttempt(item, s.cfg.MaxBackoff)) {
			res.Skipped++
			continue
		}

		if err := s.store.MarkSending(ctx, item.ID); err != nil {
			return res, err
		}
		err := s.deliverer.Deliver(ctx, item)
		// Once MarkSending has run the row must leave SENDING even if the
		// caller goes away, so the bookkeeping ignores cancellation.
		bctx := context.WithoutCancel(ctx)
		switch {
		case err == nil:
			if err := s.store.MarkSent(bctx, item.ID, s.Now()); err != nil {
				return res, s.release(bctx, item, err)
			}
			res.Sent++
			s.markSynced()
			s.log.Debug("event delivered", "client_event_id", item.ClientEventID, "type", item.Type)

		case errors.Is(err, apperr.ErrAuthSync):
			s.mu.Lock()
			s.authError = true
			s.lastError = err.Error()
			s.mu.Unlock()
			if err := s.store.RevertPending(bctx, item.ID); err != nil {
				return res, err
			}
			s.log.Warn("sync halted: server rejected the session token", "client_event_id", item.ClientEventID)
			return res, nil

		case ctx.Err() != nil:
			// Interrupted by shutdown; this was not a delivery failure.
			return res, s.store.RevertPending(bctx, item.ID)

		default:
			if err := s.store.MarkRetry(bctx, item.ID, err.Error(), s.Now()); err != nil {
				return res, s.release(bctx, item, err)
			}
			res.Failed++
			s.mu.Lock()
			s.lastError = err.Error()
			s.mu.Unlock()
			s.log.Warn("event delivery failed; will retry",
				"client_event_id", item.ClientEventID, "retries", item.Retries+1, "err", err)
		}
	}
	return res, nil
}

// release puts an item back in the queue after its post-delivery write
// failed and returns that failure. The server deduplicates by
// client_event_id, so a repeat delivery is harmless.
func (s *Synchronizer) release(ctx context.Context, item models.OutboxItem, cause error) error {
	if err := s.store.RevertPending(ctx, item.ID); err != nil {
		s.log.Error("outbox item left in SENDING until restart",
			"client_event_id", item.ClientEventID, "err", err)
	}
	return cause
}

// ResetAuthError clears the rejected-token state and schedules a pass.
// Call it once the operator has stored a fresh token.
func (s *Synchronizer) ResetAuthError() {
	s.mu.Lock()
	s.authError = false
	s.lastError = ""
	s.mu.Unlock()
	s.setStatus(StatusIdle)
	s.Trigger()
}

// Status returns the current state without touching the store.
func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot combines the live status with outbox counts.
func (s *Synchronizer) Snapshot(ctx context.Context) (State, error) {
	counts, err := s.store.OutboxCounts(ctx)
	if err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Status:     s.status,
		Online:     s.conn.Online(),
		Pending:    counts[models.SyncPending],
		Sending:    counts[models.SyncSending],
		Sent:       counts[models.SyncSent],
		LastError:  s.lastError,
		LastSyncAt: s.lastSyncAt,
	}, nil
}

// Subscribe registers fn for status changes and returns its unsubscribe.
func (s *Synchronizer) Subscribe(fn func(Status)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Synchronizer) inAuthError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authError
}

func (s *Synchronizer) markSynced() {
	now := s.Now().UTC()
	s.mu.Lock()
	s.lastSyncAt = &now
	s.mu.Unlock()
}

func (s *Synchronizer) setStatus(st Status) {
	s.mu.Lock()
	if s.status == st {
		s.mu.Unlock()
		return
	}
	s.status = st
	fns := make([]func(Status), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}
