// Package connectivity tracks whether the remote server is reachable.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Prober checks reachability; any error means offline.
type Prober interface {
	Probe(ctx context.Context) error
}

// Monitor keeps the last known reachability of the remote server.
type Monitor struct {
	prober   Prober
	interval time.Duration
	log      *slog.Logger

	online atomic.Bool

	mu        sync.Mutex
	listeners []func()
}

// New returns a monitor that starts out assuming the network is up, so
// the first sync attempt is not delayed until the first probe.
func New(prober Prober, interval time.Duration, log *slog.Logger) *Monitor {
	m := &Monitor{prober: prober, interval: interval, log: log}
	m.online.Store(true)
	return m
}

// Online reports the result of the last probe or Set call.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// OnOnline registers fn to run on every offline→online transition.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Set records the current state and fires the online listeners when the
// state flips from offline to online.
func (m *Monitor) Set(online bool) {
	was := m.online.Swap(online)
	if was == online {
		return
	}
	m.log.Info("connectivity changed", "online", online)
	if !online {
		return
	}
	m.mu.Lock()
	fns := append([]func(){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Check probes once and records the outcome.
func (m *Monitor) Check(ctx context.Context) bool {
	timeout := m.interval
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := m.prober.Probe(pctx)
	if err != nil && ctx.Err() != nil {
		// Shutting down; keep the last known state.
		return m.Online()
	}
	if err != nil {
		m.log.Debug("probe failed", "err", err)
	}
	m.Set(err == nil)
	return err == nil
}

// Run probes immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	if m.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
