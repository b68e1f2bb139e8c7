// main is the entry point for the shift operations console.
//
// This file is the composition root: the single place where the
// independent packages (store, session, sync, shifts, console, handlers)
// are constructed and wired together. Every other package receives its
// dependencies explicitly, so tests can build fresh instances of each.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/losnotables/opsconsole/internal/config"
	"github.com/losnotables/opsconsole/internal/connectivity"
	"github.com/losnotables/opsconsole/internal/console"
	"github.com/losnotables/opsconsole/internal/db"
	"github.com/losnotables/opsconsole/internal/handlers"
	"github.com/losnotables/opsconsole/internal/logging"
	"github.com/losnotables/opsconsole/internal/middleware"
	"github.com/losnotables/opsconsole/internal/outbox"
	"github.com/losnotables/opsconsole/internal/remote"
	"github.com/losnotables/opsconsole/internal/session"
	"github.com/losnotables/opsconsole/internal/shifts"
	"github.com/losnotables/opsconsole/internal/staff"
	"github.com/losnotables/opsconsole/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "opsconsole: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ── Configuration ────────────────────────────────────────────────
	// Settings come from the environment, optionally seeded from ./.env.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Database ─────────────────────────────────────────────────────
	// db.Open creates the file if it doesn't exist and applies pending
	// migrations.
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()
	st := store.New(database)

	// ── Identity and remote server ───────────────────────────────────
	sessions := session.NewManager(st)
	client := remote.NewClient(&http.Client{Timeout: cfg.SyncHTTPTimeout},
		cfg.RemoteBaseURL, cfg.SyncPath, sessions.Token)
	monitor := connectivity.New(client, cfg.ConnectivityInterval, log.With("component", "connectivity"))

	// ── Outbox synchronizer ──────────────────────────────────────────
	syncer := outbox.New(st, client, monitor, outbox.Config{
		Interval:   cfg.SyncInterval,
		MaxBackoff: cfg.SyncMaxBackoff,
	}, log.With("component", "sync"))
	if err := syncer.Recover(ctx); err != nil {
		return fmt.Errorf("recover outbox: %w", err)
	}
	monitor.OnOnline(syncer.Trigger)
	syncLog := log.With("component", "sync")
	unsubscribe := syncer.Subscribe(func(st outbox.Status) {
		if st == outbox.StatusAuthError {
			syncLog.Warn("sync status changed; store a new session to resume", "status", st)
			return
		}
		syncLog.Debug("sync status changed", "status", st)
	})
	defer unsubscribe()
	syncer.Trigger()

	// ── Shifts and console ───────────────────────────────────────────
	zone := shifts.Zone(cfg.BusinessUTCOffsetHours)
	shiftMgr := shifts.NewManager(st, sessions, zone, log.With("component", "shifts"))
	cons := console.New(st, shiftMgr, syncer, cfg.AppVersion, log.With("component", "console"))
	refresher := staff.NewRefresher(st, client, log.With("component", "staff"))

	// ── HTTP ─────────────────────────────────────────────────────────
	srv := &handlers.Server{
		Store:       st,
		Sessions:    sessions,
		Shifts:      shiftMgr,
		Console:     cons,
		Sync:        syncer,
		Staff:       refresher,
		Log:         log.With("component", "http"),
		Location:    zone,
		SeedEnabled: cfg.SeedEnabled,
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.CORS(middleware.RequestLogger(log)(srv.Routes())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error { return syncer.Run(gctx) })
	g.Go(func() error {
		log.Info("opsconsole listening", "addr", cfg.Addr, "version", cfg.AppVersion,
			"remote", cfg.RemoteBaseURL, "utc_offset_hours", cfg.BusinessUTCOffsetHours)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("opsconsole stopped")
	return err
}
