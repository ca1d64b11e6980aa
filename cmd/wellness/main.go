package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellness/internal/adapter/cloud"
	adapthttp "wellness/internal/adapter/http"
	"wellness/internal/adapter/memory"
	"wellness/internal/adapter/postgres"
	"wellness/internal/app"
	"wellness/internal/config"
	"wellness/internal/domain"
	"wellness/internal/logger"
)

// store is every local persistence port.
type store interface {
	domain.ProfileRepository
	domain.WeightRepository
	domain.CheckInRepository
	domain.LogRepository
	domain.DraftStore
}

func main() {
	if err := run(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	tables, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var local store
	if cfg.DatabaseURL == "" {
		logger.Warning("DATABASE_URL not set, using in-memory storage")
		local = memory.New()
	} else {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		logger.Success("connected to local database")
		local = db
	}

	var remote domain.RemoteWriter
	if cfg.CloudDatabaseURL == "" {
		logger.Warning("CLOUD_DATABASE_URL not set, synced drafts stay in memory")
		remote = memory.NewOutbox()
	} else {
		backend, err := cloud.Open(ctx, cfg.CloudDatabaseURL)
		if err != nil {
			return err
		}
		defer backend.Close()
		logger.Success("connected to cloud backend")
		remote = backend
	}

	syncMgr := app.NewSyncManager(local, remote, app.SyncOptions{
		Debounce:    cfg.SyncDebounce,
		RetryDelay:  cfg.SyncRetryDelay,
		MaxAttempts: cfg.SyncMaxAttempts,
		MaxAge:      cfg.DraftMaxAge,
	})
	defer syncMgr.Stop()

	drafts, err := syncMgr.RecoverUnsaved(ctx)
	if err != nil {
		return err
	}
	for _, d := range drafts {
		if err := syncMgr.Resubmit(ctx, d.Key); err != nil {
			logger.Warning("requeue draft %s: %v", d.Key, err)
		}
	}
	if len(drafts) > 0 {
		logger.Info("requeued %d unsynced draft(s)", len(drafts))
	}

	weightSvc := app.NewWeightService(local, local)
	reviewSvc := app.NewReviewService(local, local)
	feedback := app.NewFeedbackGenerator(tables, cfg.StreakFreezes)
	resolver := app.NewCalorieResolver(tables)
	coach := app.NewCoachService(app.CoachDeps{
		Profiles:      local,
		CheckIns:      local,
		Logs:          local,
		Weights:       weightSvc,
		Review:        reviewSvc,
		Goals:         app.NewGoalCalculator(tables),
		Contexts:      app.NewContextEngine(tables),
		Feedback:      feedback,
		Resolver:      resolver,
		Notifications: app.NewNotificationPicker(nil),
		Sync:          syncMgr,
		Policy:        cfg.BudgetPolicy,
	})

	h := adapthttp.New(adapthttp.Services{
		Profiles: app.NewProfileService(local),
		Weight:   weightSvc,
		Review:   reviewSvc,
		Coach:    coach,
		Feedback: feedback,
		Resolver: resolver,
		Sync:     syncMgr,
	}).Handler()

	srv := &http.Server{Addr: cfg.Addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if n := syncMgr.Flush(shutdownCtx); n > 0 {
		logger.Success("synced %d item(s) before exit", n)
	}
	return nil
}
