// Package app wires the engine's services from configuration. An App is
// created once per process and closed on exit.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/fieldquote-sync/internal/async"
	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
	"github.com/joseph-ayodele/fieldquote-sync/internal/export"
	"github.com/joseph-ayodele/fieldquote-sync/internal/notify"
	"github.com/joseph-ayodele/fieldquote-sync/internal/profiles"
	"github.com/joseph-ayodele/fieldquote-sync/internal/quotes"
	"github.com/joseph-ayodele/fieldquote-sync/internal/remote"
	"github.com/joseph-ayodele/fieldquote-sync/internal/repository"
	"github.com/joseph-ayodele/fieldquote-sync/internal/sealed"
	"github.com/joseph-ayodele/fieldquote-sync/internal/tokens"
)

type App struct {
	Config *common.Config
	Logger *slog.Logger

	DB         *sql.DB
	Profiles   *profiles.Store
	History    repository.HistoryRepository
	Remote     *remote.Client
	Runner     *async.Runner
	Tokens     *tokens.Manager
	Dispatcher *notify.Dispatcher
	Quotes     *quotes.Service
	Export     *export.Service
}

// Open builds every service. notifier receives alerts from the dispatcher.
func Open(ctx context.Context, cfg *common.Config, notifier notify.Notifier, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repository.Open(ctx, repository.Config{Path: cfg.Store.Path}, logger)
	if err != nil {
		return nil, common.StorageFaultError("open local store", err)
	}
	if err := repository.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		repository.Close(db, logger)
		return nil, common.StorageFaultError("ping local store", err)
	}

	sealer, err := sealed.LoadOrCreate(cfg.Store.KeyFile)
	if err != nil {
		repository.Close(db, logger)
		return nil, common.StorageFaultError("load store key", err)
	}

	store, err := profiles.NewStore(ctx, repository.NewProfileRepository(db, sealer, logger), logger)
	if err != nil {
		repository.Close(db, logger)
		return nil, err
	}
	history := repository.NewHistoryRepository(db, logger)
	client := remote.NewClient(remote.Config{Timeout: cfg.Remote.Timeout, APIPrefix: cfg.Remote.APIPrefix}, logger)
	runner := async.NewRunner(logger,
		async.WithWorkers(cfg.Remote.Workers),
		async.WithQueueSize(cfg.Remote.QueueSize),
		async.WithTaskTimeout(cfg.Remote.Timeout),
	)

	a := &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Profiles:   store,
		History:    history,
		Remote:     client,
		Runner:     runner,
		Tokens:     tokens.NewManager(store, client, runner, logger),
		Dispatcher: notify.NewDispatcher(notifier, history, logger),
		Quotes:     quotes.NewService(store, client, runner, logger),
		Export:     export.NewService(history, logger),
	}
	logger.Info("engine ready", "store", cfg.Store.Path, "setup_complete", store.IsSetupComplete(), "business_id", store.ActiveID())
	return a, nil
}

// Close drains pending best-effort calls, bounded by ctx, then closes the
// store.
func (a *App) Close(ctx context.Context) error {
	a.Runner.Shutdown(ctx)
	repository.Close(a.DB, a.Logger)
	return nil
}

// Reset clears the profile. Notification history is kept.
func (a *App) Reset(ctx context.Context) error {
	if err := a.Profiles.Clear(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}
