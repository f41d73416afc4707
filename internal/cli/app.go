package cli

import (
	"context"
	"errors"
	"fmt"

	"budgetsync/internal/backend"
	"budgetsync/internal/cache"
	"budgetsync/internal/calendar"
	"budgetsync/internal/config"
	applog "budgetsync/internal/log"
	"budgetsync/internal/services"
	"budgetsync/internal/storage"
)

// App bundles the wired reconcile service with the resources it owns.
type App struct {
	Config  *config.Config
	Logger  *applog.Logger
	Service *services.ReconcileService
	// History is nil when run history is disabled.
	History *storage.SQLiteRepository
	Backend *backend.BackendResult
	Caches  *cache.Manager
}

// ServiceOptions maps configuration onto the ledger layout options.
func ServiceOptions(cfg *config.Config) (services.Options, error) {
	fiscalStart, err := calendar.ParseFiscalStart(cfg.FiscalYearStart)
	if err != nil {
		return services.Options{}, fmt.Errorf("fiscal year start: %w", err)
	}
	opts := services.DefaultOptions()
	opts.CodeColumn = cfg.CodeColumn
	opts.MonthOffset = cfg.MonthOffset
	opts.MonthLayout = cfg.MonthLabelLayout
	opts.FiscalStart = fiscalStart
	opts.DayOfYearLabel = cfg.DayOfYearLabel
	opts.LastUpdatedLabel = cfg.LastUpdatedLabel
	return opts, nil
}

// NewApp creates the ledger backend, opens history and builds the service.
func NewApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	opts, err := ServiceOptions(cfg)
	if err != nil {
		return nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Backend: res, Caches: cache.NewManager()}
	for _, c := range res.Caches {
		app.Caches.Register(c)
	}

	history, err := InitHistory(logger.WithComponent(applog.ComponentStorage), cfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("open run history: %w", err)
	}
	app.History = history

	var recorder services.RunRecorder
	if history != nil {
		recorder = history
	}
	svc, err := services.NewReconcileService(res.Reader, res.Writer, recorder, logger, opts)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("build reconcile service: %w", err)
	}
	app.Service = svc
	return app, nil
}

// Close releases the history database and backend resources.
func (a *App) Close() error {
	a.Caches.Stop()
	var errs []error
	if a.History != nil {
		errs = append(errs, a.History.Close())
	}
	if a.Backend != nil && a.Backend.Cleanup != nil {
		errs = append(errs, a.Backend.Cleanup())
	}
	return errors.Join(errs...)
}
