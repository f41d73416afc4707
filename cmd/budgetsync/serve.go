package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"budgetsync/internal/cli"
	apphttp "budgetsync/internal/http"
	applog "budgetsync/internal/log"
	"budgetsync/internal/middleware/ratelimit"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the reconcile HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := cli.NewApp(cmd.Context(), g.cfg, g.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			opts := []apphttp.Option{
				apphttp.WithLogger(g.logger.WithComponent(applog.ComponentHTTP)),
				apphttp.WithReadyCheck(func(ctx context.Context) error {
					_, err := app.Backend.Reader.ReadGrid(ctx)
					return err
				}),
			}
			if n := g.cfg.ReconcileRateLimit; n > 0 {
				opts = append(opts, apphttp.WithRateLimit(ratelimit.Config{
					RequestsPerWindow: n,
					Window:            time.Minute,
				}))
			}

			var runs apphttp.RunLister
			if app.History != nil {
				runs = app.History
			}
			srv := apphttp.NewServer(":"+g.cfg.Port, app.Service, runs, opts...)

			// Configure server timeouts and limits
			srv.ReadTimeout = 30 * time.Second
			srv.WriteTimeout = 60 * time.Second
			srv.IdleTimeout = 60 * time.Second
			srv.MaxHeaderBytes = 1 << 16 // 64KB

			if g.cfg.GridCacheTTL > 0 {
				app.Caches.StartCleanup(g.cfg.GridCacheTTL)
			}

			ctx, done := cli.GracefulShutdown(cmd.Context(), g.logger, shutdownTimeout, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					g.logger.Error("Server shutdown error", "error", err)
				}
			})

			g.logger.Info("Starting budgetsync server",
				"port", g.cfg.Port,
				"backend", g.cfg.DataBackend,
				"history", app.History != nil,
				"rate_limit", g.cfg.ReconcileRateLimit)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				g.logger.Error("Server error", "error", err, "port", g.cfg.Port)
				return err
			}

			cli.WaitForShutdown(ctx, done)
			g.logger.Info("Server stopped gracefully")
			return nil
		},
	}
}
