package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"budgetsync/internal/amqp"
	"budgetsync/internal/cli"
	applog "budgetsync/internal/log"
	"budgetsync/internal/worker"
)

var errNoAMQP = errors.New("AMQP_URL is required")

func workerCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume queued reconcile requests",
		Long: `Consume reconcile requests from the AMQP queue. Each message names a
report file readable by the worker; the run is retried when the ledger could
not be read or written and dropped for any other failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.cfg.AMQPURL == "" {
				return errNoAMQP
			}
			logger := g.logger.WithComponent(applog.ComponentWorker)

			app, err := cli.NewApp(cmd.Context(), g.cfg, g.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			client, err := amqp.NewClient(g.cfg.AMQPURL, g.cfg.AMQPExchange, g.cfg.AMQPQueue)
			if err != nil {
				logger.Error("Failed to initialize AMQP client", "error", err)
				return err
			}
			defer client.Close()

			if g.cfg.GridCacheTTL > 0 {
				app.Caches.StartCleanup(g.cfg.GridCacheTTL)
			}

			ctx, done := cli.GracefulShutdown(cmd.Context(), logger, shutdownTimeout, nil)
			w := worker.NewReconcileWorker(app.Service, nil)

			logger.Info("Starting budgetsync worker",
				"exchange", g.cfg.AMQPExchange,
				"queue", g.cfg.AMQPQueue,
				"backend", g.cfg.DataBackend)
			err = client.ConsumeReconcileRequests(ctx, w.Handle)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
				return err
			}

			cli.WaitForShutdown(ctx, done)
			logger.Info("Worker stopped")
			return nil
		},
	}
}
