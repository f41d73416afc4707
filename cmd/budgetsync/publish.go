package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"budgetsync/internal/amqp"
	"budgetsync/internal/core"
)

func publishCmd(g *globals) *cobra.Command {
	var (
		reportPath string
		month      int
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Queue a reconcile request for the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if g.cfg.AMQPURL == "" {
				return errNoAMQP
			}
			if reportPath == "" {
				reportPath = g.cfg.ReportPath
			}
			if month != 0 {
				if err := core.ValidateMonth(month); err != nil {
					return fmt.Errorf("month %d: %w", month, err)
				}
			}
			abs, err := filepath.Abs(reportPath)
			if err != nil {
				return fmt.Errorf("resolve report path: %w", err)
			}

			client, err := amqp.NewClient(g.cfg.AMQPURL, g.cfg.AMQPExchange, g.cfg.AMQPQueue)
			if err != nil {
				return fmt.Errorf("failed to initialize AMQP client: %w", err)
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			msg := amqp.NewReconcileRequestMessage(abs, month, dryRun)
			if err := client.PublishReconcileRequest(ctx, msg); err != nil {
				return fmt.Errorf("failed to publish reconcile request: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued reconcile request for %s\n", abs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "report path as seen by the worker (default: REPORT_PATH)")
	cmd.Flags().IntVarP(&month, "month", "m", 0, "override the report month (1-12)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan writes without applying them")

	return cmd
}
