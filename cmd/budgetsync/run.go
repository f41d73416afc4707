package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetsync/internal/cli"
	apphttp "budgetsync/internal/http"
	"budgetsync/internal/report"
	"budgetsync/internal/services"
)

func runCmd(g *globals) *cobra.Command {
	var (
		reportPath string
		month      int
		dryRun     bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile one exported report into the ledger",
		Long: `Parse the exported report, plan the cell writes for its month and apply
them to the ledger in a single batch.

With --dry-run the plan is printed but nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if reportPath == "" {
				reportPath = g.cfg.ReportPath
			}

			rep, err := report.ParseFile(reportPath)
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}

			app, err := cli.NewApp(ctx, g.cfg, g.logger)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					g.logger.Error("Failed to close resources", "error", closeErr)
				}
			}()

			res := app.Service.Run(ctx, services.RunRequest{
				Report:        rep,
				MonthOverride: month,
				DryRun:        dryRun,
			})

			if asJSON {
				if err := writeJSON(cmd, apphttp.NewRunResponse(res)); err != nil {
					return err
				}
			} else if err := printResult(cmd.OutOrStdout(), res); err != nil {
				return err
			}

			if res.Failed() {
				return fmt.Errorf("run %s failed at %s: %w", res.RunID, res.Step, res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "report", "r", "", "exported report to reconcile (default: REPORT_PATH)")
	cmd.Flags().IntVarP(&month, "month", "m", 0, "override the report month (1-12)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan writes without applying them")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}
