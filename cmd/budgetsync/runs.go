package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"budgetsync/internal/cli"
	applog "budgetsync/internal/log"
	"budgetsync/internal/storage"
)

var errHistoryDisabled = errors.New("run history is disabled (HISTORY_ENABLED=false)")

func runsCmd(g *globals) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "Show recorded reconciliation runs",
		Long: `Without arguments, list the most recent runs, newest first.
With a run ID, show that run together with the writes it planned.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !g.cfg.HistoryEnabled {
				return errHistoryDisabled
			}
			repo, err := cli.InitHistory(g.logger.WithComponent(applog.ComponentStorage), g.cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				run, err := repo.GetRun(ctx, args[0])
				if errors.Is(err, storage.ErrRunNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, run)
				}
				return printRun(out, run)
			}

			runs, err := repo.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []storage.Run{}
				}
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			return printRuns(out, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
