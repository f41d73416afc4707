package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"budgetsync/internal/cli"
	"budgetsync/internal/config"
	applog "budgetsync/internal/log"
)

// globals carries state shared by every subcommand once the root command
// has loaded configuration.
type globals struct {
	envFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *applog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "budgetsync",
		Short: "Reconcile budget report totals into the ledger spreadsheet",
		Long: `budgetsync reads an exported spending report, finds the column of the
report month in the ledger spreadsheet and writes each category total into
the row carrying the matching category code.`,
		SilenceUsage:      true,
		PersistentPreRunE: g.init,
	}

	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", "dotenv file to load (default: .env)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error), overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format (text, json), overrides LOG_FORMAT")

	root.AddCommand(runCmd(g))
	root.AddCommand(serveCmd(g))
	root.AddCommand(workerCmd(g))
	root.AddCommand(publishCmd(g))
	root.AddCommand(runsCmd(g))

	return root
}

func (g *globals) init(cmd *cobra.Command, _ []string) error {
	if g.envFile != "" {
		cli.LoadEnvFile(g.envFile)
	} else {
		cli.LoadEnvFile()
	}

	cfg := config.Load()
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	g.cfg = cfg
	g.logger = cli.SetupLogger(cfg, cmd.ErrOrStderr())
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
