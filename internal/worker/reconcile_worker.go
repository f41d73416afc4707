package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budgetsync/internal/amqp"
	"budgetsync/internal/core"
	"budgetsync/internal/report"
	"budgetsync/internal/services"
)

// Reconciler runs one reconciliation pass.
type Reconciler interface {
	Run(ctx context.Context, req services.RunRequest) services.RunResult
}

// ReportLoader reads an exported report from a path.
type ReportLoader func(path string) (core.Report, error)

// ReconcileWorker turns queued reconcile requests into service runs.
type ReconcileWorker struct {
	service Reconciler
	load    ReportLoader
}

func NewReconcileWorker(service Reconciler, load ReportLoader) *ReconcileWorker {
	if load == nil {
		load = report.ParseFile
	}
	return &ReconcileWorker{service: service, load: load}
}

// Handle processes a single request. Failures retrying cannot fix are
// wrapped with amqp.Permanent so the delivery is dropped; grid reads and
// batch writes are retried.
func (w *ReconcileWorker) Handle(ctx context.Context, msg *amqp.ReconcileRequestMessage) error {
	slog.InfoContext(ctx, "Processing reconcile request",
		"component", "worker",
		"report_path", msg.ReportPath,
		"month", msg.Month,
		"dry_run", msg.DryRun)

	rep, err := w.load(msg.ReportPath)
	if err != nil {
		return amqp.Permanent(fmt.Errorf("load report %s: %w", msg.ReportPath, err))
	}

	res := w.service.Run(ctx, services.RunRequest{
		Report:        rep,
		MonthOverride: msg.Month,
		DryRun:        msg.DryRun,
	})
	if !res.Failed() {
		slog.InfoContext(ctx, "Reconcile request complete",
			"component", "worker",
			"run_id", res.RunID,
			"writes", len(res.Plan),
			"unmatched", len(res.Unmatched))
		return nil
	}

	err = fmt.Errorf("run %s failed at %s: %w", res.RunID, res.Step, res.Err)
	if retryable(res.Step) {
		return err
	}
	return amqp.Permanent(err)
}

func retryable(step services.Step) bool {
	return step == services.StepReadGrid || step == services.StepWrite
}
