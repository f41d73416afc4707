package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"budgetsync/internal/calendar"
	"budgetsync/internal/core"
	"budgetsync/internal/ledger"
	applog "budgetsync/internal/log"
	ports "budgetsync/internal/sheets"
	"budgetsync/internal/storage"
)

// ErrAnchorNotFound is returned when a label the run depends on is missing
// from the ledger grid.
var ErrAnchorNotFound = errors.New("anchor not found")

// Step names the stage a run reached; a failed run reports where it stopped.
type Step string

const (
	StepValidate    Step = "validate"
	StepReadGrid    Step = "read_grid"
	StepLocateMonth Step = "locate_month"
	StepLocateAux   Step = "locate_aux"
	StepReconcile   Step = "reconcile"
	StepWrite       Step = "write"
	StepDone        Step = "done"
)

// RunRecorder persists run history.
type RunRecorder interface {
	RecordRun(ctx context.Context, run storage.Run) error
}

// Options describe the ledger layout.
type Options struct {
	// CodeColumn holds row codes; rows are only considered when they end exactly there.
	CodeColumn string
	// MonthOffset is the column distance from a month header to its value column.
	MonthOffset int
	MonthLayout string
	FiscalStart time.Time
	// DayOfYearLabel anchors the day-of-fiscal-year counter written one column to its right.
	DayOfYearLabel string
	// LastUpdatedLabel, when set, anchors a timestamp written one column to its right.
	LastUpdatedLabel  string
	LastUpdatedLayout string
	Now               func() time.Time
}

// DefaultOptions returns the layout of the standard budget ledger.
func DefaultOptions() Options {
	return Options{
		CodeColumn:        "AQ",
		MonthOffset:       1,
		MonthLayout:       calendar.DefaultMonthLayout,
		FiscalStart:       time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		DayOfYearLabel:    "Day of Year:",
		LastUpdatedLayout: time.DateTime,
		Now:               time.Now,
	}
}

// RunRequest asks for one reconciliation pass.
type RunRequest struct {
	Report core.Report
	// MonthOverride replaces the report's month when non-zero.
	MonthOverride int
	DryRun        bool
}

// RunResult describes a finished pass. Err is nil on success; otherwise
// Step names the stage that failed.
type RunResult struct {
	RunID       string
	Month       int
	MonthLabel  string
	MonthColumn string
	Plan        core.UpdatePlan
	Unmatched   []core.BudgetEntry
	DryRun      bool
	Step        Step
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Failed reports whether the run stopped with an error.
func (r RunResult) Failed() bool {
	return r.Err != nil
}

// ReconcileService reads the ledger grid, plans writes for a report and
// applies them in one batch.
type ReconcileService struct {
	reader  ports.GridReader
	writer  ports.BatchWriter
	history RunRecorder
	logger  *applog.Logger
	opts    Options
	codeCol int
}

// NewReconcileService wires the service. history may be nil; a nil logger
// logs through the default slog handler.
func NewReconcileService(reader ports.GridReader, writer ports.BatchWriter, history RunRecorder, logger *applog.Logger, opts Options) (*ReconcileService, error) {
	if reader == nil || writer == nil {
		return nil, errors.New("reconcile service requires a grid reader and a batch writer")
	}
	codeCol, err := ledger.DecodeColumn(opts.CodeColumn)
	if err != nil {
		return nil, fmt.Errorf("code column: %w", err)
	}
	if opts.DayOfYearLabel == "" {
		return nil, errors.New("day of year label is required")
	}
	if opts.MonthLayout == "" {
		opts.MonthLayout = calendar.DefaultMonthLayout
	}
	if opts.LastUpdatedLayout == "" {
		opts.LastUpdatedLayout = time.DateTime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = applog.New(applog.Config{Handler: slog.Default().Handler()})
	}
	return &ReconcileService{
		reader:  reader,
		writer:  writer,
		history: history,
		logger:  logger.WithComponent(applog.ComponentReconcile),
		opts:    opts,
		codeCol: codeCol,
	}, nil
}

// Run executes one pass and records it in history when a recorder is set.
func (s *ReconcileService) Run(ctx context.Context, req RunRequest) RunResult {
	res := RunResult{
		RunID:     uuid.NewString(),
		DryRun:    req.DryRun,
		StartedAt: s.opts.Now(),
	}
	logger := s.logger.With(applog.FieldRunID, res.RunID)

	res.Step, res.Err = s.run(ctx, logger, req, &res)
	res.FinishedAt = s.opts.Now()

	if res.Err != nil {
		logger.ErrorContext(ctx, "Reconciliation failed",
			applog.FieldStep, res.Step,
			applog.FieldMonth, res.Month,
			applog.FieldError, res.Err)
	} else {
		logger.InfoContext(ctx, "Reconciliation complete",
			applog.FieldMonth, res.Month,
			"column", res.MonthColumn,
			applog.FieldWrites, len(res.Plan),
			"unmatched", len(res.Unmatched),
			applog.FieldDryRun, res.DryRun)
	}

	s.record(ctx, logger, req, res)
	return res
}

func (s *ReconcileService) run(ctx context.Context, logger *applog.Logger, req RunRequest, res *RunResult) (Step, error) {
	month := req.Report.Month
	if req.MonthOverride != 0 {
		month = req.MonthOverride
	}
	res.Month = month
	if err := core.ValidateMonth(month); err != nil {
		return StepValidate, fmt.Errorf("month %d: %w", month, err)
	}

	label, err := calendar.MonthLabel(month, s.opts.FiscalStart, s.opts.MonthLayout)
	if err != nil {
		return StepValidate, err
	}
	res.MonthLabel = label

	grid, err := s.reader.ReadGrid(ctx)
	if err != nil {
		return StepReadGrid, fmt.Errorf("read grid: %w", err)
	}

	monthAddress, ok, err := ledger.FindAndOffsetAddress(label, grid, s.opts.MonthOffset)
	if err != nil {
		return StepLocateMonth, fmt.Errorf("month %q: %w", label, err)
	}
	if !ok {
		return StepLocateMonth, fmt.Errorf("month %q: %w", label, ErrAnchorNotFound)
	}
	column, err := ledger.ColumnOf(monthAddress)
	if err != nil {
		return StepLocateMonth, err
	}
	res.MonthColumn = column

	aux, err := s.auxiliaryWrites(grid)
	if err != nil {
		return StepLocateAux, err
	}

	rows := ledger.BuildCodeRowMap(grid, s.codeCol, s.codeCol+1)
	entryWrites := ledger.Reconcile(req.Report.Entries, rows, column)
	res.Unmatched = ledger.Unmatched(req.Report.Entries, rows)
	res.Plan = ledger.BuildPlan(entryWrites, aux)

	for _, e := range req.Report.Entries {
		row, ok := rows.Row(e.Code)
		if !ok {
			logger.DebugContext(ctx, "No ledger row for entry",
				"category", e.Category,
				applog.FieldCode, e.Code)
			continue
		}
		logger.InfoContext(ctx, "Planned write",
			applog.FieldAddress, column+strconv.Itoa(row),
			"value", e.Spent.String(),
			"category", e.Category,
			applog.FieldCode, e.Code)
	}
	for _, w := range aux {
		logger.InfoContext(ctx, "Planned write", applog.FieldAddress, w.Address, "value", w.Value)
	}

	if req.DryRun {
		return StepDone, nil
	}
	if err := s.writer.BatchWrite(ctx, res.Plan); err != nil {
		return StepWrite, fmt.Errorf("batch write: %w", err)
	}
	return StepDone, nil
}

func (s *ReconcileService) auxiliaryWrites(grid core.Grid) ([]core.WriteInstruction, error) {
	now := s.opts.Now()
	var out []core.WriteInstruction

	address, ok, err := ledger.FindAndOffsetAddress(s.opts.DayOfYearLabel, grid, 1)
	if err != nil {
		return nil, fmt.Errorf("day of year %q: %w", s.opts.DayOfYearLabel, err)
	}
	if !ok {
		return nil, fmt.Errorf("day of year %q: %w", s.opts.DayOfYearLabel, ErrAnchorNotFound)
	}
	out = append(out, core.WriteInstruction{
		Address: address,
		Value:   calendar.DayOfFiscalYear(now, s.opts.FiscalStart),
	})

	if s.opts.LastUpdatedLabel != "" {
		address, ok, err := ledger.FindAndOffsetAddress(s.opts.LastUpdatedLabel, grid, 1)
		if err != nil {
			return nil, fmt.Errorf("last updated %q: %w", s.opts.LastUpdatedLabel, err)
		}
		if !ok {
			return nil, fmt.Errorf("last updated %q: %w", s.opts.LastUpdatedLabel, ErrAnchorNotFound)
		}
		out = append(out, core.WriteInstruction{
			Address: address,
			Value:   now.Format(s.opts.LastUpdatedLayout),
		})
	}
	return out, nil
}

func (s *ReconcileService) record(ctx context.Context, logger *applog.Logger, req RunRequest, res RunResult) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordRun(ctx, toStorageRun(req, res)); err != nil {
		logger.WarnContext(ctx, "Failed to record run", applog.FieldError, err)
	}
}

func toStorageRun(req RunRequest, res RunResult) storage.Run {
	run := storage.Run{
		ID:          res.RunID,
		Month:       res.Month,
		MonthLabel:  res.MonthLabel,
		MonthColumn: res.MonthColumn,
		DryRun:      res.DryRun,
		Entries:     len(req.Report.Entries),
		Unmatched:   len(res.Unmatched),
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
	}
	if res.Err != nil {
		run.Step = string(res.Step)
		run.Error = res.Err.Error()
	}
	for _, w := range res.Plan {
		run.Writes = append(run.Writes, storage.RunWrite{Address: w.Address, Value: fmt.Sprint(w.Value)})
	}
	return run
}
