package http

import (
	"errors"
	"net/http"

	applog "budgetsync/internal/log"
	"budgetsync/internal/report"
	"budgetsync/internal/services"
	"budgetsync/internal/storage"
)

const defaultRunsLimit = 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"requests": s.tracer.GetMetrics(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			writeError(w, r, http.StatusServiceUnavailable, "not ready: "+err.Error())
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	params, err := ParseReconcileParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	body, err := OpenReport(w, r)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "report too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	rep, err := report.Parse(body)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "report too large")
			return
		}
		logger.WarnContext(ctx, "Rejected report", "error", err)
		writeError(w, r, http.StatusBadRequest, "parse report: "+err.Error())
		return
	}

	s.runMu.Lock()
	res := s.reconciler.Run(ctx, services.RunRequest{
		Report:        rep,
		MonthOverride: params.Month,
		DryRun:        params.DryRun,
	})
	s.runMu.Unlock()

	logger.InfoContext(ctx, "Reconcile request handled",
		applog.FieldRunID, res.RunID,
		applog.FieldMonth, res.Month,
		applog.FieldStep, res.Step,
		applog.FieldWrites, len(res.Plan),
		applog.FieldDryRun, res.DryRun)

	writeJSON(w, r, RunStatus(res), NewRunResponse(res))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, r, http.StatusNotFound, "run history is disabled")
		return
	}
	limit, err := ParseLimit(r, defaultRunsLimit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "List runs failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "list runs failed")
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	writeJSON(w, r, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, r, http.StatusNotFound, "run history is disabled")
		return
	}
	id := r.PathValue("id")
	run, err := s.runs.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		writeError(w, r, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Get run failed", "run_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "get run failed")
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

// isTooLarge reports whether err came from the request body size cap.
func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
