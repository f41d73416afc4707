// Package http serves the reconcile API.
//
// This file shapes JSON responses for runs and errors.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"budgetsync/internal/services"
)

// RunResponse is the JSON form of a reconciliation result.
type RunResponse struct {
	RunID       string          `json:"run_id"`
	Month       int             `json:"month"`
	MonthLabel  string          `json:"month_label,omitempty"`
	MonthColumn string          `json:"month_column,omitempty"`
	DryRun      bool            `json:"dry_run"`
	Writes      []WriteResponse `json:"writes"`
	Unmatched   []EntryResponse `json:"unmatched"`
	Step        string          `json:"step"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
}

type WriteResponse struct {
	Address string `json:"address"`
	Value   any    `json:"value"`
}

type EntryResponse struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Spent    string `json:"spent"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewRunResponse converts a service result for the wire.
func NewRunResponse(res services.RunResult) RunResponse {
	out := RunResponse{
		RunID:       res.RunID,
		Month:       res.Month,
		MonthLabel:  res.MonthLabel,
		MonthColumn: res.MonthColumn,
		DryRun:      res.DryRun,
		Writes:      make([]WriteResponse, 0, len(res.Plan)),
		Unmatched:   make([]EntryResponse, 0, len(res.Unmatched)),
		Step:        string(res.Step),
		DurationMs:  res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
	}
	for _, w := range res.Plan {
		out.Writes = append(out.Writes, WriteResponse{Address: w.Address, Value: w.Value})
	}
	for _, e := range res.Unmatched {
		out.Unmatched = append(out.Unmatched, EntryResponse{Category: e.Category, Code: e.Code, Spent: e.Spent.String()})
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// RunStatus maps a result to an HTTP status: layout and input problems are
// 422, failures talking to the ledger are 502.
func RunStatus(res services.RunResult) int {
	if !res.Failed() {
		return http.StatusOK
	}
	switch res.Step {
	case services.StepReadGrid, services.StepWrite:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "component", "http", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg, RequestID: requestID(r)})
}
