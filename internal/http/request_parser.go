// Package http serves the reconcile API.
//
// This file parses reconcile requests: the report upload and its query
// parameters.

package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"budgetsync/internal/core"
)

// maxReportBytes caps uploaded report size.
const maxReportBytes = 10 << 20

// ReconcileParams holds the optional query parameters of POST /api/reconcile.
type ReconcileParams struct {
	Month  int
	DryRun bool
}

var errMissingReport = errors.New("missing report")

// ParseReconcileParams reads month and dry_run from the query string.
// Absent values leave the zero value; malformed values are errors.
func ParseReconcileParams(r *http.Request) (ReconcileParams, error) {
	var p ReconcileParams
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("month %q: %w", v, core.ErrInvalidMonth)
		}
		if err := core.ValidateMonth(m); err != nil {
			return p, fmt.Errorf("month %d: %w", m, err)
		}
		p.Month = m
	}
	if v := strings.TrimSpace(q.Get("dry_run")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("invalid dry_run %q", v)
		}
		p.DryRun = b
	}
	return p, nil
}

// OpenReport returns the uploaded report: the multipart field "report" for
// form uploads, the raw body otherwise. The caller closes the reader.
func OpenReport(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReportBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxReportBytes); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		f, _, err := r.FormFile("report")
		if err != nil {
			return nil, fmt.Errorf("form field report: %w", errMissingReport)
		}
		return f, nil
	}

	if r.ContentLength == 0 {
		return nil, errMissingReport
	}
	return r.Body, nil
}

// ParseLimit reads a positive ?limit= value, falling back to def.
func ParseLimit(r *http.Request, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q", v)
	}
	return n, nil
}
