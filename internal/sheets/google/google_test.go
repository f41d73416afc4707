package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetsync/internal/core"
)

// fakeSheetsAPI serves the two values endpoints the client uses.
type fakeSheetsAPI struct {
	mu      sync.Mutex
	gets    atomic.Int64
	values  [][]any
	batches []gsheet.BatchUpdateValuesRequest
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		f.gets.Add(1)
		f.mu.Lock()
		body := map[string]any{"range": "Budget!A1:AQ100", "majorDimension": "ROWS", "values": f.values}
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "values:batchUpdate"):
		raw, _ := io.ReadAll(r.Body)
		var req gsheet.BatchUpdateValuesRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.batches = append(f.batches, req)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"totalUpdatedCells": len(req.Data)})
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, api *fakeSheetsAPI, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if cfg.SpreadsheetID == "" {
		cfg.SpreadsheetID = "sheet-id"
	}
	c, err := NewWithService(svc, cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	oldID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	defer os.Setenv("GOOGLE_SPREADSHEET_ID", oldID)
	os.Unsetenv("GOOGLE_SPREADSHEET_ID")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_InvalidCacheTTL(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GRID_CACHE_TTL", "soon")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "GRID_CACHE_TTL") {
		t.Fatalf("expected GRID_CACHE_TTL error, got %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := newSheetsService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/key.json")

	_, err := newSheetsService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestNewWithServiceDefaults(t *testing.T) {
	if _, err := NewWithService(nil, Config{SpreadsheetID: "x"}); err == nil {
		t.Fatal("expected error for nil service")
	}
	c := newTestClient(t, &fakeSheetsAPI{}, Config{})
	if c.cfg.Range != DefaultRange || c.cfg.ValueInputOption != DefaultValueInputOption {
		t.Fatalf("defaults not applied: %+v", c.cfg)
	}
	if c.grid != nil {
		t.Fatal("cache should be disabled without TTL")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired without cache = %d", n)
	}
}

func TestReadGridStringifiesWithoutTrimming(t *testing.T) {
	api := &fakeSheetsAPI{values: [][]any{
		{"Category", " April 2024", "May 2024"},
		{"Groceries", 12.5, nil, "101"},
		{},
	}}
	c := newTestClient(t, api, Config{Range: "Budget!A:AQ"})

	grid, err := c.ReadGrid(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if grid.Rows() != 3 {
		t.Fatalf("rows = %d", grid.Rows())
	}
	if grid.Cell(0, 1) != " April 2024" {
		t.Fatalf("cell should keep whitespace, got %q", grid.Cell(0, 1))
	}
	if grid.Cell(1, 1) != "12.5" || grid.Cell(1, 2) != "" || len(grid[1]) != 4 {
		t.Fatalf("unexpected row %q", grid[1])
	}
}

func TestReadGridEmpty(t *testing.T) {
	c := newTestClient(t, &fakeSheetsAPI{}, Config{})
	if _, err := c.ReadGrid(context.Background()); err == nil || !strings.Contains(err.Error(), "no values found") {
		t.Fatalf("expected no values error, got %v", err)
	}
}

func TestReadGridCacheAndInvalidation(t *testing.T) {
	api := &fakeSheetsAPI{values: [][]any{{"a"}}}
	c := newTestClient(t, api, Config{GridCacheTTL: time.Minute})
	ctx := context.Background()

	g1, err := c.ReadGrid(ctx)
	if err != nil {
		t.Fatal(err)
	}
	g1[0][0] = "mutated"
	g2, err := c.ReadGrid(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if api.gets.Load() != 1 {
		t.Fatalf("expected one API read, got %d", api.gets.Load())
	}
	if g2[0][0] != "a" {
		t.Fatalf("cached grid must not be affected by caller mutation, got %q", g2[0][0])
	}

	if err := c.BatchWrite(ctx, core.UpdatePlan{{Address: "B1", Value: 1}}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ReadGrid(ctx); err != nil {
		t.Fatal(err)
	}
	if api.gets.Load() != 2 {
		t.Fatalf("write should invalidate the cache, reads = %d", api.gets.Load())
	}
}

func TestBatchWriteQualifiesAddresses(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newTestClient(t, api, Config{Range: "'2024 Budget'!A:AQ", ValueInputOption: "RAW"})

	plan := core.UpdatePlan{
		{Address: "AR5", Value: 20.0},
		{Address: "B40", Value: 45},
	}
	if err := c.BatchWrite(context.Background(), plan); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(api.batches) != 1 {
		t.Fatalf("expected one batch call, got %d", len(api.batches))
	}
	req := api.batches[0]
	if req.ValueInputOption != "RAW" || len(req.Data) != 2 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Data[0].Range != "'2024 Budget'!AR5" || req.Data[1].Range != "'2024 Budget'!B40" {
		t.Fatalf("unexpected ranges %q %q", req.Data[0].Range, req.Data[1].Range)
	}
	if v := req.Data[0].Values[0][0]; v != 20.0 {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestBatchWriteEmptyPlan(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newTestClient(t, api, Config{})
	if err := c.BatchWrite(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(api.batches) != 0 {
		t.Fatal("empty plan must not call the API")
	}
}

func TestUninitializedClient(t *testing.T) {
	c := &Client{}
	if _, err := c.ReadGrid(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if err := c.BatchWrite(context.Background(), core.UpdatePlan{{Address: "A1"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSheetPrefix(t *testing.T) {
	cases := map[string]string{
		"A:AQ":             "",
		"Budget!A:AQ":      "Budget!",
		"'My!Sheet'!A1:B2": "'My!Sheet'!",
	}
	for in, want := range cases {
		if got := sheetPrefix(in); got != want {
			t.Fatalf("sheetPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
