package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetsync/internal/cache"
	"budgetsync/internal/core"
	ports "budgetsync/internal/sheets"
)

const (
	DefaultRange            = "A:AQ"
	DefaultValueInputOption = "USER_ENTERED"
)

// Config selects the spreadsheet and range the client works on.
type Config struct {
	SpreadsheetID string
	// Range read by ReadGrid, optionally sheet-qualified ("Budget!A:AQ").
	Range            string
	ValueInputOption string
	// GridCacheTTL keeps the fetched grid for reuse; zero disables caching.
	GridCacheTTL time.Duration
}

type Client struct {
	svc    *gsheet.Service
	cfg    Config
	grid   *cache.Entry[core.Grid]
	reads  singleflight.Group
	prefix string // "Sheet!" prefix for write addresses, or ""
}

// Ensure interface conformance
var (
	_ ports.GridReader  = (*Client)(nil)
	_ ports.BatchWriter = (*Client)(nil)
	_ cache.Cleaner     = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_RANGE (default "A:AQ"), VALUE_INPUT_OPTION
// (default "USER_ENTERED"), GRID_CACHE_TTL (default 0, disabled).
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg := Config{
		SpreadsheetID:    strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		Range:            strings.TrimSpace(os.Getenv("GOOGLE_SHEET_RANGE")),
		ValueInputOption: strings.TrimSpace(os.Getenv("VALUE_INPUT_OPTION")),
	}
	if v := strings.TrimSpace(os.Getenv("GRID_CACHE_TTL")); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GRID_CACHE_TTL %q: %w", v, err)
		}
		cfg.GridCacheTTL = ttl
	}
	return New(ctx, cfg)
}

// New creates a client authenticated with service account credentials
// taken from the environment.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg)
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config) (*Client, error) {
	if svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if cfg.Range == "" {
		cfg.Range = DefaultRange
	}
	if cfg.ValueInputOption == "" {
		cfg.ValueInputOption = DefaultValueInputOption
	}
	c := &Client{
		svc:    svc,
		cfg:    cfg,
		prefix: sheetPrefix(cfg.Range),
	}
	if cfg.GridCacheTTL > 0 {
		c.grid = cache.NewEntry[core.Grid](cfg.GridCacheTTL)
	}
	return c, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials", "component", "sheets")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "component", "sheets", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadGrid fetches the configured range. Concurrent calls share one request
// and, when caching is enabled, results are reused until the TTL expires or
// a write invalidates them.
func (c *Client) ReadGrid(ctx context.Context) (core.Grid, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := c.cfg.Range
	if c.grid != nil {
		if g, ok := c.grid.Get(); ok {
			slog.DebugContext(ctx, "Grid cache hit", "component", "sheets", "range", rng)
			return g.Clone(), nil
		}
	}

	v, err, shared := c.reads.Do(rng, func() (any, error) {
		resp, err := c.svc.Spreadsheets.Values.Get(c.cfg.SpreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rng, err)
		}
		if len(resp.Values) == 0 {
			return nil, fmt.Errorf("read %s: no values found", rng)
		}
		return toGrid(resp.Values), nil
	})
	if err != nil {
		return nil, err
	}
	grid := v.(core.Grid)
	if c.grid != nil {
		c.grid.Set(grid)
	}
	slog.InfoContext(ctx, "Read ledger grid",
		"component", "sheets",
		"range", rng,
		"rows", grid.Rows(),
		"shared", shared)
	return grid.Clone(), nil
}

// BatchWrite sends every instruction in one values.batchUpdate call.
func (c *Client) BatchWrite(ctx context.Context, plan core.UpdatePlan) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if len(plan) == 0 {
		return nil
	}
	req := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: c.cfg.ValueInputOption,
		Data:             c.valueRanges(plan),
	}
	resp, err := c.svc.Spreadsheets.Values.BatchUpdate(c.cfg.SpreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update %d ranges: %w", len(plan), err)
	}
	c.InvalidateGridCache()
	slog.InfoContext(ctx, "Applied batch update",
		"component", "sheets",
		"ranges", len(plan),
		"updated_cells", resp.TotalUpdatedCells)
	return nil
}

// InvalidateGridCache forces the next ReadGrid to hit the API.
func (c *Client) InvalidateGridCache() {
	if c.grid != nil {
		c.grid.Clear()
	}
}

// CleanExpired drops the cached grid once its TTL has passed and returns
// how many entries were removed.
func (c *Client) CleanExpired() int {
	if c.grid == nil {
		return 0
	}
	return c.grid.CleanExpired()
}

func (c *Client) valueRanges(plan core.UpdatePlan) []*gsheet.ValueRange {
	out := make([]*gsheet.ValueRange, 0, len(plan))
	for _, w := range plan {
		out = append(out, &gsheet.ValueRange{
			Range:  c.prefix + w.Address,
			Values: [][]any{{w.Value}},
		})
	}
	return out
}

// toGrid stringifies API cells without trimming; anchors match exact text.
func toGrid(values [][]any) core.Grid {
	grid := make(core.Grid, len(values))
	for i, row := range values {
		cols := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			cols[j] = fmt.Sprint(v)
		}
		grid[i] = cols
	}
	return grid
}

// sheetPrefix returns "Sheet!" for a sheet-qualified A1 range.
func sheetPrefix(rng string) string {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		return rng[:i+1]
	}
	return ""
}
