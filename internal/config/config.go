package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"budgetsync/internal/calendar"
	"budgetsync/internal/ledger"
	applog "budgetsync/internal/log"
)

type Config struct {
	// HTTP Server
	Port string
	// Reconcile requests allowed per client per minute; zero disables the limit.
	ReconcileRateLimit int

	// Backend selection
	DataBackend    string
	MemoryGridFile string

	// Run history
	SQLiteDBPath   string
	HistoryEnabled bool

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetRange    string
	ValueInputOption    string
	GridCacheTTL        time.Duration

	// Ledger layout
	CodeColumn       string
	MonthOffset      int
	MonthLabelLayout string
	FiscalYearStart  string
	DayOfYearLabel   string
	LastUpdatedLabel string

	// Report input
	ReportPath string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		ReconcileRateLimit: getEnvInt("RECONCILE_RATE_LIMIT", 6),

		DataBackend:    getEnv("DATA_BACKEND", "sheets"),
		MemoryGridFile: getEnv("MEMORY_GRID_FILE", "./data/ledger.csv"),

		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/budgetsync.db"),
		HistoryEnabled: getEnvBool("HISTORY_ENABLED", true),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetsync"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "reconcile_requests"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetRange:    getEnv("GOOGLE_SHEET_RANGE", "A:AQ"),
		ValueInputOption:    getEnv("VALUE_INPUT_OPTION", "USER_ENTERED"),
		GridCacheTTL:        getEnvDuration("GRID_CACHE_TTL", 0),

		CodeColumn:       getEnv("CODE_COLUMN", "AQ"),
		MonthOffset:      getEnvInt("MONTH_OFFSET", 1),
		MonthLabelLayout: getEnv("MONTH_LABEL_LAYOUT", calendar.DefaultMonthLayout),
		FiscalYearStart:  getEnv("FISCAL_YEAR_START", "2024-04-01"),
		DayOfYearLabel:   getEnv("DAY_OF_YEAR_LABEL", "Day of Year:"),
		LastUpdatedLabel: getEnv("LAST_UPDATED_LABEL", ""),

		ReportPath: getEnv("REPORT_PATH", "resources/export.html"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ReconcileRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid reconcile rate limit %d: must not be negative", c.ReconcileRateLimit))
	}

	// Validate data backend
	validBackends := []string{"sheets", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetRange == "" {
			errors = append(errors, "Google sheet range cannot be empty when using sheets backend")
		}
		switch c.ValueInputOption {
		case "USER_ENTERED", "RAW":
		default:
			errors = append(errors, fmt.Sprintf("invalid value input option '%s': must be USER_ENTERED or RAW", c.ValueInputOption))
		}
	case "memory":
		if c.MemoryGridFile == "" {
			errors = append(errors, "memory grid file cannot be empty when using memory backend")
		}
	}

	if c.GridCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid grid cache TTL %v: must not be negative", c.GridCacheTTL))
	}

	// Validate run history database
	if c.HistoryEnabled {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when history is enabled")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate ledger layout
	if _, err := ledger.DecodeColumn(c.CodeColumn); err != nil {
		errors = append(errors, fmt.Sprintf("invalid code column '%s': %v", c.CodeColumn, err))
	}
	if c.MonthOffset <= -ledger.MaxColumns || c.MonthOffset >= ledger.MaxColumns {
		errors = append(errors, fmt.Sprintf("invalid month offset %d: out of column range", c.MonthOffset))
	}
	if c.MonthLabelLayout == "" {
		errors = append(errors, "month label layout cannot be empty")
	}
	if _, err := calendar.ParseFiscalStart(c.FiscalYearStart); err != nil {
		errors = append(errors, fmt.Sprintf("invalid fiscal year start '%s': must be YYYY-MM-DD", c.FiscalYearStart))
	}
	if c.DayOfYearLabel == "" {
		errors = append(errors, "day of year label cannot be empty")
	}

	// Validate logging
	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if !applog.ValidFormat(c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
