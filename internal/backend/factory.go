package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgetsync/internal/cache"
	gsheet "budgetsync/internal/sheets/google"
	"budgetsync/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:    config.GoogleSpreadsheetID,
		Range:            config.GoogleSheetRange,
		ValueInputOption: config.ValueInputOption,
		GridCacheTTL:     config.GridCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"component", "backend",
		"range", config.GoogleSheetRange,
		"grid_cache_ttl", config.GridCacheTTL)

	res := &BackendResult{Reader: cli, Writer: cli}
	if config.GridCacheTTL > 0 {
		res.Caches = []cache.Cleaner{cli}
	}
	return res, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.MemoryGridFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend",
		"component", "backend",
		"grid_file", config.MemoryGridFile)

	return &BackendResult{Reader: store, Writer: store}, nil
}
