package sheets

import (
	"context"

	"budgetsync/internal/core"
)

// Ports for outbound adapters.
type (
	// GridReader fetches the ledger's configured range as a grid snapshot.
	GridReader interface {
		ReadGrid(ctx context.Context) (core.Grid, error)
	}

	// BatchWriter applies every instruction of a plan in one call. Writes
	// are applied in plan order, so the last write to an address wins.
	BatchWriter interface {
		BatchWrite(ctx context.Context, plan core.UpdatePlan) error
	}

	Ledger interface {
		GridReader
		BatchWriter
	}
)
