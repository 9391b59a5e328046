package sheets

import (
	"context"

	"debtledger/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter mirrors a ledger summary to an external spreadsheet.
	// Each call replaces whatever the previous call wrote.
	SummaryWriter interface {
		WriteSummary(ctx context.Context, agg core.Aggregates) error
	}
)
