package inventory

import (
	"context"

	"github.com/erp/stockledger/internal/domain/inventory"
)

// LedgerMetrics receives ledger outcomes for instrumentation
type LedgerMetrics interface {
	// MovementApplied is called for every movement written to the ledger
	MovementApplied(ctx context.Context, m *inventory.StockMovement)
	// InvariantViolated is called when a post-condition check fails
	InvariantViolated(ctx context.Context, record *inventory.StockRecord)
}

type nopMetrics struct{}

func (nopMetrics) MovementApplied(context.Context, *inventory.StockMovement) {}
func (nopMetrics) InvariantViolated(context.Context, *inventory.StockRecord) {}
