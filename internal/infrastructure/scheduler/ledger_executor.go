package scheduler

import (
	"context"
	"fmt"

	"github.com/erp/stockledger/internal/application/finance"
	"github.com/erp/stockledger/internal/application/inventory"
	"go.uber.org/zap"
)

// OverdueMarker flags unpaid invoices past their due date
type OverdueMarker interface {
	MarkOverdueInvoices(ctx context.Context) (finance.OverdueRunResult, error)
}

// LedgerReconciler replays the movement ledger against every stock record
type LedgerReconciler interface {
	ReconcileAll(ctx context.Context) (*inventory.ReconcileReport, error)
}

// LedgerJobExecutor dispatches scheduled jobs to the application services
type LedgerJobExecutor struct {
	invoices   OverdueMarker
	reconciler LedgerReconciler
	logger     *zap.Logger
}

// NewLedgerJobExecutor creates a new LedgerJobExecutor
func NewLedgerJobExecutor(invoices OverdueMarker, reconciler LedgerReconciler, logger *zap.Logger) *LedgerJobExecutor {
	return &LedgerJobExecutor{invoices: invoices, reconciler: reconciler, logger: logger}
}

// Execute implements JobExecutor
func (e *LedgerJobExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Kind {
	case JobKindOverdueInvoices:
		result, err := e.invoices.MarkOverdueInvoices(ctx)
		if err != nil {
			return err
		}
		e.logger.Info("Overdue invoice run finished",
			zap.String("job_id", job.ID.String()),
			zap.Int("checked", result.Checked),
			zap.Int("marked", result.Marked),
			zap.Int("failed", result.Failed),
		)
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d overdue candidates failed", result.Failed, result.Checked)
		}
		return nil

	case JobKindStockReconcile:
		report, err := e.reconciler.ReconcileAll(ctx)
		if err != nil {
			return err
		}
		if !report.OK() {
			// not retried
			e.logger.Error("Stock ledger reconciliation found mismatches",
				zap.String("job_id", job.ID.String()),
				zap.Int("checked", report.Checked),
				zap.Int("mismatches", len(report.Mismatches)),
			)
			return nil
		}
		e.logger.Info("Stock ledger reconciled",
			zap.String("job_id", job.ID.String()),
			zap.Int("checked", report.Checked),
		)
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
	}
}
