package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reconcilePageSize = 100

// ConsistencyValidator replays stored ledgers against their stock records
type ConsistencyValidator struct {
	scope   uow.TransactionScope
	metrics LedgerMetrics
}

// NewConsistencyValidator creates a validator reading through scope
func NewConsistencyValidator(scope uow.TransactionScope, metrics LedgerMetrics) *ConsistencyValidator {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &ConsistencyValidator{scope: scope, metrics: metrics}
}

// ReconcileRecord checks one product-warehouse pair
func (v *ConsistencyValidator) ReconcileRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*ReconcileReport, error) {
	repos := v.scope.Reader()
	rec, err := repos.StockRecords().FindByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	report := &ReconcileReport{Mismatches: []inventory.Mismatch{}, CheckedAt: time.Now()}
	if err := v.check(ctx, repos, rec, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ReconcileAll checks every stock record, hidden ones included
func (v *ConsistencyValidator) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	repos := v.scope.Reader()
	report := &ReconcileReport{Mismatches: []inventory.Mismatch{}, CheckedAt: time.Now()}
	for page := 1; ; page++ {
		records, total, err := repos.StockRecords().List(ctx, inventory.StockFilter{
			IncludeHidden: true,
			Page:          page,
			PageSize:      reconcilePageSize,
		})
		if err != nil {
			return nil, err
		}
		for i := range records {
			if err := v.check(ctx, repos, &records[i], report); err != nil {
				return nil, err
			}
		}
		if len(records) == 0 || int64(page*reconcilePageSize) >= total {
			break
		}
	}

	log := logger.L(ctx)
	if report.OK() {
		log.Info("stock ledger reconciled", zap.Int("records", report.Checked))
	} else {
		log.Error("stock ledger reconciliation found mismatches",
			zap.Int("records", report.Checked),
			zap.Int("mismatches", len(report.Mismatches)),
		)
	}
	return report, nil
}

func (v *ConsistencyValidator) check(ctx context.Context, repos uow.Repositories, rec *inventory.StockRecord, report *ReconcileReport) error {
	movements, err := repos.StockMovements().FindByRecord(ctx, rec.ProductID, rec.WarehouseID)
	if err != nil {
		return err
	}
	report.Checked++
	err = inventory.Reconcile(rec, movements)
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return err
	}
	mismatch, ok := de.Details.(inventory.Mismatch)
	if !ok {
		return err
	}
	report.Mismatches = append(report.Mismatches, mismatch)
	v.metrics.InvariantViolated(ctx, rec)
	logger.L(ctx).Error("stock record does not match its ledger",
		zap.String("product_id", rec.ProductID.String()),
		zap.String("warehouse_id", rec.WarehouseID.String()),
		zap.String("reason", mismatch.Reason),
	)
	return nil
}
