package inventory

import (
	"context"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockService exposes stock queries and the manual stock operations:
// adjustments, damage handling and visibility
type StockService struct {
	scope     uow.TransactionScope
	ledger    *StockLedger
	validator *ConsistencyValidator
}

// NewStockService creates a new StockService
func NewStockService(scope uow.TransactionScope, ledger *StockLedger, validator *ConsistencyValidator) *StockService {
	return &StockService{scope: scope, ledger: ledger, validator: validator}
}

// GetStock returns the record of a product in a warehouse
func (s *StockService) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecordResponse, error) {
	rec, err := s.scope.Reader().StockRecords().FindByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	resp := ToStockRecordResponse(rec)
	return &resp, nil
}

// ListStock returns stock records; hidden records only when asked for
func (s *StockService) ListStock(ctx context.Context, filter StockListFilter) ([]StockRecordResponse, int64, error) {
	records, total, err := s.scope.Reader().StockRecords().List(ctx, inventory.StockFilter{
		ProductID:     filter.ProductID,
		WarehouseID:   filter.WarehouseID,
		IncludeHidden: filter.IncludeHidden,
		OnlyAvailable: filter.OnlyAvailable,
		Page:          filter.Page,
		PageSize:      filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]StockRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, ToStockRecordResponse(&records[i]))
	}
	return out, total, nil
}

// ListMovements returns ledger lines, newest first
func (s *StockService) ListMovements(ctx context.Context, filter MovementListFilter) ([]StockMovementResponse, int64, error) {
	if err := validateMovementFilter(filter); err != nil {
		return nil, 0, err
	}
	movements, total, err := s.scope.Reader().StockMovements().List(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	out := make([]StockMovementResponse, 0, len(movements))
	for i := range movements {
		out = append(out, ToStockMovementResponse(&movements[i]))
	}
	return out, total, nil
}

// Adjust corrects a balance by a signed delta with a mandatory reason
func (s *StockService) Adjust(ctx context.Context, actor shared.Actor, req AdjustStockRequest) (*StockMovementResponse, error) {
	if err := actor.Require(shared.CapStockAdjust); err != nil {
		return nil, err
	}
	if req.Reason == "" {
		return nil, shared.NewValidationError("Adjustment reason is required")
	}
	if req.Delta.IsZero() {
		return nil, shared.NewValidationError("Adjustment delta cannot be zero")
	}
	p := Posting{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Delta,
		Ref:         inventory.NewReference(inventory.RefStockAdjustment, uuid.New()),
		ActorID:     actor.IDPtr(),
		Notes:       req.Reason,
	}
	return s.post(ctx, "stock adjusted", p, s.ledger.Adjust)
}

// ReportDamage tags available stock as unusable
func (s *StockService) ReportDamage(ctx context.Context, actor shared.Actor, req StockOperationRequest) (*StockMovementResponse, error) {
	return s.damageOperation(ctx, actor, req, "damage reported", s.ledger.ReportDamage)
}

// ReverseDamage returns unusable stock to available
func (s *StockService) ReverseDamage(ctx context.Context, actor shared.Actor, req StockOperationRequest) (*StockMovementResponse, error) {
	return s.damageOperation(ctx, actor, req, "damage reversed", s.ledger.ReverseDamage)
}

// Dispose writes unusable stock off
func (s *StockService) Dispose(ctx context.Context, actor shared.Actor, req StockOperationRequest) (*StockMovementResponse, error) {
	return s.damageOperation(ctx, actor, req, "stock disposed", s.ledger.Dispose)
}

type ledgerOp func(context.Context, uow.Repositories, Posting) (*inventory.StockMovement, error)

func (s *StockService) damageOperation(ctx context.Context, actor shared.Actor, req StockOperationRequest, msg string, op ledgerOp) (*StockMovementResponse, error) {
	if err := actor.Require(shared.CapStockDamage); err != nil {
		return nil, err
	}
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	condition := inventory.StockCondition(req.Condition)
	if condition != "" && !condition.IsValid() {
		return nil, shared.NewValidationError("Unknown stock condition " + req.Condition)
	}
	p := Posting{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Quantity:    req.Quantity,
		Condition:   condition,
		Ref:         inventory.NewReference(inventory.RefDamageReport, uuid.New()),
		ActorID:     actor.IDPtr(),
		Notes:       req.Notes,
	}
	return s.post(ctx, msg, p, op)
}

func (s *StockService) post(ctx context.Context, msg string, p Posting, op ledgerOp) (*StockMovementResponse, error) {
	var movement *inventory.StockMovement
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		m, err := op(ctx, repos, p)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info(msg,
		zap.String("product_id", p.ProductID.String()),
		zap.String("warehouse_id", p.WarehouseID.String()),
		zap.String("movement_type", string(movement.Type)),
		zap.String("quantity", movement.Quantity.String()),
		zap.Int64("sequence", movement.Sequence),
	)
	resp := ToStockMovementResponse(movement)
	return &resp, nil
}

// SetVisibility hides or shows a stock record in listings. Balances and
// reservations are not affected.
func (s *StockService) SetVisibility(ctx context.Context, actor shared.Actor, req SetVisibilityRequest) (*StockRecordResponse, error) {
	if err := actor.Require(shared.CapStockAdjust); err != nil {
		return nil, err
	}
	var rec *inventory.StockRecord
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		r, err := s.ledger.SetVisibility(ctx, repos, req.ProductID, req.WarehouseID, req.Hidden)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockRecordResponse(rec)
	return &resp, nil
}

// Reconcile replays the ledger of one record, or of every record when the
// request names neither product nor warehouse
func (s *StockService) Reconcile(ctx context.Context, actor shared.Actor, req ReconcileRequest) (*ReconcileReport, error) {
	if err := actor.Require(shared.CapStockView); err != nil {
		return nil, err
	}
	if req.ProductID == nil && req.WarehouseID == nil {
		return s.validator.ReconcileAll(ctx)
	}
	if req.ProductID == nil || req.WarehouseID == nil {
		return nil, shared.NewValidationError("Reconcile needs both product_id and warehouse_id, or neither")
	}
	return s.validator.ReconcileRecord(ctx, *req.ProductID, *req.WarehouseID)
}

func validateMovementFilter(f MovementListFilter) error {
	for _, t := range f.Types {
		if !inventory.MovementType(t).IsValid() {
			return shared.NewValidationError("Unknown movement type " + t)
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return shared.NewValidationError("'to' must not be before 'from'")
	}
	if (f.ReferenceID != nil) != (f.ReferenceType != "") {
		return shared.NewValidationError("reference_type and reference_id go together")
	}
	return nil
}

// Available is a convenience for callers that only need the free quantity
func (s *StockService) Available(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error) {
	rec, err := s.scope.Reader().StockRecords().FindByProductAndWarehouse(ctx, productID, warehouseID)
	if err != nil {
		if shared.ErrorCode(err) == shared.CodeNotFound {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return rec.Available(), nil
}
