package inventory

import (
	"context"
	"errors"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Posting describes one stock operation
type Posting struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    decimal.Decimal
	Condition   inventory.StockCondition
	Ref         inventory.Reference
	ActorID     *uuid.UUID
	Notes       string
}

// StockLedger applies stock operations inside the caller's unit of work.
// Each operation locks the stock record, applies one movement, saves the
// record together with its ledger line and verifies the result before the
// transaction commits.
type StockLedger struct {
	validate bool
	metrics  LedgerMetrics
}

// LedgerOption configures a StockLedger
type LedgerOption func(*StockLedger)

// WithInvariantValidation enables the full ledger replay after every write
func WithInvariantValidation(enabled bool) LedgerOption {
	return func(l *StockLedger) {
		l.validate = enabled
	}
}

// WithLedgerMetrics sets the metrics sink
func WithLedgerMetrics(m LedgerMetrics) LedgerOption {
	return func(l *StockLedger) {
		if m != nil {
			l.metrics = m
		}
	}
}

// NewStockLedger creates a ledger with replay validation on
func NewStockLedger(opts ...LedgerOption) *StockLedger {
	l := &StockLedger{validate: true, metrics: nopMetrics{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reserve holds qty for the referenced document. A reservation that already
// exists for (ref, product) is returned as is and nothing is recorded.
func (l *StockLedger) Reserve(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.Reservation, error) {
	rec, err := l.lock(ctx, repos, p, false)
	if err != nil {
		return nil, err
	}
	existing, err := repos.Reservations().FindByKey(ctx, p.Ref, p.ProductID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	reservation, err := inventory.NewReservation(p.Ref, p.ProductID, p.WarehouseID, p.Quantity)
	if err != nil {
		return nil, err
	}
	if _, err := l.apply(ctx, repos, rec, p, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.Reserve(p.Quantity, p.Ref)
	}); err != nil {
		return nil, err
	}
	if err := repos.Reservations().Save(ctx, reservation); err != nil {
		return nil, err
	}
	return reservation, nil
}

// Release gives back up to p.Quantity of the reservation held for
// (p.Ref, p.ProductID); zero releases everything outstanding. It returns the
// quantity released, zero when the reservation was already settled.
func (l *StockLedger) Release(ctx context.Context, repos uow.Repositories, p Posting) (decimal.Decimal, error) {
	reservation, err := repos.Reservations().FindByKey(ctx, p.Ref, p.ProductID)
	if err != nil {
		return decimal.Zero, err
	}
	return l.release(ctx, repos, reservation, p)
}

// ReleaseAll releases every outstanding reservation of a document
func (l *StockLedger) ReleaseAll(ctx context.Context, repos uow.Repositories, ref inventory.Reference, actorID *uuid.UUID, notes string) (decimal.Decimal, error) {
	reservations, err := repos.Reservations().FindByReference(ctx, ref)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range reservations {
		released, err := l.release(ctx, repos, &reservations[i], Posting{
			ProductID: reservations[i].ProductID,
			Ref:       ref,
			ActorID:   actorID,
			Notes:     notes,
		})
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(released)
	}
	return total, nil
}

func (l *StockLedger) release(ctx context.Context, repos uow.Repositories, reservation *inventory.Reservation, p Posting) (decimal.Decimal, error) {
	if !reservation.IsActive() {
		return decimal.Zero, nil
	}
	p.WarehouseID = reservation.WarehouseID
	rec, err := l.lock(ctx, repos, p, false)
	if err != nil {
		return decimal.Zero, err
	}
	released := reservation.Release(p.Quantity)
	if released.IsZero() {
		return decimal.Zero, nil
	}
	if _, err := l.apply(ctx, repos, rec, p, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.Release(released, p.Ref)
	}); err != nil {
		return decimal.Zero, err
	}
	if err := repos.Reservations().Save(ctx, reservation); err != nil {
		return decimal.Zero, err
	}
	return released, nil
}

// CommitShipment consumes reserved stock that left the warehouse for a customer
func (l *StockLedger) CommitShipment(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.StockMovement, error) {
	return l.consume(ctx, repos, p, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.CommitShipment(p.Quantity, p.Ref)
	})
}

// TransferOut consumes reserved stock that left for another warehouse
func (l *StockLedger) TransferOut(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.StockMovement, error) {
	return l.consume(ctx, repos, p, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.TransferOut(p.Quantity, p.Ref)
	})
}

func (l *StockLedger) consume(ctx context.Context, repos uow.Repositories, p Posting, op func(*inventory.StockRecord) (*inventory.StockMovement, error)) (*inventory.StockMovement, error) {
	reservation, err := repos.Reservations().FindByKey(ctx, p.Ref, p.ProductID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewReferenceNotFoundError("reservation", p.Ref.ID)
		}
		return nil, err
	}
	p.WarehouseID = reservation.WarehouseID
	rec, err := l.lock(ctx, repos, p, false)
	if err != nil {
		return nil, err
	}
	if err := reservation.Consume(p.Quantity); err != nil {
		return nil, err
	}
	m, err := l.apply(ctx, repos, rec, p, op)
	if err != nil {
		return nil, err
	}
	if err := repos.Reservations().Save(ctx, reservation); err != nil {
		return nil, err
	}
	return m, nil
}

// Receive books incoming goods tagged with their condition
func (l *StockLedger) Receive(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.StockMovement, error) {
	return l.post(ctx, repos, p, true, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.Receive(p.Quantity, p.Condition, p.Ref)
	})
}

// TransferIn books stock arriving from another warehouse
func (l *StockLedger) TransferIn(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.StockMovement, error) {
	return l.post(ctx, repos, p, true, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.TransferIn(p.Quantity, p.Ref)
	})
}

// ReturnIn books a customer return; damaged goods arrive as unusable stock
func (l *StockLedger) ReturnIn(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.StockMovement, error) {
	return l.post(ctx, repos, p, true, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.ReturnIn(p.Quantity, p.Condition, p.Ref)
	})
}

// ReportDamage moves available stock to unusable
func (l *StockLedger) ReportDamage(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.StockMovement, error) {
	return l.post(ctx, repos, p, false, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.ReportDamage(p.Quantity, p.Condition, p.Ref)
	})
}

// ReverseDamage moves unusable stock back to available
func (l *StockLedger) ReverseDamage(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.StockMovement, error) {
	return l.post(ctx, repos, p, false, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.ReverseDamage(p.Quantity, p.Ref)
	})
}

// Dispose writes unusable stock off
func (l *StockLedger) Dispose(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.StockMovement, error) {
	return l.post(ctx, repos, p, false, func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.Dispose(p.Quantity, p.Ref)
	})
}

// Adjust applies the signed p.Quantity as a correction
func (l *StockLedger) Adjust(ctx context.Context, repos uow.Repositories, p Posting) (*inventory.StockMovement, error) {
	return l.post(ctx, repos, p, p.Quantity.IsPositive(), func(r *inventory.StockRecord) (*inventory.StockMovement, error) {
		return r.Adjust(p.Quantity, p.Ref)
	})
}

// SetVisibility toggles the display flag of an existing record
func (l *StockLedger) SetVisibility(ctx context.Context, repos uow.Repositories, productID, warehouseID uuid.UUID, hidden bool) (*inventory.StockRecord, error) {
	rec, err := repos.StockRecords().FindForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	rec.SetHidden(hidden)
	if err := repos.StockRecords().Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (l *StockLedger) post(ctx context.Context, repos uow.Repositories, p Posting, create bool, op func(*inventory.StockRecord) (*inventory.StockMovement, error)) (*inventory.StockMovement, error) {
	rec, err := l.lock(ctx, repos, p, create)
	if err != nil {
		return nil, err
	}
	return l.apply(ctx, repos, rec, p, op)
}

// lock returns the row-locked record. A missing record is created when
// create is set and otherwise reported as a shortfall against zero stock.
// Unknown products and warehouses are REFERENCE_NOT_FOUND.
func (l *StockLedger) lock(ctx context.Context, repos uow.Repositories, p Posting, create bool) (*inventory.StockRecord, error) {
	rec, err := repos.StockRecords().FindForUpdate(ctx, p.ProductID, p.WarehouseID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err := checkReferences(ctx, repos, p.ProductID, p.WarehouseID); err != nil {
		return nil, err
	}
	if !create {
		return nil, shared.NewInsufficientStockError(
			shared.NewStockShortfall(p.ProductID, p.WarehouseID, p.Quantity.Abs(), decimal.Zero))
	}
	return repos.StockRecords().GetOrCreateForUpdate(ctx, p.ProductID, p.WarehouseID)
}

// checkReferences reports unknown products and warehouses as
// REFERENCE_NOT_FOUND
func checkReferences(ctx context.Context, repos uow.Repositories, productID uuid.UUID, warehouseIDs ...uuid.UUID) error {
	if _, err := repos.Products().FindByID(ctx, productID); err != nil {
		return asReferenceError(err, "product", productID)
	}
	for _, id := range warehouseIDs {
		if _, err := repos.Warehouses().FindByID(ctx, id); err != nil {
			return asReferenceError(err, "warehouse", id)
		}
	}
	return nil
}

func asReferenceError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewReferenceNotFoundError(entity, id)
	}
	return err
}

func (l *StockLedger) apply(ctx context.Context, repos uow.Repositories, rec *inventory.StockRecord, p Posting, op func(*inventory.StockRecord) (*inventory.StockMovement, error)) (*inventory.StockMovement, error) {
	m, err := op(rec)
	if err != nil {
		return nil, err
	}
	m.ActorID = p.ActorID
	m.Notes = p.Notes
	if err := repos.StockRecords().Save(ctx, rec); err != nil {
		return nil, err
	}
	if err := l.verify(ctx, repos, rec); err != nil {
		return nil, err
	}
	l.metrics.MovementApplied(ctx, m)
	return m, nil
}

// verify is the post-condition of every write. The cheap balance check
// always runs; the ledger replay runs when validation is enabled.
func (l *StockLedger) verify(ctx context.Context, repos uow.Repositories, rec *inventory.StockRecord) error {
	err := inventory.CheckInvariants(rec)
	if err == nil && l.validate {
		movements, ferr := repos.StockMovements().FindByRecord(ctx, rec.ProductID, rec.WarehouseID)
		if ferr != nil {
			return ferr
		}
		err = inventory.Reconcile(rec, movements)
	}
	if err != nil {
		logger.L(ctx).Error("stock ledger invariant violated",
			zap.String("product_id", rec.ProductID.String()),
			zap.String("warehouse_id", rec.WarehouseID.String()),
			zap.Int64("last_sequence", rec.LastSequence),
			zap.Error(err),
		)
		l.metrics.InvariantViolated(ctx, rec)
		return err
	}
	return nil
}
