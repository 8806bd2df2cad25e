package inventory

import (
	"context"
	"errors"

	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferService runs the warehouse transfer workflow
type TransferService struct {
	scope  uow.TransactionScope
	ledger *StockLedger
}

// NewTransferService creates a new TransferService
func NewTransferService(scope uow.TransactionScope, ledger *StockLedger) *TransferService {
	return &TransferService{scope: scope, ledger: ledger}
}

// Get returns a transfer by ID
func (s *TransferService) Get(ctx context.Context, id uuid.UUID) (*TransferResponse, error) {
	t, err := s.scope.Reader().Transfers().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToTransferResponse(t)
	return &resp, nil
}

// List returns transfers matching the filter
func (s *TransferService) List(ctx context.Context, filter TransferListFilter) ([]TransferResponse, int64, error) {
	status := inventory.TransferStatus(filter.Status)
	if status != "" && !status.IsValid() {
		return nil, 0, shared.NewValidationError("Unknown transfer status " + filter.Status)
	}
	transfers, total, err := s.scope.Reader().Transfers().List(ctx, inventory.TransferFilter{
		Status:      status,
		ProductID:   filter.ProductID,
		WarehouseID: filter.WarehouseID,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]TransferResponse, 0, len(transfers))
	for i := range transfers {
		out = append(out, ToTransferResponse(&transfers[i]))
	}
	return out, total, nil
}

// Request opens a transfer. Nothing is reserved yet.
func (s *TransferService) Request(ctx context.Context, actor shared.Actor, req RequestTransferRequest) (*TransferResponse, error) {
	if err := actor.Require(shared.CapTransferRequest); err != nil {
		return nil, err
	}
	t, err := inventory.NewWarehouseTransfer(req.ProductID, req.FromWarehouseID, req.ToWarehouseID, req.Quantity, actor.IDPtr(), req.Notes)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		if err := checkReferences(ctx, repos, t.ProductID, t.FromWarehouseID, t.ToWarehouseID); err != nil {
			return err
		}
		return repos.Transfers().Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("warehouse transfer requested",
		zap.String("transfer_id", t.ID.String()),
		zap.String("quantity", t.QuantityRequested.String()),
	)
	resp := ToTransferResponse(t)
	return &resp, nil
}

// Approve reserves the requested quantity at the source warehouse
func (s *TransferService) Approve(ctx context.Context, actor shared.Actor, id uuid.UUID) (*TransferResponse, error) {
	if err := actor.Require(shared.CapTransferApprove); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "warehouse transfer approved", func(ctx context.Context, repos uow.Repositories, t *inventory.WarehouseTransfer) error {
		if err := t.Approve(actor.IDPtr()); err != nil {
			return err
		}
		_, err := s.ledger.Reserve(ctx, repos, Posting{
			ProductID:   t.ProductID,
			WarehouseID: t.FromWarehouseID,
			Quantity:    t.QuantityRequested,
			Ref:         t.Reference(),
			ActorID:     actor.IDPtr(),
		})
		return err
	})
}

// Deliver ships qty from the source warehouse. An unapproved transfer
// reserves qty on the spot; an approved one gives back the unshipped part of
// its reservation. A SHIPPED delivery order records the shipment and an
// unfinished picking list is closed short.
func (s *TransferService) Deliver(ctx context.Context, actor shared.Actor, id uuid.UUID, qty decimal.Decimal) (*TransferResponse, error) {
	if err := actor.Require(shared.CapTransferExecute); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "warehouse transfer delivered", func(ctx context.Context, repos uow.Repositories, t *inventory.WarehouseTransfer) error {
		wasReserved := t.Reserved
		posting := Posting{
			ProductID:   t.ProductID,
			WarehouseID: t.FromWarehouseID,
			Quantity:    qty,
			Ref:         t.Reference(),
			ActorID:     actor.IDPtr(),
		}

		number, err := repos.DeliveryOrders().NextNumber(ctx)
		if err != nil {
			return err
		}
		var pickingListID *uuid.UUID
		pl, err := repos.PickingLists().FindActiveBySource(ctx, fulfillment.SourceWarehouseTransfer, t.ID)
		switch {
		case err == nil:
			pickingListID = &pl.ID
			if pl.Status != fulfillment.PickingStatusCompleted {
				if err := pl.CloseShort(); err != nil {
					return err
				}
				if err := repos.PickingLists().Save(ctx, pl); err != nil {
					return err
				}
			}
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		do, err := fulfillment.NewTransferDeliveryOrder(number, t, qty, pickingListID)
		if err != nil {
			return err
		}
		excess, err := t.Deliver(qty, do.ID)
		if err != nil {
			return err
		}

		if !wasReserved {
			if _, err := s.ledger.Reserve(ctx, repos, posting); err != nil {
				return err
			}
		} else if excess.IsPositive() {
			release := posting
			release.Quantity = excess
			release.Notes = "unshipped transfer quantity"
			if _, err := s.ledger.Release(ctx, repos, release); err != nil {
				return err
			}
		}
		if _, err := s.ledger.TransferOut(ctx, repos, posting); err != nil {
			return err
		}
		return repos.DeliveryOrders().Save(ctx, do)
	})
}

// Receive books qty at the destination and closes the delivery order. Any
// delivered quantity not received is recorded as in-transit loss.
func (s *TransferService) Receive(ctx context.Context, actor shared.Actor, id uuid.UUID, qty decimal.Decimal) (*TransferResponse, error) {
	if err := actor.Require(shared.CapTransferExecute); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "warehouse transfer received", func(ctx context.Context, repos uow.Repositories, t *inventory.WarehouseTransfer) error {
		if err := t.Receive(qty); err != nil {
			return err
		}
		p := Posting{
			ProductID:   t.ProductID,
			WarehouseID: t.ToWarehouseID,
			Quantity:    qty,
			Ref:         t.Reference(),
			ActorID:     actor.IDPtr(),
		}
		if loss := t.InTransitLoss(); loss.IsPositive() {
			p.Notes = "in-transit loss " + loss.String()
		}
		if _, err := s.ledger.TransferIn(ctx, repos, p); err != nil {
			return err
		}
		if t.DeliveryOrderID == nil {
			return nil
		}
		do, err := repos.DeliveryOrders().FindByIDForUpdate(ctx, *t.DeliveryOrderID)
		if err != nil {
			return err
		}
		if err := do.MarkDelivered(); err != nil {
			return err
		}
		return repos.DeliveryOrders().Save(ctx, do)
	})
}

// Cancel cancels a transfer that has not left the source, releases its
// reservation and abandons any picking still in progress
func (s *TransferService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID, reason string) (*TransferResponse, error) {
	if err := actor.Require(shared.CapTransferApprove); err != nil {
		return nil, err
	}
	return s.update(ctx, id, "warehouse transfer cancelled", func(ctx context.Context, repos uow.Repositories, t *inventory.WarehouseTransfer) error {
		hadReservation, err := t.Cancel(reason)
		if err != nil {
			return err
		}
		pl, err := repos.PickingLists().FindActiveBySource(ctx, fulfillment.SourceWarehouseTransfer, t.ID)
		switch {
		case err == nil && pl.Status == fulfillment.PickingStatusCompleted:
		case err == nil:
			if err := pl.Cancel(reason); err != nil {
				return err
			}
			if err := repos.PickingLists().Save(ctx, pl); err != nil {
				return err
			}
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		if !hadReservation {
			return nil
		}
		_, err = s.ledger.ReleaseAll(ctx, repos, t.Reference(), actor.IDPtr(), reason)
		return err
	})
}

func (s *TransferService) update(ctx context.Context, id uuid.UUID, msg string, fn func(context.Context, uow.Repositories, *inventory.WarehouseTransfer) error) (*TransferResponse, error) {
	var transfer *inventory.WarehouseTransfer
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		t, err := repos.Transfers().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, t); err != nil {
			return err
		}
		transfer = t
		return repos.Transfers().Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info(msg,
		zap.String("transfer_id", transfer.ID.String()),
		zap.String("status", string(transfer.Status)),
	)
	resp := ToTransferResponse(transfer)
	return &resp, nil
}
