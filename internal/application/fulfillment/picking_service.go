package fulfillment

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

// PickingService creates picking lists and records picks. Completing the
// list of a sales order hands it over to delivery.
type PickingService struct {
	scope uow.TransactionScope
}

// NewPickingService creates a new PickingService
func NewPickingService(scope uow.TransactionScope) *PickingService {
	return &PickingService{scope: scope}
}

// Get returns a picking list by ID
func (s *PickingService) Get(ctx context.Context, id uuid.UUID) (*PickingListResponse, error) {
	pl, err := s.scope.Reader().PickingLists().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPickingListResponse(pl)
	return &resp, nil
}

// Create opens the picking list of a sales order or of an approved
// transfer. A sales order moves to PROCESSING. Each source has at most one
// list that is not cancelled.
func (s *PickingService) Create(ctx context.Context, actor shared.Actor, req CreatePickingListRequest) (*PickingListResponse, error) {
	if err := actor.Require(shared.CapPickingManage); err != nil {
		return nil, err
	}
	if (req.SalesOrderID == nil) == (req.WarehouseTransferID == nil) {
		return nil, shared.NewValidationError("Exactly one of sales_order_id and warehouse_transfer_id is required")
	}

	var pl *fulfillment.PickingList
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		number, err := repos.PickingLists().NextNumber(ctx)
		if err != nil {
			return err
		}

		if req.SalesOrderID != nil {
			order, err := repos.SalesOrders().FindByIDForUpdate(ctx, *req.SalesOrderID)
			if err != nil {
				return asReferenceError(err, "sales order", *req.SalesOrderID)
			}
			if err := ensureNoActiveList(ctx, repos, fulfillment.SourceSalesOrder, order.ID); err != nil {
				return err
			}
			pl, err = fulfillment.NewPickingListForSalesOrder(number, order)
			if err != nil {
				return err
			}
			if err := order.StartProcessing(); err != nil {
				return err
			}
			if err := repos.SalesOrders().Save(ctx, order); err != nil {
				return err
			}
			return repos.PickingLists().Save(ctx, pl)
		}

		transfer, err := repos.Transfers().FindByIDForUpdate(ctx, *req.WarehouseTransferID)
		if err != nil {
			return asReferenceError(err, "warehouse transfer", *req.WarehouseTransferID)
		}
		if err := ensureNoActiveList(ctx, repos, fulfillment.SourceWarehouseTransfer, transfer.ID); err != nil {
			return err
		}
		pl, err = fulfillment.NewPickingListForTransfer(number, transfer)
		if err != nil {
			return err
		}
		return repos.PickingLists().Save(ctx, pl)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("picking list created",
		zap.String("picking_list_id", pl.ID.String()),
		zap.String("source_type", string(pl.SourceType)),
		zap.String("source_id", pl.SourceID.String()),
	)
	resp := ToPickingListResponse(pl)
	return &resp, nil
}

func ensureNoActiveList(ctx context.Context, repos uow.Repositories, sourceType fulfillment.SourceType, sourceID uuid.UUID) error {
	existing, err := repos.PickingLists().FindActiveBySource(ctx, sourceType, sourceID)
	if err == nil {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Source document already has a picking list").
			WithDetails(map[string]any{"picking_list_id": existing.ID})
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}

// RecordPick accrues qty on a picking list line. When the pick completes a
// sales order list, the order becomes READY_TO_SHIP and a PREPARING
// delivery order is created in the same transaction. Transfer lists only
// accept picks while the transfer is APPROVED.
func (s *PickingService) RecordPick(ctx context.Context, actor shared.Actor, itemID uuid.UUID, qty decimal.Decimal) (*PickingListResponse, error) {
	if err := actor.Require(shared.CapPickingManage); err != nil {
		return nil, err
	}

	var (
		pl         *fulfillment.PickingList
		deliveryID *uuid.UUID
	)
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		deliveryID = nil
		var err error
		pl, err = repos.PickingLists().FindByItemIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if pl.SourceType == fulfillment.SourceWarehouseTransfer {
			transfer, err := repos.Transfers().FindByID(ctx, pl.SourceID)
			if err != nil {
				return err
			}
			if transfer.Status != inventory.TransferStatusApproved {
				return shared.NewInvalidTransitionError("warehouse transfer", transfer.Status, inventory.TransferStatusInTransit)
			}
		}
		completed, err := pl.RecordPick(itemID, qty)
		if err != nil {
			return err
		}
		if err := repos.PickingLists().Save(ctx, pl); err != nil {
			return err
		}
		if !completed || pl.SourceType != fulfillment.SourceSalesOrder {
			return nil
		}

		order, err := repos.SalesOrders().FindByIDForUpdate(ctx, pl.SourceID)
		if err != nil {
			return err
		}
		if err := order.MarkReadyToShip(); err != nil {
			return err
		}
		number, err := repos.DeliveryOrders().NextNumber(ctx)
		if err != nil {
			return err
		}
		do, err := fulfillment.NewSalesDeliveryOrder(number, pl, order.CustomerID)
		if err != nil {
			return err
		}
		if err := repos.SalesOrders().Save(ctx, order); err != nil {
			return err
		}
		if err := repos.DeliveryOrders().Save(ctx, do); err != nil {
			return err
		}
		deliveryID = &do.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.L(ctx).With(
		zap.String("picking_list_id", pl.ID.String()),
		zap.String("item_id", itemID.String()),
	)
	log.Debug("pick recorded", zap.String("quantity", qty.String()))
	if deliveryID != nil {
		log.Info("picking completed, delivery order created", zap.String("delivery_order_id", deliveryID.String()))
	}
	resp := ToPickingListResponse(pl)
	resp.DeliveryOrderID = deliveryID
	return &resp, nil
}

func asReferenceError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewReferenceNotFoundError(entity, id)
	}
	return err
}
