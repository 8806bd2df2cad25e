package trade

import (
	"context"
	"errors"

	inventoryapp "github.com/erp/stockledger/internal/application/inventory"
	"github.com/erp/stockledger/internal/application/uow"
	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/erp/stockledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SalesOrderService reads sales orders and cancels them
type SalesOrderService struct {
	scope  uow.TransactionScope
	ledger *inventoryapp.StockLedger
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(scope uow.TransactionScope, ledger *inventoryapp.StockLedger) *SalesOrderService {
	return &SalesOrderService{scope: scope, ledger: ledger}
}

// Get returns a sales order by ID
func (s *SalesOrderService) Get(ctx context.Context, id uuid.UUID) (*SalesOrderResponse, error) {
	o, err := s.scope.Reader().SalesOrders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSalesOrderResponse(o)
	return &resp, nil
}

// List returns sales orders matching the filter
func (s *SalesOrderService) List(ctx context.Context, filter SalesOrderListFilter) ([]SalesOrderResponse, int64, error) {
	status := trade.OrderStatus(filter.Status)
	if status != "" && !status.IsValid() {
		return nil, 0, shared.NewValidationError("Unknown sales order status " + filter.Status)
	}
	orders, total, err := s.scope.Reader().SalesOrders().List(ctx, trade.SalesOrderFilter{
		Status:     status,
		CustomerID: filter.CustomerID,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]SalesOrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToSalesOrderResponse(&orders[i]))
	}
	return out, total, nil
}

// Cancel cancels an order that has not shipped. Every outstanding
// reservation of the order is released, an open picking list and any
// delivery that has not shipped are cancelled in the same transaction. A
// completed picking list is left as is.
func (s *SalesOrderService) Cancel(ctx context.Context, actor shared.Actor, id uuid.UUID, req CancelSalesOrderRequest) (*SalesOrderResponse, error) {
	if err := actor.Require(shared.CapSalesOrderManage); err != nil {
		return nil, err
	}

	var (
		order    *trade.SalesOrder
		released string
	)
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		var err error
		order, err = repos.SalesOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Cancel(req.Reason); err != nil {
			return err
		}

		total, err := s.ledger.ReleaseAll(ctx, repos, inventory.NewReference(inventory.RefSalesOrder, order.ID), actor.IDPtr(), "sales order cancelled: "+req.Reason)
		if err != nil {
			return err
		}
		released = total.String()

		pl, err := repos.PickingLists().FindActiveBySource(ctx, fulfillment.SourceSalesOrder, order.ID)
		switch {
		case err == nil && pl.Status == fulfillment.PickingStatusCompleted:
		case err == nil:
			if err := pl.Cancel(req.Reason); err != nil {
				return err
			}
			if err := repos.PickingLists().Save(ctx, pl); err != nil {
				return err
			}
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		deliveries, err := repos.DeliveryOrders().FindBySource(ctx, fulfillment.SourceSalesOrder, order.ID)
		if err != nil {
			return err
		}
		for i := range deliveries {
			do := &deliveries[i]
			if !do.IsOpen() {
				continue
			}
			if err := do.Cancel(req.Reason); err != nil {
				return err
			}
			if err := repos.DeliveryOrders().Save(ctx, do); err != nil {
				return err
			}
		}
		return repos.SalesOrders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("sales order cancelled",
		zap.String("sales_order_id", order.ID.String()),
		zap.String("released_quantity", released),
		zap.String("reason", req.Reason),
	)
	resp := ToSalesOrderResponse(order)
	return &resp, nil
}

// Complete marks a shipped order as completed. It is a no-op on a completed
// order so redelivered events do not fail.
func (s *SalesOrderService) Complete(ctx context.Context, id uuid.UUID) error {
	var changed bool
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		order, err := repos.SalesOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		changed = order.Status != trade.OrderStatusCompleted
		if !changed {
			return nil
		}
		if err := order.Complete(); err != nil {
			return err
		}
		return repos.SalesOrders().Save(ctx, order)
	})
	if err != nil {
		return err
	}
	if changed {
		logger.L(ctx).Info("sales order completed", zap.String("sales_order_id", id.String()))
	}
	return nil
}

func asReferenceError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewReferenceNotFoundError(entity, id)
	}
	return err
}
