package fulfillment

import (
	"context"

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

// DeliveryService moves delivery orders through shipping. Shipping a sales
// delivery consumes the order's reservations.
type DeliveryService struct {
	scope  uow.TransactionScope
	ledger *inventoryapp.StockLedger
}

// NewDeliveryService creates a new DeliveryService
func NewDeliveryService(scope uow.TransactionScope, ledger *inventoryapp.StockLedger) *DeliveryService {
	return &DeliveryService{scope: scope, ledger: ledger}
}

// Get returns a delivery order by ID
func (s *DeliveryService) Get(ctx context.Context, id uuid.UUID) (*DeliveryOrderResponse, error) {
	do, err := s.scope.Reader().DeliveryOrders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToDeliveryOrderResponse(do)
	return &resp, nil
}

// ListBySource returns the delivery orders of a sales order or transfer
func (s *DeliveryService) ListBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]DeliveryOrderResponse, error) {
	st := fulfillment.SourceType(sourceType)
	if !st.IsValid() {
		return nil, shared.NewValidationError("Unknown source type " + sourceType)
	}
	orders, err := s.scope.Reader().DeliveryOrders().FindBySource(ctx, st, sourceID)
	if err != nil {
		return nil, err
	}
	out := make([]DeliveryOrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToDeliveryOrderResponse(&orders[i]))
	}
	return out, nil
}

// UpdateStatus moves a sales delivery one step: READY_TO_SHIP attaches the
// shipping details, SHIPPED commits the shipment of every line against the
// order's reservations and marks the order SHIPPED, DELIVERED closes it.
// Transfer deliveries are closed by receiving the transfer. Deliveries of a
// cancelled order are rejected.
func (s *DeliveryService) UpdateStatus(ctx context.Context, actor shared.Actor, id uuid.UUID, req UpdateDeliveryStatusRequest) (*DeliveryOrderResponse, error) {
	if err := actor.Require(shared.CapDeliveryManage); err != nil {
		return nil, err
	}
	target := fulfillment.DeliveryStatus(req.Status)
	if !target.IsValid() {
		return nil, shared.NewValidationError("Unknown delivery status " + req.Status)
	}

	var do *fulfillment.DeliveryOrder
	err := s.scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) error {
		current, err := repos.DeliveryOrders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if current.SourceType != fulfillment.SourceSalesOrder {
			return shared.NewValidationError("Transfer deliveries are updated through the transfer")
		}
		// order before delivery, the same lock order as cancellation
		order, err := repos.SalesOrders().FindByIDForUpdate(ctx, current.SourceID)
		if err != nil {
			return err
		}
		do, err = repos.DeliveryOrders().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == trade.OrderStatusCancelled {
			return shared.NewInvalidTransitionError("sales order", order.Status, target)
		}

		switch target {
		case fulfillment.DeliveryStatusReadyToShip:
			err = do.MarkReadyToShip(fulfillment.ShippingInfo{
				Carrier:          req.Carrier,
				TrackingNumber:   req.TrackingNumber,
				VehicleNumber:    req.VehicleNumber,
				EstimatedArrival: req.EstimatedArrival,
			})
		case fulfillment.DeliveryStatusShipped:
			err = s.ship(ctx, repos, actor, do, order)
		case fulfillment.DeliveryStatusDelivered:
			err = do.MarkDelivered()
		default:
			err = shared.NewInvalidTransitionError("delivery order", do.Status, target)
		}
		if err != nil {
			return err
		}
		return repos.DeliveryOrders().Save(ctx, do)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("delivery order status updated",
		zap.String("delivery_order_id", do.ID.String()),
		zap.String("status", string(do.Status)),
	)
	resp := ToDeliveryOrderResponse(do)
	return &resp, nil
}

func (s *DeliveryService) ship(ctx context.Context, repos uow.Repositories, actor shared.Actor, do *fulfillment.DeliveryOrder, order *trade.SalesOrder) error {
	if err := do.MarkShipped(); err != nil {
		return err
	}
	ref := inventory.NewReference(inventory.RefSalesOrder, order.ID)
	for _, item := range do.Items {
		if _, err := s.ledger.CommitShipment(ctx, repos, inventoryapp.Posting{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Ref:       ref,
			ActorID:   actor.IDPtr(),
			Notes:     do.DeliveryNumber,
		}); err != nil {
			return err
		}
		if err := order.RecordShipment(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	if err := order.MarkShipped(); err != nil {
		return err
	}
	return repos.SalesOrders().Save(ctx, order)
}
