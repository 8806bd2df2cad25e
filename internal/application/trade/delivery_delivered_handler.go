package trade

import (
	"context"
	"fmt"

	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/shared"
	"go.uber.org/zap"
)

// DeliveryDeliveredHandler completes the sales order behind a delivered
// delivery order. Transfer deliveries are ignored.
type DeliveryDeliveredHandler struct {
	orders *SalesOrderService
	logger *zap.Logger
}

// NewDeliveryDeliveredHandler creates a new handler for delivered delivery orders
func NewDeliveryDeliveredHandler(orders *SalesOrderService, logger *zap.Logger) *DeliveryDeliveredHandler {
	return &DeliveryDeliveredHandler{orders: orders, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *DeliveryDeliveredHandler) EventTypes() []string {
	return []string{fulfillment.EventTypeDeliveryOrderDelivered}
}

// Handle completes the order. Completing a completed order is a no-op, so
// redelivery is harmless.
func (h *DeliveryDeliveredHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	delivered, ok := event.(*fulfillment.DeliveryOrderEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			fulfillment.EventTypeDeliveryOrderDelivered, event.EventType())
	}
	if delivered.SourceType != fulfillment.SourceSalesOrder {
		return nil
	}

	if err := h.orders.Complete(ctx, delivered.SourceID); err != nil {
		h.logger.Error("failed to complete sales order after delivery",
			zap.String("delivery_order_id", delivered.DeliveryOrderID.String()),
			zap.String("sales_order_id", delivered.SourceID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("complete sales order %s: %w", delivered.SourceID, err)
	}
	return nil
}

var _ shared.EventHandler = (*DeliveryDeliveredHandler)(nil)
