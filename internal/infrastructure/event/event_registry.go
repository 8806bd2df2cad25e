package event

import (
	"github.com/erp/stockledger/internal/domain/finance"
	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/trade"
)

// RegisterAllEvents registers every domain event type with the serializer.
// The outbox processor cannot deserialize unregistered types.
func RegisterAllEvents(serializer *EventSerializer) {
	// Inventory
	serializer.Register(inventory.EventTypeStockMovementRecorded, &inventory.StockMovementRecordedEvent{})
	serializer.Register(inventory.EventTypeStockVisibilityChanged, &inventory.StockVisibilityChangedEvent{})
	for _, t := range []string{
		inventory.EventTypeTransferRequested,
		inventory.EventTypeTransferApproved,
		inventory.EventTypeTransferDelivered,
		inventory.EventTypeTransferReceived,
		inventory.EventTypeTransferCancelled,
	} {
		serializer.Register(t, &inventory.WarehouseTransferEvent{})
	}

	// Trade
	for _, t := range []string{
		trade.EventTypeQuotationCreated,
		trade.EventTypeQuotationSubmitted,
		trade.EventTypeQuotationApproved,
		trade.EventTypeQuotationRejected,
		trade.EventTypeQuotationConverted,
	} {
		serializer.Register(t, &trade.QuotationEvent{})
	}
	for _, t := range []string{
		trade.EventTypeSalesOrderCreated,
		trade.EventTypeSalesOrderProcessing,
		trade.EventTypeSalesOrderReadyToShip,
		trade.EventTypeSalesOrderShipped,
		trade.EventTypeSalesOrderCompleted,
		trade.EventTypeSalesOrderCancelled,
	} {
		serializer.Register(t, &trade.SalesOrderEvent{})
	}
	for _, t := range []string{
		trade.EventTypeSalesReturnCreated,
		trade.EventTypeSalesReturnApproved,
		trade.EventTypeSalesReturnRejected,
		trade.EventTypeSalesReturnCompleted,
	} {
		serializer.Register(t, &trade.SalesReturnEvent{})
	}
	serializer.Register(trade.EventTypeGoodsReceived, &trade.GoodsReceivedEvent{})

	// Fulfillment
	serializer.Register(fulfillment.EventTypePickingListCreated, &fulfillment.PickingListEvent{})
	serializer.Register(fulfillment.EventTypePickingListCompleted, &fulfillment.PickingListEvent{})
	for _, t := range []string{
		fulfillment.EventTypeDeliveryOrderCreated,
		fulfillment.EventTypeDeliveryOrderReadyToShip,
		fulfillment.EventTypeDeliveryOrderShipped,
		fulfillment.EventTypeDeliveryOrderDelivered,
		fulfillment.EventTypeDeliveryOrderCancelled,
	} {
		serializer.Register(t, &fulfillment.DeliveryOrderEvent{})
	}

	// Finance
	for _, t := range []string{
		finance.EventTypeInvoiceCreated,
		finance.EventTypeInvoicePaymentRecorded,
		finance.EventTypeInvoicePaid,
		finance.EventTypeInvoiceOverdue,
	} {
		serializer.Register(t, &finance.InvoiceEvent{})
	}
	for _, t := range []string{
		finance.EventTypeCreditNoteDrafted,
		finance.EventTypeCreditNoteIssued,
		finance.EventTypeCreditNoteApplied,
		finance.EventTypeCreditNoteVoided,
	} {
		serializer.Register(t, &finance.CreditNoteEvent{})
	}
	serializer.Register(finance.EventTypeFinanceTransactionRecorded, &finance.FinanceTransactionRecordedEvent{})
}
