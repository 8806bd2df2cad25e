package trade

import (
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeQuotation    = "Quotation"
	AggregateTypeSalesOrder   = "SalesOrder"
	AggregateTypeSalesReturn  = "SalesReturn"
	AggregateTypeGoodsReceipt = "GoodsReceipt"
)

// Event type constants
const (
	EventTypeQuotationCreated   = "QuotationCreated"
	EventTypeQuotationSubmitted = "QuotationSubmitted"
	EventTypeQuotationApproved  = "QuotationApproved"
	EventTypeQuotationRejected  = "QuotationRejected"
	EventTypeQuotationConverted = "QuotationConverted"

	EventTypeSalesOrderCreated     = "SalesOrderCreated"
	EventTypeSalesOrderProcessing  = "SalesOrderProcessing"
	EventTypeSalesOrderReadyToShip = "SalesOrderReadyToShip"
	EventTypeSalesOrderShipped     = "SalesOrderShipped"
	EventTypeSalesOrderCompleted   = "SalesOrderCompleted"
	EventTypeSalesOrderCancelled   = "SalesOrderCancelled"

	EventTypeSalesReturnCreated   = "SalesReturnCreated"
	EventTypeSalesReturnApproved  = "SalesReturnApproved"
	EventTypeSalesReturnRejected  = "SalesReturnRejected"
	EventTypeSalesReturnCompleted = "SalesReturnCompleted"

	EventTypeGoodsReceived = "GoodsReceived"
)

// QuotationEvent is raised on quotation transitions
type QuotationEvent struct {
	shared.BaseDomainEvent
	QuotationID     uuid.UUID       `json:"quotation_id"`
	QuotationNumber string          `json:"quotation_number"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	Status          QuotationStatus `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	SalesOrderID    *uuid.UUID      `json:"sales_order_id,omitempty"`
}

// NewQuotationEvent creates a QuotationEvent of the given type
func NewQuotationEvent(eventType string, q *Quotation) *QuotationEvent {
	return &QuotationEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeQuotation, q.ID),
		QuotationID:     q.ID,
		QuotationNumber: q.QuotationNumber,
		CustomerID:      q.CustomerID,
		Status:          q.Status,
		TotalAmount:     q.TotalAmount,
		SalesOrderID:    q.SalesOrderID,
	}
}

// SalesOrderEvent is raised on sales order transitions
type SalesOrderEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	QuotationID  uuid.UUID       `json:"quotation_id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	Status       OrderStatus     `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CancelReason string          `json:"cancel_reason,omitempty"`
}

// NewSalesOrderEvent creates a SalesOrderEvent of the given type
func NewSalesOrderEvent(eventType string, o *SalesOrder) *SalesOrderEvent {
	return &SalesOrderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeSalesOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		QuotationID:     o.QuotationID,
		CustomerID:      o.CustomerID,
		WarehouseID:     o.WarehouseID,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount,
		CancelReason:    o.CancelReason,
	}
}

// SalesReturnEvent is raised on sales return transitions
type SalesReturnEvent struct {
	shared.BaseDomainEvent
	ReturnID     uuid.UUID       `json:"return_id"`
	ReturnNumber string          `json:"return_number"`
	SalesOrderID uuid.UUID       `json:"sales_order_id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	Status       ReturnStatus    `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NewSalesReturnEvent creates a SalesReturnEvent of the given type
func NewSalesReturnEvent(eventType string, sr *SalesReturn) *SalesReturnEvent {
	return &SalesReturnEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeSalesReturn, sr.ID),
		ReturnID:        sr.ID,
		ReturnNumber:    sr.ReturnNumber,
		SalesOrderID:    sr.SalesOrderID,
		CustomerID:      sr.CustomerID,
		Status:          sr.Status,
		TotalAmount:     sr.TotalAmount,
	}
}

// GoodsReceivedEvent is raised when a goods receipt is posted
type GoodsReceivedEvent struct {
	shared.BaseDomainEvent
	ReceiptID       uuid.UUID `json:"receipt_id"`
	ReceiptNumber   string    `json:"receipt_number"`
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	WarehouseID     uuid.UUID `json:"warehouse_id"`
	LineCount       int       `json:"line_count"`
}

// NewGoodsReceivedEvent creates a GoodsReceivedEvent
func NewGoodsReceivedEvent(gr *GoodsReceipt) *GoodsReceivedEvent {
	return &GoodsReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsReceived, AggregateTypeGoodsReceipt, gr.ID),
		ReceiptID:       gr.ID,
		ReceiptNumber:   gr.ReceiptNumber,
		PurchaseOrderID: gr.PurchaseOrderID,
		WarehouseID:     gr.WarehouseID,
		LineCount:       len(gr.Items),
	}
}

// EventType returns the event type name
func (e *GoodsReceivedEvent) EventType() string {
	return EventTypeGoodsReceived
}
