package trade

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusPending     OrderStatus = "PENDING"
	OrderStatusProcessing  OrderStatus = "PROCESSING"
	OrderStatusReadyToShip OrderStatus = "READY_TO_SHIP"
	OrderStatusShipped     OrderStatus = "SHIPPED"
	OrderStatusCompleted   OrderStatus = "COMPLETED"
	OrderStatusCancelled   OrderStatus = "CANCELLED"
)

var orderTransitions = shared.TransitionTable[OrderStatus]{
	OrderStatusPending:     {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:  {OrderStatusReadyToShip, OrderStatusCancelled},
	OrderStatusReadyToShip: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:     {OrderStatusCompleted},
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusReadyToShip,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return orderTransitions.Allows(s, target)
}

// SalesOrderItem represents a line item in a sales order
type SalesOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SalesOrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	TaxPercent      decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityShipped decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (SalesOrderItem) TableName() string {
	return "sales_order_items"
}

// AmountFor prices qty units of the line at the order's terms
func (i *SalesOrderItem) AmountFor(qty decimal.Decimal) decimal.Decimal {
	if qty.Equal(i.Quantity) {
		return i.LineTotal
	}
	_, total := LinePricing(qty, i.UnitPrice, i.DiscountPercent, i.TaxPercent)
	return total
}

// SalesOrder is the customer order created from an approved quotation
type SalesOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	QuotationID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName string          `gorm:"type:varchar(200);not null"`
	WarehouseID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;index"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CancelReason string          `gorm:"type:varchar(500)"`
	ProcessingAt *time.Time
	ReadyAt      *time.Time
	ShippedAt    *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	Items        []SalesOrderItem `gorm:"foreignKey:SalesOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// NewSalesOrderFromQuotation creates a PENDING order copying the quotation lines
func NewSalesOrderFromQuotation(number string, q *Quotation) (*SalesOrder, error) {
	if number == "" {
		return nil, shared.NewValidationError("Order number is required")
	}
	if len(q.Items) == 0 {
		return nil, shared.NewValidationError("Quotation has no items")
	}

	o := &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       number,
		QuotationID:       q.ID,
		CustomerID:        q.CustomerID,
		CustomerName:      q.CustomerName,
		WarehouseID:       q.WarehouseID,
		Status:            OrderStatusPending,
		TotalAmount:       q.TotalAmount,
		Items:             make([]SalesOrderItem, 0, len(q.Items)),
	}
	now := time.Now()
	for _, qi := range q.Items {
		o.Items = append(o.Items, SalesOrderItem{
			ID:              uuid.New(),
			SalesOrderID:    o.ID,
			ProductID:       qi.ProductID,
			Quantity:        qi.Quantity,
			UnitPrice:       qi.UnitPrice,
			DiscountPercent: qi.DiscountPercent,
			TaxPercent:      qi.TaxPercent,
			LineTotal:       qi.LineTotal,
			QuantityShipped: decimal.Zero,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	o.AddDomainEvent(NewSalesOrderEvent(EventTypeSalesOrderCreated, o))
	return o, nil
}

// FindItem returns the line with the given ID
func (o *SalesOrder) FindItem(itemID uuid.UUID) *SalesOrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// FindItemByProduct returns the line for a product
func (o *SalesOrder) FindItemByProduct(productID uuid.UUID) *SalesOrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}

// StartProcessing moves a pending order into picking. It is a no-op when
// the order is already processing.
func (o *SalesOrder) StartProcessing() error {
	if o.Status == OrderStatusProcessing {
		return nil
	}
	return o.transition(OrderStatusProcessing, EventTypeSalesOrderProcessing, func(now time.Time) {
		o.ProcessingAt = &now
	})
}

// MarkReadyToShip is called once picking completed
func (o *SalesOrder) MarkReadyToShip() error {
	return o.transition(OrderStatusReadyToShip, EventTypeSalesOrderReadyToShip, func(now time.Time) {
		o.ReadyAt = &now
	})
}

// RecordShipment books shipped quantity on the line of a product
func (o *SalesOrder) RecordShipment(productID uuid.UUID, qty decimal.Decimal) error {
	item := o.FindItemByProduct(productID)
	if item == nil {
		return shared.NewValidationError(fmt.Sprintf("Product %s is not on order %s", productID, o.OrderNumber))
	}
	shipped := item.QuantityShipped.Add(qty)
	if shipped.GreaterThan(item.Quantity) {
		return shared.NewValidationError(fmt.Sprintf("Shipping %s would exceed ordered quantity %s", shipped, item.Quantity))
	}
	item.QuantityShipped = shipped
	item.UpdatedAt = time.Now()
	return nil
}

// MarkShipped records that the order left the warehouse
func (o *SalesOrder) MarkShipped() error {
	return o.transition(OrderStatusShipped, EventTypeSalesOrderShipped, func(now time.Time) {
		o.ShippedAt = &now
	})
}

// Complete marks the order delivered. It is a no-op on a completed order.
func (o *SalesOrder) Complete() error {
	if o.Status == OrderStatusCompleted {
		return nil
	}
	return o.transition(OrderStatusCompleted, EventTypeSalesOrderCompleted, func(now time.Time) {
		o.CompletedAt = &now
	})
}

// Cancel cancels the order before shipment; the caller releases its reservations
func (o *SalesOrder) Cancel(reason string) error {
	if reason == "" {
		return shared.NewValidationError("Cancel reason is required")
	}
	return o.transition(OrderStatusCancelled, EventTypeSalesOrderCancelled, func(now time.Time) {
		o.CancelledAt = &now
		o.CancelReason = reason
	})
}

// IsShipped reports whether goods left the warehouse
func (o *SalesOrder) IsShipped() bool {
	return o.Status == OrderStatusShipped || o.Status == OrderStatusCompleted
}

func (o *SalesOrder) transition(to OrderStatus, eventType string, stamp func(time.Time)) error {
	if err := orderTransitions.Check("sales order", o.Status, to); err != nil {
		return err
	}
	now := time.Now()
	o.Status = to
	stamp(now)
	o.UpdatedAt = now
	o.AddDomainEvent(NewSalesOrderEvent(eventType, o))
	return nil
}
