package fulfillment

import (
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryStatus represents the status of a delivery order
type DeliveryStatus string

const (
	DeliveryStatusPreparing   DeliveryStatus = "PREPARING"
	DeliveryStatusReadyToShip DeliveryStatus = "READY_TO_SHIP"
	DeliveryStatusShipped     DeliveryStatus = "SHIPPED"
	DeliveryStatusDelivered   DeliveryStatus = "DELIVERED"
	DeliveryStatusCancelled   DeliveryStatus = "CANCELLED"
)

var deliveryTransitions = shared.TransitionTable[DeliveryStatus]{
	DeliveryStatusPreparing:   {DeliveryStatusReadyToShip, DeliveryStatusCancelled},
	DeliveryStatusReadyToShip: {DeliveryStatusShipped, DeliveryStatusCancelled},
	DeliveryStatusShipped:     {DeliveryStatusDelivered},
}

// IsValid checks if the status is a valid DeliveryStatus
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusPreparing, DeliveryStatusReadyToShip, DeliveryStatusShipped, DeliveryStatusDelivered,
		DeliveryStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s DeliveryStatus) CanTransitionTo(target DeliveryStatus) bool {
	return deliveryTransitions.Allows(s, target)
}

// ShippingInfo is attached when a delivery is ready to leave
type ShippingInfo struct {
	Carrier          string `gorm:"type:varchar(100)"`
	TrackingNumber   string `gorm:"type:varchar(100)"`
	VehicleNumber    string `gorm:"type:varchar(50)"`
	EstimatedArrival *time.Time
}

// DeliveryOrderItem is one product on a delivery
type DeliveryOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DeliveryOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (DeliveryOrderItem) TableName() string {
	return "delivery_order_items"
}

// DeliveryOrder tracks goods leaving a warehouse until they are delivered
type DeliveryOrder struct {
	shared.BaseAggregateRoot
	DeliveryNumber         string         `gorm:"type:varchar(50);not null;uniqueIndex"`
	SourceType             SourceType     `gorm:"type:varchar(5);not null;index:idx_delivery_order_source,priority:1"`
	SourceID               uuid.UUID      `gorm:"type:uuid;not null;index:idx_delivery_order_source,priority:2"`
	PickingListID          *uuid.UUID     `gorm:"type:uuid"`
	WarehouseID            uuid.UUID      `gorm:"type:uuid;not null"`
	DestinationWarehouseID *uuid.UUID     `gorm:"type:uuid"`
	CustomerID             *uuid.UUID     `gorm:"type:uuid;index"`
	Status                 DeliveryStatus `gorm:"type:varchar(20);not null;index"`
	Shipping               ShippingInfo   `gorm:"embedded;embeddedPrefix:shipping_"`
	CancelReason           string         `gorm:"type:varchar(500)"`
	CancelledAt            *time.Time
	ShippedAt              *time.Time
	DeliveredAt            *time.Time
	Items                  []DeliveryOrderItem `gorm:"foreignKey:DeliveryOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (DeliveryOrder) TableName() string {
	return "delivery_orders"
}

// NewSalesDeliveryOrder creates a PREPARING delivery for a completed sales
// order picking list, one line per picked product.
func NewSalesDeliveryOrder(number string, pl *PickingList, customerID uuid.UUID) (*DeliveryOrder, error) {
	if pl.SourceType != SourceSalesOrder {
		return nil, shared.NewValidationError("Picking list does not belong to a sales order")
	}
	if pl.Status != PickingStatusCompleted {
		return nil, shared.NewInvalidTransitionError("picking list", pl.Status, "DELIVERY")
	}
	if number == "" {
		return nil, shared.NewValidationError("Delivery number is required")
	}
	plID := pl.ID
	do := &DeliveryOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DeliveryNumber:    number,
		SourceType:        SourceSalesOrder,
		SourceID:          pl.SourceID,
		PickingListID:     &plID,
		WarehouseID:       pl.WarehouseID,
		CustomerID:        &customerID,
		Status:            DeliveryStatusPreparing,
		Items:             make([]DeliveryOrderItem, 0, len(pl.Items)),
	}
	for _, item := range pl.Items {
		do.addItem(item.ProductID, item.QuantityPicked)
	}
	do.AddDomainEvent(NewDeliveryOrderEvent(EventTypeDeliveryOrderCreated, do))
	return do, nil
}

// NewTransferDeliveryOrder records the shipment of a warehouse transfer.
// The goods are already on the road, so the delivery starts SHIPPED.
func NewTransferDeliveryOrder(number string, transfer *inventory.WarehouseTransfer, qty decimal.Decimal, pickingListID *uuid.UUID) (*DeliveryOrder, error) {
	if number == "" {
		return nil, shared.NewValidationError("Delivery number is required")
	}
	now := time.Now()
	dest := transfer.ToWarehouseID
	do := &DeliveryOrder{
		BaseAggregateRoot:      shared.NewBaseAggregateRoot(),
		DeliveryNumber:         number,
		SourceType:             SourceWarehouseTransfer,
		SourceID:               transfer.ID,
		PickingListID:          pickingListID,
		WarehouseID:            transfer.FromWarehouseID,
		DestinationWarehouseID: &dest,
		Status:                 DeliveryStatusShipped,
		ShippedAt:              &now,
		Items:                  make([]DeliveryOrderItem, 0, 1),
	}
	do.addItem(transfer.ProductID, qty)
	do.AddDomainEvent(NewDeliveryOrderEvent(EventTypeDeliveryOrderShipped, do))
	return do, nil
}

func (do *DeliveryOrder) addItem(productID uuid.UUID, qty decimal.Decimal) {
	now := time.Now()
	do.Items = append(do.Items, DeliveryOrderItem{
		ID:              uuid.New(),
		DeliveryOrderID: do.ID,
		ProductID:       productID,
		Quantity:        qty,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// Reference returns the movement reference of the delivery
func (do *DeliveryOrder) Reference() inventory.Reference {
	return inventory.NewReference(inventory.RefDeliveryOrder, do.ID)
}

// MarkReadyToShip attaches shipping metadata; a carrier is mandatory
func (do *DeliveryOrder) MarkReadyToShip(info ShippingInfo) error {
	if err := deliveryTransitions.Check("delivery order", do.Status, DeliveryStatusReadyToShip); err != nil {
		return err
	}
	if info.Carrier == "" {
		return shared.NewValidationError("Carrier is required before a delivery is ready to ship")
	}
	do.Shipping = info
	do.Status = DeliveryStatusReadyToShip
	do.UpdatedAt = time.Now()
	do.AddDomainEvent(NewDeliveryOrderEvent(EventTypeDeliveryOrderReadyToShip, do))
	return nil
}

// MarkShipped records that the goods left the warehouse; the caller commits
// the shipment in the stock ledger
func (do *DeliveryOrder) MarkShipped() error {
	if err := deliveryTransitions.Check("delivery order", do.Status, DeliveryStatusShipped); err != nil {
		return err
	}
	now := time.Now()
	do.Status = DeliveryStatusShipped
	do.ShippedAt = &now
	do.UpdatedAt = now
	do.AddDomainEvent(NewDeliveryOrderEvent(EventTypeDeliveryOrderShipped, do))
	return nil
}

// MarkDelivered closes the delivery; it is terminal and enables invoicing
func (do *DeliveryOrder) MarkDelivered() error {
	if err := deliveryTransitions.Check("delivery order", do.Status, DeliveryStatusDelivered); err != nil {
		return err
	}
	now := time.Now()
	do.Status = DeliveryStatusDelivered
	do.DeliveredAt = &now
	do.UpdatedAt = now
	do.AddDomainEvent(NewDeliveryOrderEvent(EventTypeDeliveryOrderDelivered, do))
	return nil
}

// Cancel closes a delivery that has not shipped
func (do *DeliveryOrder) Cancel(reason string) error {
	if err := deliveryTransitions.Check("delivery order", do.Status, DeliveryStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	do.Status = DeliveryStatusCancelled
	do.CancelReason = reason
	do.CancelledAt = &now
	do.UpdatedAt = now
	do.AddDomainEvent(NewDeliveryOrderEvent(EventTypeDeliveryOrderCancelled, do))
	return nil
}

// IsOpen reports whether the delivery can still move towards shipping
func (do *DeliveryOrder) IsOpen() bool {
	return do.Status == DeliveryStatusPreparing || do.Status == DeliveryStatusReadyToShip
}
