package trade

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusOpen              PurchaseOrderStatus = "OPEN"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "PARTIALLY_RECEIVED"
	PurchaseOrderStatusReceived          PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusCancelled         PurchaseOrderStatus = "CANCELLED"
)

var purchaseOrderTransitions = shared.TransitionTable[PurchaseOrderStatus]{
	PurchaseOrderStatusOpen:              {PurchaseOrderStatusPartiallyReceived, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPartiallyReceived: {PurchaseOrderStatusReceived},
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	return purchaseOrderTransitions.Allows(s, target)
}

// CanReceive returns true if goods can still be received against the order
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusOpen || s == PurchaseOrderStatusPartiallyReceived
}

// PurchaseOrderItem represents a line item in a purchase order
type PurchaseOrderItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseOrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityOrdered  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// Outstanding returns the quantity not yet received
func (i *PurchaseOrderItem) Outstanding() decimal.Decimal {
	return i.QuantityOrdered.Sub(i.QuantityReceived)
}

// PurchaseOrder is an order placed with a supplier
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	SupplierName string              `gorm:"type:varchar(200);not null"`
	WarehouseID  uuid.UUID           `gorm:"type:uuid;not null"`
	Status       PurchaseOrderStatus `gorm:"type:varchar(30);not null;index"`
	TotalAmount  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	CancelReason string              `gorm:"type:varchar(500)"`
	ReceivedAt   *time.Time
	CancelledAt  *time.Time
	Items        []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates an OPEN purchase order
func NewPurchaseOrder(number string, supplierID uuid.UUID, supplierName string, warehouseID uuid.UUID) (*PurchaseOrder, error) {
	if number == "" {
		return nil, shared.NewValidationError("Order number is required")
	}
	if supplierID == uuid.Nil || supplierName == "" {
		return nil, shared.NewValidationError("Supplier is required")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewValidationError("Receiving warehouse is required")
	}
	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       number,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		WarehouseID:       warehouseID,
		Status:            PurchaseOrderStatusOpen,
		TotalAmount:       decimal.Zero,
		Items:             make([]PurchaseOrderItem, 0),
	}, nil
}

// AddItem adds a line to an open order without receipts
func (o *PurchaseOrder) AddItem(productID uuid.UUID, qty, unitCost decimal.Decimal) (*PurchaseOrderItem, error) {
	if o.Status != PurchaseOrderStatusOpen {
		return nil, shared.NewInvalidTransitionError("purchase order", o.Status, "modified")
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if !qty.IsPositive() {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewValidationError("Unit cost cannot be negative")
	}
	now := time.Now()
	o.Items = append(o.Items, PurchaseOrderItem{
		ID:               uuid.New(),
		PurchaseOrderID:  o.ID,
		ProductID:        productID,
		QuantityOrdered:  qty,
		QuantityReceived: decimal.Zero,
		UnitCost:         unitCost,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	o.TotalAmount = o.TotalAmount.Add(qty.Mul(unitCost)).Round(2)
	return &o.Items[len(o.Items)-1], nil
}

// FindItem returns the line with the given ID
func (o *PurchaseOrder) FindItem(itemID uuid.UUID) *PurchaseOrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// Receive books qty against a line and updates the order status
func (o *PurchaseOrder) Receive(itemID uuid.UUID, qty decimal.Decimal) error {
	if !o.Status.CanReceive() {
		return shared.NewInvalidTransitionError("purchase order", o.Status, PurchaseOrderStatusReceived)
	}
	item := o.FindItem(itemID)
	if item == nil {
		return shared.NewReferenceNotFoundError("purchase order item", itemID)
	}
	if qty.GreaterThan(item.Outstanding()) {
		return shared.NewValidationError(fmt.Sprintf("Receiving %s exceeds outstanding quantity %s", qty, item.Outstanding()))
	}
	item.QuantityReceived = item.QuantityReceived.Add(qty)
	item.UpdatedAt = time.Now()
	o.refreshStatus()
	return nil
}

// Cancel cancels an order that has received nothing
func (o *PurchaseOrder) Cancel(reason string) error {
	if err := purchaseOrderTransitions.Check("purchase order", o.Status, PurchaseOrderStatusCancelled); err != nil {
		return err
	}
	if reason == "" {
		return shared.NewValidationError("Cancel reason is required")
	}
	now := time.Now()
	o.Status = PurchaseOrderStatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now
	return nil
}

func (o *PurchaseOrder) refreshStatus() {
	now := time.Now()
	o.UpdatedAt = now
	for _, item := range o.Items {
		if item.Outstanding().IsPositive() {
			o.Status = PurchaseOrderStatusPartiallyReceived
			return
		}
	}
	o.Status = PurchaseOrderStatusReceived
	o.ReceivedAt = &now
}
