package trade

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoodsReceiptStatus represents the status of a goods receipt
type GoodsReceiptStatus string

const (
	GoodsReceiptStatusDraft    GoodsReceiptStatus = "DRAFT"
	GoodsReceiptStatusReceived GoodsReceiptStatus = "RECEIVED"
)

var goodsReceiptTransitions = shared.TransitionTable[GoodsReceiptStatus]{
	GoodsReceiptStatusDraft: {GoodsReceiptStatusReceived},
}

// GoodsReceiptItem is one counted line of a receipt
type GoodsReceiptItem struct {
	ID                      uuid.UUID                `gorm:"type:uuid;primaryKey"`
	GoodsReceiptID          uuid.UUID                `gorm:"type:uuid;not null;index"`
	PurchaseOrderItemID     uuid.UUID                `gorm:"type:uuid;not null"`
	ProductID               uuid.UUID                `gorm:"type:uuid;not null"`
	QuantityOrdered         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	QuantityAlreadyReceived decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	QuantityReceived        decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Condition               inventory.StockCondition `gorm:"type:varchar(20);not null"`
	BatchNumber             string                   `gorm:"type:varchar(50)"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// TableName returns the table name for GORM
func (GoodsReceiptItem) TableName() string {
	return "goods_receipt_items"
}

// GoodsReceiptLine is the input for one receipt line
type GoodsReceiptLine struct {
	PurchaseOrderItemID uuid.UUID
	Quantity            decimal.Decimal
	Condition           inventory.StockCondition
	BatchNumber         string
}

// GoodsReceipt records goods physically arriving against a purchase order
type GoodsReceipt struct {
	shared.BaseAggregateRoot
	ReceiptNumber   string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	PurchaseOrderID uuid.UUID          `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID          `gorm:"type:uuid;not null"`
	Status          GoodsReceiptStatus `gorm:"type:varchar(20);not null"`
	ReceivedAt      *time.Time
	ReceivedBy      *uuid.UUID         `gorm:"type:uuid"`
	Notes           string             `gorm:"type:text"`
	Items           []GoodsReceiptItem `gorm:"foreignKey:GoodsReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (GoodsReceipt) TableName() string {
	return "goods_receipts"
}

// NewGoodsReceipt drafts a receipt, checking every line against what is
// still outstanding on the purchase order.
func NewGoodsReceipt(number string, po *PurchaseOrder, lines []GoodsReceiptLine, notes string) (*GoodsReceipt, error) {
	if number == "" {
		return nil, shared.NewValidationError("Receipt number is required")
	}
	if !po.Status.CanReceive() {
		return nil, shared.NewInvalidTransitionError("purchase order", po.Status, PurchaseOrderStatusReceived)
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("Receipt must have at least one line")
	}

	gr := &GoodsReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     number,
		PurchaseOrderID:   po.ID,
		WarehouseID:       po.WarehouseID,
		Status:            GoodsReceiptStatusDraft,
		Notes:             notes,
		Items:             make([]GoodsReceiptItem, 0, len(lines)),
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	now := time.Now()
	for _, line := range lines {
		if seen[line.PurchaseOrderItemID] {
			return nil, shared.NewValidationError("Each purchase order line may appear once per receipt")
		}
		seen[line.PurchaseOrderItemID] = true

		poItem := po.FindItem(line.PurchaseOrderItemID)
		if poItem == nil {
			return nil, shared.NewReferenceNotFoundError("purchase order item", line.PurchaseOrderItemID)
		}
		if err := checkReceivable(poItem, line.Quantity); err != nil {
			return nil, err
		}
		condition := line.Condition
		if condition == "" {
			condition = inventory.ConditionGood
		}
		if !condition.IsValid() {
			return nil, shared.NewValidationError(fmt.Sprintf("Unknown stock condition %q", condition))
		}
		gr.Items = append(gr.Items, GoodsReceiptItem{
			ID:                      uuid.New(),
			GoodsReceiptID:          gr.ID,
			PurchaseOrderItemID:     poItem.ID,
			ProductID:               poItem.ProductID,
			QuantityOrdered:         poItem.QuantityOrdered,
			QuantityAlreadyReceived: poItem.QuantityReceived,
			QuantityReceived:        line.Quantity,
			Condition:               condition,
			BatchNumber:             line.BatchNumber,
			CreatedAt:               now,
			UpdatedAt:               now,
		})
	}
	return gr, nil
}

// Reference returns the movement reference of the receipt
func (gr *GoodsReceipt) Reference() inventory.Reference {
	return inventory.NewReference(inventory.RefGoodsReceipt, gr.ID)
}

// Revalidate re-checks every line against the purchase order as it is now.
// Another receipt may have been posted since this one was drafted.
func (gr *GoodsReceipt) Revalidate(po *PurchaseOrder) error {
	if !po.Status.CanReceive() {
		return shared.NewInvalidTransitionError("purchase order", po.Status, PurchaseOrderStatusReceived)
	}
	for _, item := range gr.Items {
		poItem := po.FindItem(item.PurchaseOrderItemID)
		if poItem == nil {
			return shared.NewReferenceNotFoundError("purchase order item", item.PurchaseOrderItemID)
		}
		if err := checkReceivable(poItem, item.QuantityReceived); err != nil {
			return err
		}
	}
	return nil
}

// MarkReceived posts the receipt
func (gr *GoodsReceipt) MarkReceived(receivedBy *uuid.UUID) error {
	if err := goodsReceiptTransitions.Check("goods receipt", gr.Status, GoodsReceiptStatusReceived); err != nil {
		return err
	}
	now := time.Now()
	gr.Status = GoodsReceiptStatusReceived
	gr.ReceivedAt = &now
	gr.ReceivedBy = receivedBy
	gr.UpdatedAt = now
	gr.AddDomainEvent(NewGoodsReceivedEvent(gr))
	return nil
}

func checkReceivable(poItem *PurchaseOrderItem, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewValidationError("Received quantity must be positive")
	}
	if outstanding := poItem.Outstanding(); qty.GreaterThan(outstanding) {
		return &shared.DomainError{
			Code:    shared.CodeValidation,
			Message: fmt.Sprintf("Received quantity %s exceeds outstanding %s", qty, outstanding),
			Details: map[string]any{
				"purchase_order_item_id": poItem.ID,
				"ordered":                poItem.QuantityOrdered,
				"already_received":       poItem.QuantityReceived,
				"requested":              qty,
			},
		}
	}
	return nil
}
