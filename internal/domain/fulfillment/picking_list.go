package fulfillment

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SourceType names the document a picking list or delivery fulfils
type SourceType string

const (
	SourceSalesOrder        SourceType = "SO"
	SourceWarehouseTransfer SourceType = "IT"
)

// IsValid returns true for a known source type
func (s SourceType) IsValid() bool {
	return s == SourceSalesOrder || s == SourceWarehouseTransfer
}

// PickingStatus represents the status of a picking list
type PickingStatus string

const (
	PickingStatusOpen            PickingStatus = "OPEN"
	PickingStatusPartiallyPicked PickingStatus = "PARTIALLY_PICKED"
	PickingStatusCompleted       PickingStatus = "COMPLETED"
	PickingStatusCancelled       PickingStatus = "CANCELLED"
)

var pickingTransitions = shared.TransitionTable[PickingStatus]{
	PickingStatusOpen:            {PickingStatusPartiallyPicked, PickingStatusCompleted, PickingStatusCancelled},
	PickingStatusPartiallyPicked: {PickingStatusPartiallyPicked, PickingStatusCompleted, PickingStatusCancelled},
}

// CanTransitionTo checks if the status can transition to the target status
func (s PickingStatus) CanTransitionTo(target PickingStatus) bool {
	return pickingTransitions.Allows(s, target)
}

// PickingListItem is one product to collect from the shelves
type PickingListItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PickingListID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityRequired decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityPicked   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (PickingListItem) TableName() string {
	return "picking_list_items"
}

// Remaining returns the quantity still to pick
func (i *PickingListItem) Remaining() decimal.Decimal {
	return i.QuantityRequired.Sub(i.QuantityPicked)
}

// IsComplete returns true once the required quantity is picked
func (i *PickingListItem) IsComplete() bool {
	return !i.Remaining().IsPositive()
}

// PickingList directs warehouse staff to collect goods for one source document
type PickingList struct {
	shared.BaseAggregateRoot
	ListNumber   string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	SourceType   SourceType    `gorm:"type:varchar(5);not null;index:idx_picking_list_source,priority:1"`
	SourceID     uuid.UUID     `gorm:"type:uuid;not null;index:idx_picking_list_source,priority:2"`
	WarehouseID  uuid.UUID     `gorm:"type:uuid;not null"`
	Status       PickingStatus `gorm:"type:varchar(20);not null"`
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string            `gorm:"type:varchar(500)"`
	Items        []PickingListItem `gorm:"foreignKey:PickingListID;references:ID"`
}

// TableName returns the table name for GORM
func (PickingList) TableName() string {
	return "picking_lists"
}

// NewPickingListForSalesOrder creates a list covering every order line
func NewPickingListForSalesOrder(number string, order *trade.SalesOrder) (*PickingList, error) {
	if order.Status != trade.OrderStatusPending && order.Status != trade.OrderStatusProcessing {
		return nil, shared.NewInvalidTransitionError("sales order", order.Status, "PICKING")
	}
	pl, err := newPickingList(number, SourceSalesOrder, order.ID, order.WarehouseID)
	if err != nil {
		return nil, err
	}
	for _, item := range order.Items {
		pl.addItem(item.ProductID, item.Quantity)
	}
	pl.AddDomainEvent(NewPickingListEvent(EventTypePickingListCreated, pl))
	return pl, nil
}

// NewPickingListForTransfer creates a list for an approved transfer
func NewPickingListForTransfer(number string, transfer *inventory.WarehouseTransfer) (*PickingList, error) {
	if transfer.Status != inventory.TransferStatusApproved {
		return nil, shared.NewInvalidTransitionError("warehouse transfer", transfer.Status, "PICKING")
	}
	pl, err := newPickingList(number, SourceWarehouseTransfer, transfer.ID, transfer.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	pl.addItem(transfer.ProductID, transfer.QuantityRequested)
	pl.AddDomainEvent(NewPickingListEvent(EventTypePickingListCreated, pl))
	return pl, nil
}

func newPickingList(number string, sourceType SourceType, sourceID, warehouseID uuid.UUID) (*PickingList, error) {
	if number == "" {
		return nil, shared.NewValidationError("Picking list number is required")
	}
	return &PickingList{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ListNumber:        number,
		SourceType:        sourceType,
		SourceID:          sourceID,
		WarehouseID:       warehouseID,
		Status:            PickingStatusOpen,
		Items:             make([]PickingListItem, 0),
	}, nil
}

func (pl *PickingList) addItem(productID uuid.UUID, qty decimal.Decimal) {
	now := time.Now()
	pl.Items = append(pl.Items, PickingListItem{
		ID:               uuid.New(),
		PickingListID:    pl.ID,
		ProductID:        productID,
		QuantityRequired: qty,
		QuantityPicked:   decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

// FindItem returns the line with the given ID
func (pl *PickingList) FindItem(itemID uuid.UUID) *PickingListItem {
	for i := range pl.Items {
		if pl.Items[i].ID == itemID {
			return &pl.Items[i]
		}
	}
	return nil
}

// RecordPick accrues picked quantity on a line. It reports whether the
// whole list became complete with this pick.
func (pl *PickingList) RecordPick(itemID uuid.UUID, qty decimal.Decimal) (bool, error) {
	if pl.Status == PickingStatusCompleted || pl.Status == PickingStatusCancelled {
		return false, shared.NewInvalidTransitionError("picking list", pl.Status, PickingStatusPartiallyPicked)
	}
	if !qty.IsPositive() {
		return false, shared.NewValidationError("Picked quantity must be positive")
	}
	item := pl.FindItem(itemID)
	if item == nil {
		return false, shared.NewNotFoundError("picking list item", itemID)
	}
	if picked := item.QuantityPicked.Add(qty); picked.GreaterThan(item.QuantityRequired) {
		return false, &shared.DomainError{
			Code:    shared.CodeValidation,
			Message: fmt.Sprintf("Picking %s would exceed required quantity %s", picked, item.QuantityRequired),
			Details: map[string]any{"item_id": itemID, "required": item.QuantityRequired, "picked": item.QuantityPicked},
		}
	}

	now := time.Now()
	item.QuantityPicked = item.QuantityPicked.Add(qty)
	item.UpdatedAt = now
	pl.UpdatedAt = now

	for _, it := range pl.Items {
		if !it.IsComplete() {
			pl.Status = PickingStatusPartiallyPicked
			return false, nil
		}
	}
	pl.Status = PickingStatusCompleted
	pl.CompletedAt = &now
	pl.AddDomainEvent(NewPickingListEvent(EventTypePickingListCompleted, pl))
	return true, nil
}

// Cancel abandons picking, used when the source document is cancelled
func (pl *PickingList) Cancel(reason string) error {
	if err := pickingTransitions.Check("picking list", pl.Status, PickingStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	pl.Status = PickingStatusCancelled
	pl.CancelReason = reason
	pl.CancelledAt = &now
	pl.UpdatedAt = now
	return nil
}

// IsActive reports whether the list still counts against its source
func (pl *PickingList) IsActive() bool {
	return pl.Status != PickingStatusCancelled
}

// CloseShort completes a list that is still open when its goods ship.
// Picked quantities are kept as recorded.
func (pl *PickingList) CloseShort() error {
	if err := pickingTransitions.Check("picking list", pl.Status, PickingStatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	pl.Status = PickingStatusCompleted
	pl.CompletedAt = &now
	pl.UpdatedAt = now
	pl.AddDomainEvent(NewPickingListEvent(EventTypePickingListCompleted, pl))
	return nil
}
