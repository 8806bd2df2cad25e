package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a stock movement
type MovementType string

const (
	// MovementTypeReceipt is goods received from a supplier
	MovementTypeReceipt MovementType = "RECEIPT"
	// MovementTypeReserve moves available stock into reserved
	MovementTypeReserve MovementType = "RESERVE"
	// MovementTypeRelease returns reserved stock to available
	MovementTypeRelease MovementType = "RELEASE"
	// MovementTypeShipOut removes reserved stock that left with a delivery
	MovementTypeShipOut MovementType = "SHIP_OUT"
	// MovementTypeTransferOut removes reserved stock leaving for another warehouse
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
	// MovementTypeTransferIn adds stock arriving from another warehouse
	MovementTypeTransferIn MovementType = "TRANSFER_IN"
	// MovementTypeReturnIn adds sellable stock returned by a customer
	MovementTypeReturnIn MovementType = "RETURN_IN"
	// MovementTypeDamage tags stock as unusable, either in place or on arrival
	MovementTypeDamage MovementType = "DAMAGE"
	// MovementTypeDamageReversal returns unusable stock to available
	MovementTypeDamageReversal MovementType = "DAMAGE_REVERSAL"
	// MovementTypeDisposal writes unusable stock off
	MovementTypeDisposal MovementType = "DISPOSAL"
	// MovementTypeAdjustment is a signed manual correction
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeReceipt, MovementTypeReserve, MovementTypeRelease, MovementTypeShipOut,
		MovementTypeTransferOut, MovementTypeTransferIn, MovementTypeReturnIn, MovementTypeDamage,
		MovementTypeDamageReversal, MovementTypeDisposal, MovementTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// StockCondition tags received or returned goods
type StockCondition string

const (
	ConditionGood      StockCondition = "GOOD"
	ConditionDamaged   StockCondition = "DAMAGED"
	ConditionDefective StockCondition = "DEFECTIVE"
	ConditionWrongItem StockCondition = "WRONG_ITEM"
)

// IsValid returns true if the condition is known
func (c StockCondition) IsValid() bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionDefective, ConditionWrongItem:
		return true
	}
	return false
}

// IsUsable reports whether stock in this condition can be sold
func (c StockCondition) IsUsable() bool {
	return c == ConditionGood || c == ""
}

// Reference types used on movements and reservations
const (
	RefSalesOrder        = "SALES_ORDER"
	RefWarehouseTransfer = "WAREHOUSE_TRANSFER"
	RefGoodsReceipt      = "GOODS_RECEIPT"
	RefSalesReturn       = "SALES_RETURN"
	RefDeliveryOrder     = "DELIVERY_ORDER"
	RefStockAdjustment   = "STOCK_ADJUSTMENT"
	RefDamageReport      = "DAMAGE_REPORT"
)

// Reference names the business document a movement belongs to
type Reference struct {
	Type string
	ID   uuid.UUID
}

// NewReference creates a reference
func NewReference(refType string, id uuid.UUID) Reference {
	return Reference{Type: refType, ID: id}
}

// StockMovement is one immutable line of the stock ledger. Deltas are signed,
// the *After fields snapshot the record right after this movement.
type StockMovement struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StockRecordID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_movement_sequence,priority:1;index:idx_stock_movement_lookup,priority:1"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_movement_sequence,priority:2;index:idx_stock_movement_lookup,priority:2"`
	Sequence      int64           `gorm:"not null;uniqueIndex:idx_stock_movement_sequence,priority:3"`
	Type          MovementType    `gorm:"type:varchar(32);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityDelta decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReservedDelta decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnusableDelta decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityAfter decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReservedAfter decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnusableAfter decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Condition     StockCondition  `gorm:"type:varchar(20)"`
	ReferenceType string          `gorm:"type:varchar(40);index:idx_stock_movement_reference,priority:1"`
	ReferenceID   uuid.UUID       `gorm:"type:uuid;index:idx_stock_movement_reference,priority:2"`
	ActorID       *uuid.UUID      `gorm:"type:uuid"`
	Notes         string          `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"not null;index:idx_stock_movement_lookup,priority:3"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// AvailableAfter returns the available quantity right after the movement
func (m *StockMovement) AvailableAfter() decimal.Decimal {
	return m.QuantityAfter.Sub(m.ReservedAfter).Sub(m.UnusableAfter)
}

// Reference returns the business document reference
func (m *StockMovement) Reference() Reference {
	return Reference{Type: m.ReferenceType, ID: m.ReferenceID}
}

func newMovement(t MovementType, qty decimal.Decimal, dQty, dReserved, dUnusable decimal.Decimal, ref Reference) *StockMovement {
	return &StockMovement{
		ID:            uuid.New(),
		Type:          t,
		Quantity:      qty,
		QuantityDelta: dQty,
		ReservedDelta: dReserved,
		UnusableDelta: dUnusable,
		Condition:     ConditionGood,
		ReferenceType: ref.Type,
		ReferenceID:   ref.ID,
		CreatedAt:     time.Now(),
	}
}

// MovementFilter selects movements for listing
type MovementFilter struct {
	ProductID     *uuid.UUID
	WarehouseID   *uuid.UUID
	ReferenceType string
	ReferenceID   *uuid.UUID
	Types         []MovementType
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}
