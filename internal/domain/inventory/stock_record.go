package inventory

import (
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecord holds the balances of one product in one warehouse.
// It is only ever changed by applying a StockMovement, so every change is
// mirrored by a ledger line.
type StockRecord struct {
	shared.BaseAggregateRoot
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_product_warehouse,priority:1"`
	WarehouseID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_record_product_warehouse,priority:2;index"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // On hand
	ReservedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnusableQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Damaged/defective awaiting disposition
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Quantity - Reserved - Unusable
	Hidden            bool            `gorm:"not null;default:false"`
	LastSequence      int64           `gorm:"not null;default:0"`

	pending []*StockMovement `gorm:"-"`
}

// TableName returns the table name for GORM
func (StockRecord) TableName() string {
	return "stock_records"
}

// NewStockRecord creates an empty record for a product-warehouse pair
func NewStockRecord(productID, warehouseID uuid.UUID) (*StockRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewValidationError("Warehouse ID cannot be empty")
	}
	return &StockRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		Quantity:          decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		UnusableQuantity:  decimal.Zero,
		AvailableQuantity: decimal.Zero,
	}, nil
}

// Available returns quantity - reserved - unusable
func (r *StockRecord) Available() decimal.Decimal {
	return r.Quantity.Sub(r.ReservedQuantity).Sub(r.UnusableQuantity)
}

// PendingMovements returns movements applied since the last save
func (r *StockRecord) PendingMovements() []*StockMovement {
	return r.pending
}

// ClearPendingMovements is called once the movements are persisted
func (r *StockRecord) ClearPendingMovements() {
	r.pending = nil
}

// Receive books goods received from a supplier. Goods in an unusable
// condition go on hand but not into available.
func (r *StockRecord) Receive(qty decimal.Decimal, condition StockCondition, ref Reference) (*StockMovement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if condition == "" {
		condition = ConditionGood
	}
	if !condition.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Unknown stock condition %q", condition))
	}
	unusable := decimal.Zero
	if !condition.IsUsable() {
		unusable = qty
	}
	m := newMovement(MovementTypeReceipt, qty, qty, decimal.Zero, unusable, ref)
	m.Condition = condition
	return m, r.apply(m)
}

// Reserve moves qty from available to reserved. It never reserves partially.
func (r *StockRecord) Reserve(qty decimal.Decimal, ref Reference) (*StockMovement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if err := r.requireAvailable(qty); err != nil {
		return nil, err
	}
	m := newMovement(MovementTypeReserve, qty, decimal.Zero, qty, decimal.Zero, ref)
	return m, r.apply(m)
}

// Release returns reserved stock to available
func (r *StockRecord) Release(qty decimal.Decimal, ref Reference) (*StockMovement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if qty.GreaterThan(r.ReservedQuantity) {
		return nil, r.shortfall(qty, r.ReservedQuantity)
	}
	m := newMovement(MovementTypeRelease, qty, decimal.Zero, qty.Neg(), decimal.Zero, ref)
	return m, r.apply(m)
}

// CommitShipment consumes reserved stock that physically left the warehouse
func (r *StockRecord) CommitShipment(qty decimal.Decimal, ref Reference) (*StockMovement, error) {
	return r.removeReserved(MovementTypeShipOut, qty, ref)
}

// TransferOut removes reserved stock leaving for another warehouse
func (r *StockRecord) TransferOut(qty decimal.Decimal, ref Reference) (*StockMovement, error) {
	return r.removeReserved(MovementTypeTransferOut, qty, ref)
}

// TransferIn books stock arriving from another warehouse
func (r *StockRecord) TransferIn(qty decimal.Decimal, ref Reference) (*StockMovement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	m := newMovement(MovementTypeTransferIn, qty, qty, decimal.Zero, decimal.Zero, ref)
	return m, r.apply(m)
}

// ReturnIn books customer returns. Damaged returns arrive as unusable stock
// and are recorded as DAMAGE instead of RETURN_IN.
func (r *StockRecord) ReturnIn(qty decimal.Decimal, condition StockCondition, ref Reference) (*StockMovement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if condition == "" {
		condition = ConditionGood
	}
	var m *StockMovement
	if condition.IsUsable() {
		m = newMovement(MovementTypeReturnIn, qty, qty, decimal.Zero, decimal.Zero, ref)
	} else {
		m = newMovement(MovementTypeDamage, qty, qty, decimal.Zero, qty, ref)
	}
	m.Condition = condition
	return m, r.apply(m)
}

// ReportDamage tags available stock as unusable in place
func (r *StockRecord) ReportDamage(qty decimal.Decimal, condition StockCondition, ref Reference) (*StockMovement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if condition == "" || condition.IsUsable() {
		condition = ConditionDamaged
	}
	if err := r.requireAvailable(qty); err != nil {
		return nil, err
	}
	m := newMovement(MovementTypeDamage, qty, decimal.Zero, decimal.Zero, qty, ref)
	m.Condition = condition
	return m, r.apply(m)
}

// ReverseDamage returns unusable stock to available
func (r *StockRecord) ReverseDamage(qty decimal.Decimal, ref Reference) (*StockMovement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if qty.GreaterThan(r.UnusableQuantity) {
		return nil, r.shortfall(qty, r.UnusableQuantity)
	}
	m := newMovement(MovementTypeDamageReversal, qty, decimal.Zero, decimal.Zero, qty.Neg(), ref)
	return m, r.apply(m)
}

// Dispose writes unusable stock off the books
func (r *StockRecord) Dispose(qty decimal.Decimal, ref Reference) (*StockMovement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if qty.GreaterThan(r.UnusableQuantity) {
		return nil, r.shortfall(qty, r.UnusableQuantity)
	}
	m := newMovement(MovementTypeDisposal, qty, qty.Neg(), decimal.Zero, qty.Neg(), ref)
	m.Condition = ConditionDamaged
	return m, r.apply(m)
}

// Adjust applies a signed correction. A decrease must be covered by
// available stock; reserved and unusable quantities are never touched.
func (r *StockRecord) Adjust(delta decimal.Decimal, ref Reference) (*StockMovement, error) {
	if delta.IsZero() {
		return nil, shared.NewValidationError("Adjustment delta cannot be zero")
	}
	if delta.IsNegative() {
		if err := r.requireAvailable(delta.Abs()); err != nil {
			return nil, err
		}
	}
	m := newMovement(MovementTypeAdjustment, delta.Abs(), delta, decimal.Zero, decimal.Zero, ref)
	return m, r.apply(m)
}

// SetHidden toggles the display flag. It has no effect on balances.
func (r *StockRecord) SetHidden(hidden bool) {
	if r.Hidden == hidden {
		return
	}
	r.Hidden = hidden
	r.UpdatedAt = time.Now()
	r.AddDomainEvent(NewStockVisibilityChangedEvent(r))
}

func (r *StockRecord) removeReserved(t MovementType, qty decimal.Decimal, ref Reference) (*StockMovement, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	if qty.GreaterThan(r.ReservedQuantity) {
		return nil, r.shortfall(qty, r.ReservedQuantity)
	}
	m := newMovement(t, qty, qty.Neg(), qty.Neg(), decimal.Zero, ref)
	return m, r.apply(m)
}

// apply is the single mutation path of the record
func (r *StockRecord) apply(m *StockMovement) error {
	next := Balance{
		Quantity: r.Quantity.Add(m.QuantityDelta),
		Reserved: r.ReservedQuantity.Add(m.ReservedDelta),
		Unusable: r.UnusableQuantity.Add(m.UnusableDelta),
	}
	if err := next.Check(); err != nil {
		return r.shortfall(m.Quantity, r.Available())
	}

	r.Quantity = next.Quantity
	r.ReservedQuantity = next.Reserved
	r.UnusableQuantity = next.Unusable
	r.AvailableQuantity = next.Available()
	r.LastSequence++
	r.UpdatedAt = m.CreatedAt

	m.StockRecordID = r.ID
	m.ProductID = r.ProductID
	m.WarehouseID = r.WarehouseID
	m.Sequence = r.LastSequence
	m.QuantityAfter = r.Quantity
	m.ReservedAfter = r.ReservedQuantity
	m.UnusableAfter = r.UnusableQuantity

	r.pending = append(r.pending, m)
	r.AddDomainEvent(NewStockMovementRecordedEvent(r, m))
	return nil
}

func (r *StockRecord) requireAvailable(qty decimal.Decimal) error {
	if available := r.Available(); available.LessThan(qty) {
		return r.shortfall(qty, available)
	}
	return nil
}

func (r *StockRecord) shortfall(requested, available decimal.Decimal) error {
	return shared.NewInsufficientStockError(shared.NewStockShortfall(r.ProductID, r.WarehouseID, requested, available))
}

func requirePositive(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return shared.NewValidationError("Quantity must be positive")
	}
	return nil
}
