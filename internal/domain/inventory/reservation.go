package inventory

import (
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus represents the lifecycle of a reservation
type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "ACTIVE"
	ReservationStatusReleased ReservationStatus = "RELEASED"
	ReservationStatusConsumed ReservationStatus = "CONSUMED"
)

// Reservation tracks stock held for one product of one business document.
// The (reference type, reference id, product) key makes reserve idempotent.
type Reservation struct {
	shared.BaseAggregateRoot
	ReferenceType    string            `gorm:"type:varchar(40);not null;uniqueIndex:idx_reservation_reference,priority:1"`
	ReferenceID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_reference,priority:2"`
	ProductID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_reference,priority:3"`
	WarehouseID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Quantity         decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	ReleasedQuantity decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	ConsumedQuantity decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Status           ReservationStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (Reservation) TableName() string {
	return "stock_reservations"
}

// NewReservation creates an active reservation
func NewReservation(ref Reference, productID, warehouseID uuid.UUID, qty decimal.Decimal) (*Reservation, error) {
	if ref.Type == "" || ref.ID == uuid.Nil {
		return nil, shared.NewValidationError("Reservation reference is required")
	}
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	return &Reservation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReferenceType:     ref.Type,
		ReferenceID:       ref.ID,
		ProductID:         productID,
		WarehouseID:       warehouseID,
		Quantity:          qty,
		ReleasedQuantity:  decimal.Zero,
		ConsumedQuantity:  decimal.Zero,
		Status:            ReservationStatusActive,
	}, nil
}

// Reference returns the business document the reservation is held for
func (r *Reservation) Reference() Reference {
	return Reference{Type: r.ReferenceType, ID: r.ReferenceID}
}

// Outstanding returns the quantity still held
func (r *Reservation) Outstanding() decimal.Decimal {
	return r.Quantity.Sub(r.ReleasedQuantity).Sub(r.ConsumedQuantity)
}

// IsActive returns true while some quantity is still held
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

// Release gives back up to qty; a zero qty releases everything outstanding.
// It returns the quantity actually released, zero when nothing was held.
func (r *Reservation) Release(qty decimal.Decimal) decimal.Decimal {
	outstanding := r.Outstanding()
	if !r.IsActive() || !outstanding.IsPositive() {
		return decimal.Zero
	}
	if qty.IsZero() || qty.GreaterThan(outstanding) {
		qty = outstanding
	}
	r.ReleasedQuantity = r.ReleasedQuantity.Add(qty)
	r.settle()
	return qty
}

// Consume marks qty as shipped out of the reservation
func (r *Reservation) Consume(qty decimal.Decimal) error {
	if err := requirePositive(qty); err != nil {
		return err
	}
	if !r.IsActive() {
		return shared.NewInvalidTransitionError("reservation", r.Status, ReservationStatusConsumed)
	}
	if outstanding := r.Outstanding(); qty.GreaterThan(outstanding) {
		return shared.NewInsufficientStockError(shared.NewStockShortfall(r.ProductID, r.WarehouseID, qty, outstanding))
	}
	r.ConsumedQuantity = r.ConsumedQuantity.Add(qty)
	r.settle()
	return nil
}

func (r *Reservation) settle() {
	r.UpdatedAt = time.Now()
	if r.Outstanding().IsPositive() {
		return
	}
	if r.ConsumedQuantity.IsPositive() {
		r.Status = ReservationStatusConsumed
	} else {
		r.Status = ReservationStatusReleased
	}
}
