package inventory

import (
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferStatus represents the status of a warehouse transfer
type TransferStatus string

const (
	TransferStatusRequested TransferStatus = "REQUESTED"
	TransferStatusApproved  TransferStatus = "APPROVED"
	TransferStatusInTransit TransferStatus = "IN_TRANSIT"
	TransferStatusReceived  TransferStatus = "RECEIVED"
	TransferStatusCancelled TransferStatus = "CANCELLED"
)

var transferTransitions = shared.TransitionTable[TransferStatus]{
	TransferStatusRequested: {TransferStatusApproved, TransferStatusInTransit, TransferStatusCancelled},
	TransferStatusApproved:  {TransferStatusInTransit, TransferStatusCancelled},
	TransferStatusInTransit: {TransferStatusReceived},
}

// IsValid checks if the status is a valid TransferStatus
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusRequested, TransferStatusApproved, TransferStatusInTransit, TransferStatusReceived, TransferStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	return transferTransitions.Allows(s, target)
}

// WarehouseTransfer moves one product between two warehouses. Stock leaves
// the source on delivery and reaches the destination on receipt, so goods in
// transit are counted in neither warehouse.
type WarehouseTransfer struct {
	shared.BaseAggregateRoot
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	FromWarehouseID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ToWarehouseID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuantityRequested decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityDelivered decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityReceived  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status            TransferStatus  `gorm:"type:varchar(20);not null;index"`
	Reserved          bool            `gorm:"not null;default:false"`
	Notes             string          `gorm:"type:text"`
	RequestedBy       *uuid.UUID      `gorm:"type:uuid"`
	ApprovedBy        *uuid.UUID      `gorm:"type:uuid"`
	ApprovedAt        *time.Time
	DeliveredAt       *time.Time
	ReceivedAt        *time.Time
	CancelledAt       *time.Time
	CancelReason      string     `gorm:"type:varchar(500)"`
	DeliveryOrderID   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (WarehouseTransfer) TableName() string {
	return "warehouse_transfers"
}

// NewWarehouseTransfer creates a REQUESTED transfer
func NewWarehouseTransfer(productID, fromWarehouseID, toWarehouseID uuid.UUID, qty decimal.Decimal, requestedBy *uuid.UUID, notes string) (*WarehouseTransfer, error) {
	if productID == uuid.Nil || fromWarehouseID == uuid.Nil || toWarehouseID == uuid.Nil {
		return nil, shared.NewValidationError("Product and both warehouses are required")
	}
	if fromWarehouseID == toWarehouseID {
		return nil, shared.NewValidationError("Source and destination warehouses must differ")
	}
	if err := requirePositive(qty); err != nil {
		return nil, err
	}

	t := &WarehouseTransfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		FromWarehouseID:   fromWarehouseID,
		ToWarehouseID:     toWarehouseID,
		QuantityRequested: qty,
		QuantityDelivered: decimal.Zero,
		QuantityReceived:  decimal.Zero,
		Status:            TransferStatusRequested,
		Notes:             notes,
		RequestedBy:       requestedBy,
	}
	t.AddDomainEvent(NewWarehouseTransferEvent(EventTypeTransferRequested, t))
	return t, nil
}

// Reference returns the reservation and movement reference of the transfer
func (t *WarehouseTransfer) Reference() Reference {
	return NewReference(RefWarehouseTransfer, t.ID)
}

// Approve marks the transfer approved; the caller reserves stock at the source
func (t *WarehouseTransfer) Approve(approvedBy *uuid.UUID) error {
	if err := transferTransitions.Check("warehouse transfer", t.Status, TransferStatusApproved); err != nil {
		return err
	}
	now := time.Now()
	t.Status = TransferStatusApproved
	t.Reserved = true
	t.ApprovedBy = approvedBy
	t.ApprovedAt = &now
	t.UpdatedAt = now
	t.AddDomainEvent(NewWarehouseTransferEvent(EventTypeTransferApproved, t))
	return nil
}

// Deliver ships qty (at most the requested quantity) and moves the transfer
// in transit. It returns the reserved quantity that is no longer needed.
func (t *WarehouseTransfer) Deliver(qty decimal.Decimal, deliveryOrderID uuid.UUID) (decimal.Decimal, error) {
	if err := transferTransitions.Check("warehouse transfer", t.Status, TransferStatusInTransit); err != nil {
		return decimal.Zero, err
	}
	if err := requirePositive(qty); err != nil {
		return decimal.Zero, err
	}
	if qty.GreaterThan(t.QuantityRequested) {
		return decimal.Zero, shared.NewValidationError("Delivered quantity cannot exceed requested quantity")
	}
	now := time.Now()
	t.Status = TransferStatusInTransit
	t.Reserved = true
	t.QuantityDelivered = qty
	t.DeliveredAt = &now
	t.DeliveryOrderID = &deliveryOrderID
	t.UpdatedAt = now
	t.AddDomainEvent(NewWarehouseTransferEvent(EventTypeTransferDelivered, t))
	return t.QuantityRequested.Sub(qty), nil
}

// Receive books qty (at most the delivered quantity) at the destination
func (t *WarehouseTransfer) Receive(qty decimal.Decimal) error {
	if err := transferTransitions.Check("warehouse transfer", t.Status, TransferStatusReceived); err != nil {
		return err
	}
	if err := requirePositive(qty); err != nil {
		return err
	}
	if qty.GreaterThan(t.QuantityDelivered) {
		return shared.NewValidationError("Received quantity cannot exceed delivered quantity")
	}
	now := time.Now()
	t.Status = TransferStatusReceived
	t.QuantityReceived = qty
	t.ReceivedAt = &now
	t.UpdatedAt = now
	t.AddDomainEvent(NewWarehouseTransferEvent(EventTypeTransferReceived, t))
	return nil
}

// Cancel cancels the transfer before it leaves the source warehouse.
// It returns true when a reservation must be released.
func (t *WarehouseTransfer) Cancel(reason string) (bool, error) {
	if err := transferTransitions.Check("warehouse transfer", t.Status, TransferStatusCancelled); err != nil {
		return false, err
	}
	if reason == "" {
		return false, shared.NewValidationError("Cancel reason is required")
	}
	hadReservation := t.Reserved
	now := time.Now()
	t.Status = TransferStatusCancelled
	t.Reserved = false
	t.CancelReason = reason
	t.CancelledAt = &now
	t.UpdatedAt = now
	t.AddDomainEvent(NewWarehouseTransferEvent(EventTypeTransferCancelled, t))
	return hadReservation, nil
}

// InTransitLoss returns the delivered quantity that never arrived
func (t *WarehouseTransfer) InTransitLoss() decimal.Decimal {
	if t.Status != TransferStatusReceived {
		return decimal.Zero
	}
	return t.QuantityDelivered.Sub(t.QuantityReceived)
}
