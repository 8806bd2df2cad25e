package inventory

import (
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeStockRecord       = "StockRecord"
	AggregateTypeWarehouseTransfer = "WarehouseTransfer"
)

// Event type constants
const (
	EventTypeStockMovementRecorded  = "StockMovementRecorded"
	EventTypeStockVisibilityChanged = "StockVisibilityChanged"
	EventTypeTransferRequested      = "WarehouseTransferRequested"
	EventTypeTransferApproved       = "WarehouseTransferApproved"
	EventTypeTransferDelivered      = "WarehouseTransferDelivered"
	EventTypeTransferReceived       = "WarehouseTransferReceived"
	EventTypeTransferCancelled      = "WarehouseTransferCancelled"
)

// StockMovementRecordedEvent is raised for every ledger line
type StockMovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID    uuid.UUID       `json:"movement_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	Sequence      int64           `json:"sequence"`
	MovementType  MovementType    `json:"movement_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Available     decimal.Decimal `json:"available"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
}

// NewStockMovementRecordedEvent creates a StockMovementRecordedEvent
func NewStockMovementRecordedEvent(r *StockRecord, m *StockMovement) *StockMovementRecordedEvent {
	return &StockMovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMovementRecorded, AggregateTypeStockRecord, r.ID),
		MovementID:      m.ID,
		ProductID:       r.ProductID,
		WarehouseID:     r.WarehouseID,
		Sequence:        m.Sequence,
		MovementType:    m.Type,
		Quantity:        m.Quantity,
		Available:       r.AvailableQuantity,
		ReferenceType:   m.ReferenceType,
		ReferenceID:     m.ReferenceID,
	}
}

// EventType returns the event type name
func (e *StockMovementRecordedEvent) EventType() string {
	return EventTypeStockMovementRecorded
}

// StockVisibilityChangedEvent is raised when a record is hidden or shown
type StockVisibilityChangedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Hidden      bool      `json:"hidden"`
}

// NewStockVisibilityChangedEvent creates a StockVisibilityChangedEvent
func NewStockVisibilityChangedEvent(r *StockRecord) *StockVisibilityChangedEvent {
	return &StockVisibilityChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockVisibilityChanged, AggregateTypeStockRecord, r.ID),
		ProductID:       r.ProductID,
		WarehouseID:     r.WarehouseID,
		Hidden:          r.Hidden,
	}
}

// EventType returns the event type name
func (e *StockVisibilityChangedEvent) EventType() string {
	return EventTypeStockVisibilityChanged
}

// WarehouseTransferEvent is raised on every transfer transition; the event
// type tells which one.
type WarehouseTransferEvent struct {
	shared.BaseDomainEvent
	TransferID        uuid.UUID       `json:"transfer_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	FromWarehouseID   uuid.UUID       `json:"from_warehouse_id"`
	ToWarehouseID     uuid.UUID       `json:"to_warehouse_id"`
	Status            TransferStatus  `json:"status"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	QuantityDelivered decimal.Decimal `json:"quantity_delivered"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
}

// NewWarehouseTransferEvent creates a WarehouseTransferEvent of the given type
func NewWarehouseTransferEvent(eventType string, t *WarehouseTransfer) *WarehouseTransferEvent {
	return &WarehouseTransferEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(eventType, AggregateTypeWarehouseTransfer, t.ID),
		TransferID:        t.ID,
		ProductID:         t.ProductID,
		FromWarehouseID:   t.FromWarehouseID,
		ToWarehouseID:     t.ToWarehouseID,
		Status:            t.Status,
		QuantityRequested: t.QuantityRequested,
		QuantityDelivered: t.QuantityDelivered,
		QuantityReceived:  t.QuantityReceived,
	}
}
