package fulfillment

import (
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypePickingList   = "PickingList"
	AggregateTypeDeliveryOrder = "DeliveryOrder"
)

// Event type constants
const (
	EventTypePickingListCreated   = "PickingListCreated"
	EventTypePickingListCompleted = "PickingListCompleted"

	EventTypeDeliveryOrderCreated     = "DeliveryOrderCreated"
	EventTypeDeliveryOrderReadyToShip = "DeliveryOrderReadyToShip"
	EventTypeDeliveryOrderShipped     = "DeliveryOrderShipped"
	EventTypeDeliveryOrderDelivered   = "DeliveryOrderDelivered"
	EventTypeDeliveryOrderCancelled   = "DeliveryOrderCancelled"
)

// PickingListEvent is raised when a picking list is created or completed
type PickingListEvent struct {
	shared.BaseDomainEvent
	PickingListID uuid.UUID     `json:"picking_list_id"`
	SourceType    SourceType    `json:"source_type"`
	SourceID      uuid.UUID     `json:"source_id"`
	Status        PickingStatus `json:"status"`
}

// NewPickingListEvent creates a PickingListEvent of the given type
func NewPickingListEvent(eventType string, pl *PickingList) *PickingListEvent {
	return &PickingListEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypePickingList, pl.ID),
		PickingListID:   pl.ID,
		SourceType:      pl.SourceType,
		SourceID:        pl.SourceID,
		Status:          pl.Status,
	}
}

// DeliveryOrderEvent is raised on delivery order transitions. The delivered
// variant drives sales order completion.
type DeliveryOrderEvent struct {
	shared.BaseDomainEvent
	DeliveryOrderID uuid.UUID      `json:"delivery_order_id"`
	DeliveryNumber  string         `json:"delivery_number"`
	SourceType      SourceType     `json:"source_type"`
	SourceID        uuid.UUID      `json:"source_id"`
	Status          DeliveryStatus `json:"status"`
	Carrier         string         `json:"carrier,omitempty"`
}

// NewDeliveryOrderEvent creates a DeliveryOrderEvent of the given type
func NewDeliveryOrderEvent(eventType string, do *DeliveryOrder) *DeliveryOrderEvent {
	return &DeliveryOrderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeDeliveryOrder, do.ID),
		DeliveryOrderID: do.ID,
		DeliveryNumber:  do.DeliveryNumber,
		SourceType:      do.SourceType,
		SourceID:        do.SourceID,
		Status:          do.Status,
		Carrier:         do.Shipping.Carrier,
	}
}
