package fulfillment

import (
	"context"

	"github.com/google/uuid"
)

// PickingListRepository defines persistence for picking lists
type PickingListRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PickingList, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PickingList, error)
	// FindByItemIDForUpdate locks the list owning a picking list item
	FindByItemIDForUpdate(ctx context.Context, itemID uuid.UUID) (*PickingList, error)
	// FindActiveBySource returns the non-cancelled list of a source document
	FindActiveBySource(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) (*PickingList, error)
	Save(ctx context.Context, list *PickingList) error
	NextNumber(ctx context.Context) (string, error)
}

// DeliveryOrderRepository defines persistence for delivery orders
type DeliveryOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DeliveryOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*DeliveryOrder, error)
	FindBySource(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]DeliveryOrder, error)
	Save(ctx context.Context, order *DeliveryOrder) error
	NextNumber(ctx context.Context) (string, error)
}
